package porch

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	// ErrTransport marks a request for which no HTTP response was
	// received after the full retry budget.
	ErrTransport = errors.New("transport failure")

	// ErrProtocol marks a response that was received but violates the
	// server contract (malformed body, unknown status value). Retrying
	// cannot fix a contract violation, so these are never retried.
	ErrProtocol = errors.New("protocol error")

	// ErrAuthorization marks a 401 or 403 response.
	ErrAuthorization = errors.New("authorization failed")

	// ErrConflict marks a 409 response. Register downgrades it to a
	// warning; everywhere else it propagates.
	ErrConflict = errors.New("already exists")

	// ErrValidation marks a task that could not be encoded or decoded
	// because required fields are missing or malformed. It is raised at
	// the boundary, before any network call.
	ErrValidation = errors.New("validation error")
)

// statusError classifies a non-2xx response into the error taxonomy.
// The response body (truncated) is included for diagnosis.
func statusError(operation string, resp *http.Response) error {
	snippet := bodySnippet(resp)
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s returned %d", ErrAuthorization, operation, resp.StatusCode)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s returned 409", ErrConflict, operation)
	default:
		if snippet != "" {
			return fmt.Errorf("porch: %s returned %d: %s", operation, resp.StatusCode, snippet)
		}
		return fmt.Errorf("porch: %s returned %d", operation, resp.StatusCode)
	}
}

func bodySnippet(resp *http.Response) string {
	if resp == nil || resp.Body == nil {
		return ""
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return strings.TrimSpace(string(body))
}
