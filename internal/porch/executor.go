package porch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	defaultTimeout  = 10 * time.Second
	defaultAttempts = 3
	defaultBackoff  = 15 * time.Second
)

// executor delivers one logical request despite transient network
// failure. Only transport-level failures (no response received) are
// retried; any HTTP response, including error statuses, is returned
// as-is so the caller can classify it. Each attempt runs under the
// client's per-attempt timeout; backoff doubles after each failed
// attempt and honors context cancellation.
type executor struct {
	client   *http.Client
	attempts int
	backoff  time.Duration
	sleep    func(context.Context, time.Duration) error
	log      *slog.Logger
}

func newExecutor(log *slog.Logger) *executor {
	return &executor{
		client:   &http.Client{Timeout: defaultTimeout},
		attempts: defaultAttempts,
		backoff:  defaultBackoff,
		sleep:    sleepContext,
		log:      log,
	}
}

// do sends one authenticated JSON request. On success the caller owns
// the response body.
func (e *executor) do(ctx context.Context, method, endpoint, token string, body any) (*http.Response, error) {
	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		payload = encoded
	}

	wait := e.backoff
	var lastErr error
	for attempt := 1; attempt <= e.attempts; attempt++ {
		if attempt > 1 {
			if err := e.sleep(ctx, wait); err != nil {
				return nil, err
			}
			wait *= 2
		}

		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Content-Type", "application/json")

		resp, err := e.client.Do(req)
		if err == nil {
			e.log.Debug("porch response",
				"method", method,
				"url", endpoint,
				"status", resp.StatusCode,
				"attempt", attempt)
			return resp, nil
		}

		lastErr = err
		e.log.Error("porch request failed",
			"method", method,
			"url", endpoint,
			"attempt", attempt,
			"error", err)
	}

	return nil, fmt.Errorf("%w: %s %s after %d attempts: %w",
		ErrTransport, method, endpoint, e.attempts, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
