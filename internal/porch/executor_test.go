package porch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"
)

type scriptedTransport struct {
	failures int
	calls    int
	err      error
	status   int
}

func (t *scriptedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.calls++
	if t.calls <= t.failures {
		return nil, t.err
	}
	return &http.Response{
		StatusCode: t.status,
		Body:       io.NopCloser(strings.NewReader("{}")),
		Header:     http.Header{},
		Request:    req,
	}, nil
}

func newTestExecutor(transport http.RoundTripper) (*executor, *[]time.Duration) {
	waits := new([]time.Duration)
	exec := newExecutor(slog.New(slog.NewTextHandler(io.Discard, nil)))
	exec.client = &http.Client{Transport: transport}
	exec.sleep = func(_ context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return nil
	}
	return exec, waits
}

func TestExecutorRetriesTransportFailures(t *testing.T) {
	transport := &scriptedTransport{failures: 2, err: errors.New("connection refused"), status: http.StatusOK}
	exec, waits := newTestExecutor(transport)

	resp, err := exec.do(context.Background(), http.MethodGet, "http://porch.invalid/tasks/", "token", nil)
	if err != nil {
		t.Fatalf("do returned error: %v", err)
	}
	defer resp.Body.Close()

	if transport.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", transport.calls)
	}
	if len(*waits) != 2 {
		t.Fatalf("expected 2 backoff waits, got %d", len(*waits))
	}
	if (*waits)[0] != defaultBackoff || (*waits)[1] != 2*defaultBackoff {
		t.Fatalf("expected backoff to double from %v, got %v", defaultBackoff, *waits)
	}
}

func TestExecutorRaisesLastTransportError(t *testing.T) {
	cause := errors.New("no route to host")
	transport := &scriptedTransport{failures: 10, err: cause}
	exec, waits := newTestExecutor(transport)

	_, err := exec.do(context.Background(), http.MethodPost, "http://porch.invalid/tasks/", "token", map[string]string{"a": "b"})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if transport.calls != defaultAttempts {
		t.Fatalf("expected exactly %d attempts, got %d", defaultAttempts, transport.calls)
	}
	if len(*waits) != defaultAttempts-1 {
		t.Fatalf("expected %d waits, got %d", defaultAttempts-1, len(*waits))
	}
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected original transport error preserved, got %v", err)
	}
}

func TestExecutorDoesNotRetryHTTPErrors(t *testing.T) {
	transport := &scriptedTransport{status: http.StatusInternalServerError}
	exec, waits := newTestExecutor(transport)

	resp, err := exec.do(context.Background(), http.MethodGet, "http://porch.invalid/tasks/", "token", nil)
	if err != nil {
		t.Fatalf("do returned error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected the 500 response returned as-is, got %d", resp.StatusCode)
	}
	if transport.calls != 1 {
		t.Fatalf("expected a single attempt for an HTTP error, got %d", transport.calls)
	}
	if len(*waits) != 0 {
		t.Fatalf("expected no backoff waits, got %v", *waits)
	}
}

func TestExecutorHonorsContextBetweenAttempts(t *testing.T) {
	transport := &scriptedTransport{failures: 10, err: errors.New("timeout")}
	exec := newExecutor(slog.New(slog.NewTextHandler(io.Discard, nil)))
	exec.client = &http.Client{Transport: transport}
	exec.sleep = sleepContext

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := exec.do(ctx, http.MethodGet, "http://porch.invalid/tasks/", "token", nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if transport.calls != 1 {
		t.Fatalf("expected no further attempts after cancellation, got %d", transport.calls)
	}
}

func TestExecutorSetsHeaders(t *testing.T) {
	var captured *http.Request
	transport := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		captured = req
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("{}")), Request: req}, nil
	})
	exec, _ := newTestExecutor(transport)

	resp, err := exec.do(context.Background(), http.MethodPost, "http://porch.invalid/pipelines/", "secret", map[string]string{"name": "p"})
	if err != nil {
		t.Fatalf("do returned error: %v", err)
	}
	defer resp.Body.Close()

	if got := captured.Header.Get("Authorization"); got != "Bearer secret" {
		t.Fatalf("unexpected Authorization header %q", got)
	}
	if got := captured.Header.Get("Accept"); got != "application/json" {
		t.Fatalf("unexpected Accept header %q", got)
	}
	if got := captured.Header.Get("Content-Type"); got != "application/json" {
		t.Fatalf("unexpected Content-Type header %q", got)
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }
