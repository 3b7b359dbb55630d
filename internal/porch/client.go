package porch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ServerConfig holds connection parameters for a Porch server. The
// tokens are secrets and are never logged. The admin token authorizes
// Register and NewToken; the pipeline token authorizes everything else.
type ServerConfig struct {
	URL           string
	AdminToken    string
	PipelineToken string
}

// Client is a task-queue client for one pipeline carrying one task
// kind. A pipeline is identified by its (name, uri, version) triple.
//
// The client holds no mutable shared state beyond the tasks callers
// pass in, so one instance may be used from multiple goroutines.
// Exclusivity across concurrent claimers is entirely the server's
// responsibility; the client performs no local locking.
type Client[T any] struct {
	name    string
	uri     string
	version string
	codec   Codec[T]
	server  ServerConfig
	exec    *executor
	log     *slog.Logger
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	httpClient *http.Client
	timeout    time.Duration
	attempts   int
	backoff    time.Duration
	sleep      func(context.Context, time.Duration) error
	logger     *slog.Logger
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *clientOptions) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// WithTimeout overrides the per-attempt request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithRetryPolicy overrides the transport retry budget and the initial
// backoff delay. The delay doubles after each failed attempt.
func WithRetryPolicy(attempts int, backoff time.Duration) Option {
	return func(o *clientOptions) {
		if attempts > 0 {
			o.attempts = attempts
		}
		if backoff > 0 {
			o.backoff = backoff
		}
	}
}

// WithSleep overrides the backoff wait. Tests use it to observe waits
// without slowing down.
func WithSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(o *clientOptions) {
		if sleep != nil {
			o.sleep = sleep
		}
	}
}

// WithLogger attaches a logger to the client.
func WithLogger(logger *slog.Logger) Option {
	return func(o *clientOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// New creates a client for the pipeline identified by name, uri and
// version, using codec to convert the task kind to and from wire
// payloads.
func New[T any](codec Codec[T], name, uri, version string, server ServerConfig, opts ...Option) (*Client[T], error) {
	if codec == nil {
		return nil, errors.New("porch codec required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("pipeline name required")
	}
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil, errors.New("pipeline uri required")
	}
	version = strings.TrimSpace(version)
	if version == "" {
		return nil, errors.New("pipeline version required")
	}
	server.URL = strings.TrimSpace(server.URL)
	if server.URL == "" {
		return nil, errors.New("porch server url required")
	}

	options := clientOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&options)
	}

	exec := newExecutor(options.logger)
	if options.httpClient != nil {
		exec.client = options.httpClient
	}
	if options.timeout > 0 {
		exec.client.Timeout = options.timeout
	}
	if options.attempts > 0 {
		exec.attempts = options.attempts
	}
	if options.backoff > 0 {
		exec.backoff = options.backoff
	}
	if options.sleep != nil {
		exec.sleep = options.sleep
	}

	return &Client[T]{
		name:    name,
		uri:     uri,
		version: version,
		codec:   codec,
		server:  server,
		exec:    exec,
		log:     options.logger,
	}, nil
}

// Name returns the pipeline name.
func (c *Client[T]) Name() string { return c.name }

// Register creates the pipeline on the server. Registration is needed
// once per (name, uri, version) triple and requires the admin token.
// A pipeline that already exists is logged as a warning, not an error.
func (c *Client[T]) Register(ctx context.Context) error {
	resp, err := c.exec.do(ctx, http.MethodPost, c.pipelineEndpoint(), c.server.AdminToken, c.pipeline())
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		c.log.Warn("pipeline already exists", "pipeline", c.name, "version", c.version)
		return nil
	}
	if !success(resp.StatusCode) {
		return statusError("register pipeline", resp)
	}
	c.log.Info("pipeline registered", "pipeline", c.name, "version", c.version)
	return nil
}

// NewToken mints a new pipeline-scoped token described by description.
// Requires the admin token. The secret is returned exactly once; the
// server cannot reproduce it, so the caller must persist it.
func (c *Client[T]) NewToken(ctx context.Context, description string) (string, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return "", errors.New("token description required")
	}

	endpoint := c.pipelineEndpoint() + url.PathEscape(c.name) + "/token/" + url.PathEscape(description)
	resp, err := c.exec.do(ctx, http.MethodPost, endpoint, c.server.AdminToken, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if !success(resp.StatusCode) {
		return "", statusError("mint token", resp)
	}

	var payload tokenMessage
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: decode token response: %v", ErrProtocol, err)
	}
	if payload.Token == "" {
		return "", fmt.Errorf("%w: token response carried no token", ErrProtocol)
	}
	return payload.Token, nil
}

// Add submits a task for this pipeline. Submission is idempotent by
// content identity: the same serialized input is never duplicated
// server-side. Add reports true when the task was newly created and
// false when it already existed. The distinction rests on the response
// status code alone: 201 means created, any other success means the
// task was already known.
func (c *Client[T]) Add(ctx context.Context, task Task[T]) (bool, error) {
	message, err := c.encodeTask(task)
	if err != nil {
		return false, err
	}

	resp, err := c.exec.do(ctx, http.MethodPost, c.taskEndpoint(), c.server.PipelineToken, message)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if !success(resp.StatusCode) {
		return false, statusError("add task", resp)
	}

	created := resp.StatusCode == http.StatusCreated
	if !created {
		c.log.Debug("task already exists", "pipeline", c.name, "status_code", resp.StatusCode)
	}
	return created, nil
}

// Tasks returns all tasks for this pipeline.
func (c *Client[T]) Tasks(ctx context.Context) ([]Task[T], error) {
	return c.list(ctx, "")
}

// TasksWithStatus returns all tasks for this pipeline in one status.
func (c *Client[T]) TasksWithStatus(ctx context.Context, status Status) ([]Task[T], error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, string(status))
	}
	return c.list(ctx, status)
}

// Pending returns tasks waiting to be claimed.
func (c *Client[T]) Pending(ctx context.Context) ([]Task[T], error) {
	return c.list(ctx, StatusPending)
}

// Claimed returns tasks claimed but not yet running.
func (c *Client[T]) Claimed(ctx context.Context) ([]Task[T], error) {
	return c.list(ctx, StatusClaimed)
}

// Running returns tasks currently running.
func (c *Client[T]) Running(ctx context.Context) ([]Task[T], error) {
	return c.list(ctx, StatusRunning)
}

// Succeeded returns tasks that completed successfully.
func (c *Client[T]) Succeeded(ctx context.Context) ([]Task[T], error) {
	return c.list(ctx, StatusDone)
}

// Cancelled returns tasks that were cancelled.
func (c *Client[T]) Cancelled(ctx context.Context) ([]Task[T], error) {
	return c.list(ctx, StatusCancelled)
}

// Failed returns tasks that failed.
func (c *Client[T]) Failed(ctx context.Context) ([]Task[T], error) {
	return c.list(ctx, StatusFailed)
}

// Claim reserves up to n pending tasks for this worker. The reservation
// is exclusive and atomic on the server: each task is granted to at
// most one concurrent claimer. Between 0 and n tasks are returned, each
// now CLAIMED; ordering is unspecified.
func (c *Client[T]) Claim(ctx context.Context, n int) ([]Task[T], error) {
	if n < 1 {
		return nil, fmt.Errorf("claim count must be positive, got %d", n)
	}

	endpoint := c.taskEndpoint() + "claim/?num_tasks=" + strconv.Itoa(n)
	resp, err := c.exec.do(ctx, http.MethodPost, endpoint, c.server.PipelineToken, claimMessage{Pipeline: c.pipeline()})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !success(resp.StatusCode) {
		return nil, statusError("claim tasks", resp)
	}

	var items []taskMessage
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("%w: decode claim response: %v", ErrProtocol, err)
	}

	claimed := make([]Task[T], 0, len(items))
	for _, item := range items {
		task, err := c.decodeTask(item)
		if err != nil {
			return nil, err
		}
		claimed = append(claimed, task)
	}
	c.log.Info("claimed tasks", "pipeline", c.name, "requested", n, "granted", len(claimed))
	return claimed, nil
}

// Run marks a claimed task as running.
func (c *Client[T]) Run(ctx context.Context, task Task[T]) (Task[T], error) {
	return c.update(ctx, task, StatusRunning)
}

// Done marks a running task as completed successfully.
func (c *Client[T]) Done(ctx context.Context, task Task[T]) (Task[T], error) {
	return c.update(ctx, task, StatusDone)
}

// Fail marks a running task as failed.
func (c *Client[T]) Fail(ctx context.Context, task Task[T]) (Task[T], error) {
	return c.update(ctx, task, StatusFailed)
}

// Cancel marks a task as cancelled.
func (c *Client[T]) Cancel(ctx context.Context, task Task[T]) (Task[T], error) {
	return c.update(ctx, task, StatusCancelled)
}

// Retry requeues a task as pending so it can be claimed again, after a
// failure or to re-run a completed task.
func (c *Client[T]) Retry(ctx context.Context, task Task[T]) (Task[T], error) {
	return c.update(ctx, task, StatusPending)
}

// update requests a status transition and returns the task with the
// status the server recorded. The server is authoritative: an illegal
// transition from the task's current recorded state is an error, never
// a silent no-op, and the local status is only ever replaced from the
// response.
func (c *Client[T]) update(ctx context.Context, task Task[T], desired Status) (Task[T], error) {
	task.Status = desired
	message, err := c.encodeTask(task)
	if err != nil {
		return Task[T]{}, err
	}
	c.log.Info("task transition", "pipeline", c.name, "status", desired)

	resp, err := c.exec.do(ctx, http.MethodPut, c.taskEndpoint(), c.server.PipelineToken, message)
	if err != nil {
		return Task[T]{}, err
	}
	defer resp.Body.Close()

	if !success(resp.StatusCode) {
		return Task[T]{}, statusError("update task", resp)
	}

	var updated taskMessage
	if err := json.NewDecoder(resp.Body).Decode(&updated); err != nil {
		return Task[T]{}, fmt.Errorf("%w: decode update response: %v", ErrProtocol, err)
	}
	return c.decodeTask(updated)
}

func (c *Client[T]) list(ctx context.Context, status Status) ([]Task[T], error) {
	endpoint := c.taskEndpoint() + "?pipeline_name=" + url.QueryEscape(c.name)
	if status != "" {
		endpoint += "&status=" + url.QueryEscape(string(status))
	}

	resp, err := c.exec.do(ctx, http.MethodGet, endpoint, c.server.PipelineToken, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !success(resp.StatusCode) {
		return nil, statusError("list tasks", resp)
	}

	var items []taskMessage
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("%w: decode task list: %v", ErrProtocol, err)
	}

	tasks := make([]Task[T], 0, len(items))
	for _, item := range items {
		task, err := c.decodeTask(item)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (c *Client[T]) encodeTask(task Task[T]) (taskMessage, error) {
	payload, err := c.codec.Encode(task.Input)
	if err != nil {
		return taskMessage{}, err
	}
	status := task.Status
	if status == "" {
		status = StatusPending
	}
	return taskMessage{
		Pipeline:  c.pipeline(),
		TaskInput: payload,
		Status:    status,
	}, nil
}

func (c *Client[T]) decodeTask(message taskMessage) (Task[T], error) {
	input, err := c.codec.Decode(message.TaskInput)
	if err != nil {
		return Task[T]{}, err
	}
	status, ok := ParseStatus(string(message.Status))
	if !ok {
		return Task[T]{}, fmt.Errorf("%w: unrecognized task status %q from server", ErrProtocol, string(message.Status))
	}
	return Task[T]{Input: input, Status: status}, nil
}

func (c *Client[T]) pipeline() pipelineMessage {
	return pipelineMessage{Name: c.name, URI: c.uri, Version: c.version}
}

func (c *Client[T]) pipelineEndpoint() string {
	return strings.TrimRight(c.server.URL, "/") + "/pipelines/"
}

func (c *Client[T]) taskEndpoint() string {
	return strings.TrimRight(c.server.URL, "/") + "/tasks/"
}

func success(code int) bool {
	return code >= 200 && code < 300
}
