// Package porch provides a task-centric client for a Porch task-queue
// server. It hides the request/response plumbing behind lifecycle
// operations: pipelines are registered once, tasks are added
// idempotently by content, claimed exclusively by workers, and driven
// through an explicit status state machine that the server is
// authoritative for.
package porch
