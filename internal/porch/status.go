package porch

import "strings"

// Status represents the lifecycle of a task as recorded by the server.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusClaimed   Status = "CLAIMED"
	StatusRunning   Status = "RUNNING"
	StatusDone      Status = "DONE"
	StatusCancelled Status = "CANCELLED"
	StatusFailed    Status = "FAILED"
)

var allStatuses = []Status{
	StatusPending,
	StatusClaimed,
	StatusRunning,
	StatusDone,
	StatusCancelled,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status. The wire format is
// upper case; lower-case input is accepted for CLI convenience.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToUpper(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// Valid reports whether the status is one of the known wire values.
func (s Status) Valid() bool {
	_, ok := statusSet[s]
	return ok
}

// Terminal reports whether no further work is expected for the status.
// Terminal tasks can still be requeued with Client.Retry.
func (s Status) Terminal() bool {
	switch s {
	case StatusDone, StatusCancelled, StatusFailed:
		return true
	default:
		return false
	}
}
