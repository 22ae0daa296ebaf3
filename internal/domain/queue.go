package domain

import (
	"errors"
	"time"
)

var (
	ErrQueueEntryNotFound = errors.New("queue entry not found")

	// ErrAlreadyQueued is returned by enqueue when a pending or running
	// entry already exists for the workflow (single-flight invariant).
	ErrAlreadyQueued = errors.New("workflow already queued or running")

	// ErrInvalidQueueTransition is returned when an operation is applied to
	// an entry whose status does not allow it.
	ErrInvalidQueueTransition = errors.New("invalid queue status transition")
)

type QueueStatus string

const (
	QueueStatusPending   QueueStatus = "pending"
	QueueStatusRunning   QueueStatus = "running"
	QueueStatusCompleted QueueStatus = "completed"
	QueueStatusFailed    QueueStatus = "failed"
	QueueStatusCancelled QueueStatus = "cancelled"
)

// IsActive reports whether the status counts against the single-flight
// invariant.
func (s QueueStatus) IsActive() bool {
	return s == QueueStatusPending || s == QueueStatusRunning
}

// QueueEntry is one persisted request to run a workflow, tracked through
// pending/running and a terminal state. RetryCount/MaxRetries bound the
// automatic retry loop.
type QueueEntry struct {
	ID           string
	WorkflowID   string
	UserID       string
	Status       QueueStatus
	Priority     int
	RetryCount   int
	MaxRetries   int
	ScheduledAt  time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
	ErrorMessage string
	CreatedAt    time.Time
}

// QueueStatusCounts is the per-user queue summary exposed to the management
// surface.
type QueueStatusCounts struct {
	Pending   int
	Running   int
	Completed int
	Failed    int
	Cancelled int
}
