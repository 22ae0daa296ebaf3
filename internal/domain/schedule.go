package domain

import (
	"errors"
	"time"
)

var (
	ErrScheduledJobNotFound = errors.New("scheduled job not found")
)

// ScheduledJob binds a trigger to a workflow. The scheduler loop is the only
// writer of LastRun/NextRun/RunCount.
type ScheduledJob struct {
	ID            string
	WorkflowID    string
	UserID        string
	TriggerType   TriggerType
	TriggerConfig map[string]any
	IsActive      bool
	LastRun       *time.Time
	NextRun       *time.Time
	RunCount      int
	CreatedAt     time.Time
}

type CreateScheduledJobParams struct {
	WorkflowID    string
	UserID        string
	TriggerType   TriggerType
	TriggerConfig map[string]any
}
