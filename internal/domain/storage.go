package domain

import (
	"context"
	"time"
)

// WorkflowStore provides read access to workflow definitions. The executor
// snapshots the workflow it is handed; the store is only consulted at
// dispatch time.
type WorkflowStore interface {
	GetWorkflow(ctx context.Context, workflowID string) (Workflow, error)
	UpsertWorkflow(ctx context.Context, workflow Workflow) error
}

type ExecutionStore interface {
	CreateExecution(ctx context.Context, execution WorkflowExecution) error
	UpdateExecution(ctx context.Context, execution WorkflowExecution) error
	GetExecution(ctx context.Context, executionID string) (WorkflowExecution, error)
	ListExecutions(ctx context.Context, workflowID string) ([]WorkflowExecution, error)

	CreateNodeLog(ctx context.Context, log NodeExecutionLog) error
	UpdateNodeLog(ctx context.Context, log NodeExecutionLog) error
	ListNodeLogs(ctx context.Context, executionID string) ([]NodeExecutionLog, error)

	SaveMetrics(ctx context.Context, metrics ExecutionMetrics) error
}

type ScheduleStore interface {
	CreateScheduledJob(ctx context.Context, job ScheduledJob) error
	UpdateScheduledJob(ctx context.Context, job ScheduledJob) error
	GetScheduledJob(ctx context.Context, jobID string) (ScheduledJob, error)
	ListActiveScheduledJobs(ctx context.Context) ([]ScheduledJob, error)
	ListScheduledJobs(ctx context.Context, userID string) ([]ScheduledJob, error)
}

type QueueStore interface {
	CreateEntry(ctx context.Context, entry QueueEntry) error
	UpdateEntry(ctx context.Context, entry QueueEntry) error
	GetEntry(ctx context.Context, entryID string) (QueueEntry, error)

	// FindActiveEntry returns the pending or running entry for a workflow,
	// if any. Backs the single-flight check.
	FindActiveEntry(ctx context.Context, workflowID string) (QueueEntry, bool, error)

	CountByStatus(ctx context.Context, userID string) (QueueStatusCounts, error)
}

// WorkflowStateStore is the durable key/value memory state nodes read and
// write across executions of one workflow. Last-writer-wins per
// (workflow_id, key).
type WorkflowStateStore interface {
	SetState(ctx context.Context, workflowID string, key string, value any) error
	GetState(ctx context.Context, workflowID string, key string) (any, bool, error)
}

// Notification is what notification nodes hand to the notifier collaborator.
type Notification struct {
	UserID    string
	Title     string
	Message   string
	Severity  string
	CreatedAt time.Time
}

type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}
