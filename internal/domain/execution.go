package domain

import (
	"errors"
	"time"
)

var (
	ErrExecutionNotFound = errors.New("execution not found")
)

type ExecutionStatus string

const (
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
	ExecutionStatusStopped   ExecutionStatus = "stopped"
)

// WorkflowExecution is one run of a workflow. It is created when the run
// starts and mutated only by the graph executor; once the status leaves
// running it is terminal.
type WorkflowExecution struct {
	ID            string
	WorkflowID    string
	UserID        string
	Status        ExecutionStatus
	StartedAt     time.Time
	CompletedAt   *time.Time
	ExecutionData map[string]map[string]any
	ErrorMessage  string
}

type NodeStatus string

const (
	NodeStatusRunning   NodeStatus = "running"
	NodeStatusCompleted NodeStatus = "completed"
	NodeStatusFailed    NodeStatus = "failed"
	NodeStatusSkipped   NodeStatus = "skipped"
)

// NodeExecutionLog is one row per node per execution, created when the node
// starts and finalized when it ends. Skipped nodes get a row too.
type NodeExecutionLog struct {
	ID              string
	ExecutionID     string
	NodeID          string
	NodeType        string
	Status          NodeStatus
	InputData       map[string]any
	OutputData      map[string]any
	ErrorMessage    string
	ExecutionTimeMS int64
	ExecutedAt      time.Time
}

// ExecutionMetrics summarizes a finished execution for reporting.
type ExecutionMetrics struct {
	ExecutionID     string
	TotalNodes      int
	SuccessfulNodes int
	FailedNodes     int
	SkippedNodes    int
	TotalTimeMS     int64
}
