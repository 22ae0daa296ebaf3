package domain

import (
	"errors"
	"time"
)

var (
	ErrWorkflowNotFound = errors.New("workflow not found")
)

// TriggerType selects which evaluator decides when a scheduled workflow is due.
type TriggerType string

const (
	TriggerTypeCron      TriggerType = "cron"
	TriggerTypeTime      TriggerType = "time"
	TriggerTypePrice     TriggerType = "price"
	TriggerTypeIndicator TriggerType = "indicator"
	TriggerTypeWebhook   TriggerType = "webhook"
	TriggerTypeManual    TriggerType = "manual"
)

type Workflow struct {
	ID            string
	UserID        string
	Name          string
	Description   string
	Nodes         []WorkflowNode
	Edges         []WorkflowEdge
	Settings      map[string]any
	IsActive      bool
	TriggerType   TriggerType
	TriggerConfig map[string]any
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (w Workflow) GetNodeByID(nodeID string) (WorkflowNode, bool) {
	for _, node := range w.Nodes {
		if node.ID == nodeID {
			return node, true
		}
	}

	return WorkflowNode{}, false
}

// WorkflowNode is the persisted description of one node in the graph. The
// executable counterpart is constructed per execution through the registry.
type WorkflowNode struct {
	ID     string
	Type   string
	Config map[string]any
}

// WorkflowEdge connects a source node's output to a target node's input.
// Handles name the ports on multi-output/multi-input nodes; empty handles
// address the default port.
type WorkflowEdge struct {
	Source       string
	Target       string
	SourceHandle string
	TargetHandle string
}

// DefaultHandle is the port name used when an edge does not name one.
const DefaultHandle = "default"

func (e WorkflowEdge) TargetKey() string {
	if e.TargetHandle == "" {
		return DefaultHandle
	}

	return e.TargetHandle
}

func (e WorkflowEdge) SourceKey() string {
	if e.SourceHandle == "" {
		return DefaultHandle
	}

	return e.SourceHandle
}
