package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// NodeContext carries the run-scoped identity every node receives. TestMode
// tells side-effecting nodes (order placement) to simulate instead of acting.
type NodeContext struct {
	WorkflowID  string
	UserID      string
	ExecutionID string
	TestMode    bool
}

// NodeExecutor is the contract every node type implements. Execute performs
// the node's work; RequiredInputs and Outputs are static capability metadata
// used for validation and tooling, not enforced at runtime.
type NodeExecutor interface {
	Execute(ctx context.Context, inputs map[string]any) (map[string]any, error)
	RequiredInputs() []string
	Outputs() []string
}

// NodeResult is the structured outcome of running one node. Node-level
// failures are captured here and never propagate as errors.
type NodeResult struct {
	Success         bool
	Output          map[string]any
	Error           string
	ExecutionTimeMS int64
}

// RunNode times a node's Execute call and converts any failure, including a
// panic inside the node, into a NodeResult.
func RunNode(ctx context.Context, node NodeExecutor, inputs map[string]any) (result NodeResult) {
	startedAt := time.Now()

	defer func() {
		if r := recover(); r != nil {
			result = NodeResult{
				Success:         false,
				Output:          map[string]any{},
				Error:           fmt.Sprintf("node panicked: %v", r),
				ExecutionTimeMS: time.Since(startedAt).Milliseconds(),
			}
		}
	}()

	output, err := node.Execute(ctx, inputs)
	elapsed := time.Since(startedAt).Milliseconds()

	if err != nil {
		return NodeResult{
			Success:         false,
			Output:          map[string]any{},
			Error:           err.Error(),
			ExecutionTimeMS: elapsed,
		}
	}

	if output == nil {
		output = map[string]any{}
	}

	return NodeResult{
		Success:         true,
		Output:          output,
		ExecutionTimeMS: elapsed,
	}
}

// CreateNodeParams carries everything a node creator needs to build one
// executable node instance for one execution.
type CreateNodeParams struct {
	NodeID  string
	Config  map[string]any
	Context NodeContext
}

type NodeCreator interface {
	CreateNode(ctx context.Context, params CreateNodeParams) (NodeExecutor, error)
}

// NodeDeps holds the collaborators node creators may draw from. Individual
// creators pick what they need; unused fields stay nil.
type NodeDeps struct {
	Broker     Broker
	StateStore WorkflowStateStore
	Notifier   Notifier
	AIConfig   AIConfig
}

// BindConfig decodes a node's declared parameters into a typed struct via a
// JSON round trip, so node configs keep the loose map shape they are stored
// in while node code works with real types.
func BindConfig(config map[string]any, out any) error {
	raw, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal node config: %w", err)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to bind node config: %w", err)
	}

	return nil
}

// AIConfig carries credentials and endpoints for the AI agent nodes.
type AIConfig struct {
	OpenAIAPIKey     string
	AnthropicAPIKey  string
	GroqAPIKey       string
	OpenRouterAPIKey string
}
