// Package memory provides the state nodes that read and write durable
// per-workflow key/value memory across executions.
package memory

import (
	"context"
	"fmt"

	"github.com/tradeflow/tradeflow/internal/domain"
)

const (
	NodeTypeSetState = "SetState"
	NodeTypeGetState = "GetState"
)

type SetStateConfig struct {
	Key string `json:"key"`

	// Value is stored as-is when set; otherwise the node stores its input
	// under the key.
	Value any `json:"value"`
}

type SetStateNode struct {
	states     domain.WorkflowStateStore
	config     SetStateConfig
	workflowID string
}

func NewSetStateCreator(deps domain.NodeDeps) domain.NodeCreator {
	return domain.NodeCreatorFunc(func(ctx context.Context, params domain.CreateNodeParams) (domain.NodeExecutor, error) {
		var config SetStateConfig
		if err := domain.BindConfig(params.Config, &config); err != nil {
			return nil, err
		}

		if config.Key == "" {
			return nil, fmt.Errorf("state key is not configured")
		}

		return &SetStateNode{
			states:     deps.StateStore,
			config:     config,
			workflowID: params.Context.WorkflowID,
		}, nil
	})
}

func (n *SetStateNode) Execute(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	value := n.config.Value
	if value == nil {
		value = any(inputs)
	}

	if err := n.states.SetState(ctx, n.workflowID, n.config.Key, value); err != nil {
		return nil, fmt.Errorf("failed to set state %q: %w", n.config.Key, err)
	}

	return map[string]any{
		"key":    n.config.Key,
		"value":  value,
		"stored": true,
	}, nil
}

func (n *SetStateNode) RequiredInputs() []string {
	return nil
}

func (n *SetStateNode) Outputs() []string {
	return []string{"key", "value", "stored"}
}

type GetStateConfig struct {
	Key     string `json:"key"`
	Default any    `json:"default"`
}

type GetStateNode struct {
	states     domain.WorkflowStateStore
	config     GetStateConfig
	workflowID string
}

func NewGetStateCreator(deps domain.NodeDeps) domain.NodeCreator {
	return domain.NodeCreatorFunc(func(ctx context.Context, params domain.CreateNodeParams) (domain.NodeExecutor, error) {
		var config GetStateConfig
		if err := domain.BindConfig(params.Config, &config); err != nil {
			return nil, err
		}

		if config.Key == "" {
			return nil, fmt.Errorf("state key is not configured")
		}

		return &GetStateNode{
			states:     deps.StateStore,
			config:     config,
			workflowID: params.Context.WorkflowID,
		}, nil
	})
}

func (n *GetStateNode) Execute(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	value, found, err := n.states.GetState(ctx, n.workflowID, n.config.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to get state %q: %w", n.config.Key, err)
	}

	if !found {
		value = n.config.Default
	}

	return map[string]any{
		"key":   n.config.Key,
		"value": value,
		"found": found,
	}, nil
}

func (n *GetStateNode) RequiredInputs() []string {
	return nil
}

func (n *GetStateNode) Outputs() []string {
	return []string{"key", "value", "found"}
}
