// Package conditions provides branching nodes. Comparisons go through the
// same closed comparator the trigger evaluator uses; there is no expression
// language.
package conditions

import (
	"context"
	"fmt"

	"github.com/tradeflow/tradeflow/internal/domain"
)

const (
	NodeTypeCompare = "Compare"
	NodeTypeIfElse  = "IfElse"
)

type CompareConfig struct {
	InputKey  string  `json:"input_key"`
	Operator  string  `json:"operator"`
	Threshold float64 `json:"threshold"`
}

type CompareNode struct {
	config     CompareConfig
	comparator domain.Comparator
}

func NewCompareCreator(deps domain.NodeDeps) domain.NodeCreator {
	return domain.NodeCreatorFunc(func(ctx context.Context, params domain.CreateNodeParams) (domain.NodeExecutor, error) {
		var config CompareConfig
		if err := domain.BindConfig(params.Config, &config); err != nil {
			return nil, err
		}

		comparator, err := domain.NewComparator(config.Operator, config.Threshold)
		if err != nil {
			return nil, err
		}

		return &CompareNode{config: config, comparator: comparator}, nil
	})
}

func (n *CompareNode) Execute(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	value, err := numericInput(inputs, n.config.InputKey)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"result":    n.comparator.Evaluate(value),
		"value":     value,
		"threshold": n.config.Threshold,
	}, nil
}

func (n *CompareNode) RequiredInputs() []string {
	return []string{n.config.InputKey}
}

func (n *CompareNode) Outputs() []string {
	return []string{"result", "value", "threshold"}
}

// IfElseNode routes its input to a "true" or "false" output port so
// downstream edges can subscribe to one branch via their source handle.
type IfElseNode struct {
	config     CompareConfig
	comparator domain.Comparator
}

func NewIfElseCreator(deps domain.NodeDeps) domain.NodeCreator {
	return domain.NodeCreatorFunc(func(ctx context.Context, params domain.CreateNodeParams) (domain.NodeExecutor, error) {
		var config CompareConfig
		if err := domain.BindConfig(params.Config, &config); err != nil {
			return nil, err
		}

		comparator, err := domain.NewComparator(config.Operator, config.Threshold)
		if err != nil {
			return nil, err
		}

		return &IfElseNode{config: config, comparator: comparator}, nil
	})
}

func (n *IfElseNode) Execute(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	value, err := numericInput(inputs, n.config.InputKey)
	if err != nil {
		return nil, err
	}

	result := n.comparator.Evaluate(value)

	output := map[string]any{
		"result": result,
		"value":  value,
	}

	if result {
		output["true"] = inputs
	} else {
		output["false"] = inputs
	}

	return output, nil
}

func (n *IfElseNode) RequiredInputs() []string {
	return []string{n.config.InputKey}
}

func (n *IfElseNode) Outputs() []string {
	return []string{"result", "value", "true", "false"}
}

func numericInput(inputs map[string]any, key string) (float64, error) {
	if key == "" {
		key = "value"
	}

	raw, ok := inputs[key]
	if !ok {
		return 0, fmt.Errorf("input %q is missing", key)
	}

	switch value := raw.(type) {
	case float64:
		return value, nil
	case float32:
		return float64(value), nil
	case int:
		return float64(value), nil
	case int64:
		return float64(value), nil
	default:
		return 0, fmt.Errorf("input %q is not numeric: %T", key, raw)
	}
}
