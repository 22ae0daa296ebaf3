// Package triggers provides the trigger placeholder nodes. They are the
// visual entry points of a workflow graph; the actual firing decision lives
// in the scheduler's trigger evaluator, so these nodes just emit their
// configuration and a timestamp for downstream nodes.
package triggers

import (
	"context"
	"time"

	"github.com/tradeflow/tradeflow/internal/domain"
)

const (
	NodeTypeManualTrigger    = "ManualTrigger"
	NodeTypeScheduleTrigger  = "ScheduleTrigger"
	NodeTypeTimeTrigger      = "TimeTrigger"
	NodeTypePriceTrigger     = "PriceTrigger"
	NodeTypeIndicatorTrigger = "IndicatorTrigger"
	NodeTypeWebhookTrigger   = "WebhookTrigger"
)

type triggerNode struct {
	triggerType string
	config      map[string]any
}

func NewCreator(triggerType string) domain.NodeCreator {
	return domain.NodeCreatorFunc(func(ctx context.Context, params domain.CreateNodeParams) (domain.NodeExecutor, error) {
		return &triggerNode{
			triggerType: triggerType,
			config:      params.Config,
		}, nil
	})
}

func (n *triggerNode) Execute(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	output := map[string]any{
		"trigger_type": n.triggerType,
		"triggered_at": time.Now().Format(time.RFC3339),
	}

	for key, value := range n.config {
		output[key] = value
	}

	return output, nil
}

func (n *triggerNode) RequiredInputs() []string {
	return nil
}

func (n *triggerNode) Outputs() []string {
	return []string{"trigger_type", "triggered_at"}
}
