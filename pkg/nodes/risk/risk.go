// Package risk provides the position-sizing and guard-rail nodes that sit
// between signal generation and order placement.
package risk

import (
	"context"
	"fmt"
	"math"

	"github.com/tradeflow/tradeflow/internal/domain"
)

const (
	NodeTypePositionSizer        = "PositionSizer"
	NodeTypeRiskRewardCalculator = "RiskRewardCalculator"
	NodeTypeMaxPositions         = "MaxPositions"
	NodeTypeDailyLossLimit       = "DailyLossLimit"
	NodeTypeDrawdownMonitor      = "DrawdownMonitor"
)

type PositionSizerConfig struct {
	RiskPercent  float64 `json:"risk_percent"`
	StopLossPips float64 `json:"stop_loss_pips"`
	PipValue     float64 `json:"pip_value"`
}

// PositionSizerNode converts account balance and configured risk into an
// order volume, rounded down to two decimals (broker lot granularity).
type PositionSizerNode struct {
	broker domain.Broker
	config PositionSizerConfig
}

func NewPositionSizerCreator(deps domain.NodeDeps) domain.NodeCreator {
	return domain.NodeCreatorFunc(func(ctx context.Context, params domain.CreateNodeParams) (domain.NodeExecutor, error) {
		var config PositionSizerConfig
		if err := domain.BindConfig(params.Config, &config); err != nil {
			return nil, err
		}

		return &PositionSizerNode{broker: deps.Broker, config: config}, nil
	})
}

func (n *PositionSizerNode) Execute(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	if n.config.RiskPercent <= 0 || n.config.StopLossPips <= 0 {
		return nil, fmt.Errorf("risk_percent and stop_loss_pips must be positive")
	}

	pipValue := n.config.PipValue
	if pipValue <= 0 {
		pipValue = 10
	}

	account, err := n.broker.GetAccountInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get account info: %w", err)
	}

	riskAmount := account.Balance * n.config.RiskPercent / 100
	volume := riskAmount / (n.config.StopLossPips * pipValue)
	volume = math.Floor(volume*100) / 100

	return map[string]any{
		"volume":      volume,
		"risk_amount": riskAmount,
		"balance":     account.Balance,
	}, nil
}

func (n *PositionSizerNode) RequiredInputs() []string {
	return nil
}

func (n *PositionSizerNode) Outputs() []string {
	return []string{"volume", "risk_amount", "balance"}
}

type RiskRewardConfig struct {
	Entry      float64 `json:"entry"`
	StopLoss   float64 `json:"stop_loss"`
	TakeProfit float64 `json:"take_profit"`
}

type RiskRewardCalculatorNode struct {
	config RiskRewardConfig
}

func NewRiskRewardCalculatorCreator(deps domain.NodeDeps) domain.NodeCreator {
	return domain.NodeCreatorFunc(func(ctx context.Context, params domain.CreateNodeParams) (domain.NodeExecutor, error) {
		var config RiskRewardConfig
		if err := domain.BindConfig(params.Config, &config); err != nil {
			return nil, err
		}

		return &RiskRewardCalculatorNode{config: config}, nil
	})
}

func (n *RiskRewardCalculatorNode) Execute(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	entry := numericOr(inputs, "entry", n.config.Entry)
	stopLoss := numericOr(inputs, "stop_loss", n.config.StopLoss)
	takeProfit := numericOr(inputs, "take_profit", n.config.TakeProfit)

	risk := math.Abs(entry - stopLoss)
	reward := math.Abs(takeProfit - entry)

	if risk == 0 {
		return nil, fmt.Errorf("entry and stop loss are equal, risk is zero")
	}

	return map[string]any{
		"risk":   risk,
		"reward": reward,
		"ratio":  reward / risk,
	}, nil
}

func (n *RiskRewardCalculatorNode) RequiredInputs() []string {
	return nil
}

func (n *RiskRewardCalculatorNode) Outputs() []string {
	return []string{"risk", "reward", "ratio"}
}

type MaxPositionsConfig struct {
	MaxOpen int `json:"max_open"`
}

// MaxPositionsNode reports whether a new position may be opened given the
// configured ceiling. It never blocks execution itself; downstream condition
// routing decides.
type MaxPositionsNode struct {
	broker domain.Broker
	config MaxPositionsConfig
}

func NewMaxPositionsCreator(deps domain.NodeDeps) domain.NodeCreator {
	return domain.NodeCreatorFunc(func(ctx context.Context, params domain.CreateNodeParams) (domain.NodeExecutor, error) {
		var config MaxPositionsConfig
		if err := domain.BindConfig(params.Config, &config); err != nil {
			return nil, err
		}

		if config.MaxOpen <= 0 {
			config.MaxOpen = 5
		}

		return &MaxPositionsNode{broker: deps.Broker, config: config}, nil
	})
}

func (n *MaxPositionsNode) Execute(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	positions, err := n.broker.GetOpenPositions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get open positions: %w", err)
	}

	return map[string]any{
		"allowed":    len(positions) < n.config.MaxOpen,
		"open_count": len(positions),
		"max_open":   n.config.MaxOpen,
	}, nil
}

func (n *MaxPositionsNode) RequiredInputs() []string {
	return nil
}

func (n *MaxPositionsNode) Outputs() []string {
	return []string{"allowed", "open_count", "max_open"}
}

type DailyLossLimitConfig struct {
	MaxDailyLoss float64 `json:"max_daily_loss"`
}

type DailyLossLimitNode struct {
	broker domain.Broker
	config DailyLossLimitConfig
}

func NewDailyLossLimitCreator(deps domain.NodeDeps) domain.NodeCreator {
	return domain.NodeCreatorFunc(func(ctx context.Context, params domain.CreateNodeParams) (domain.NodeExecutor, error) {
		var config DailyLossLimitConfig
		if err := domain.BindConfig(params.Config, &config); err != nil {
			return nil, err
		}

		if config.MaxDailyLoss <= 0 {
			return nil, fmt.Errorf("max_daily_loss must be positive")
		}

		return &DailyLossLimitNode{broker: deps.Broker, config: config}, nil
	})
}

func (n *DailyLossLimitNode) Execute(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	account, err := n.broker.GetAccountInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get account info: %w", err)
	}

	return map[string]any{
		"allowed":        account.DailyLoss < n.config.MaxDailyLoss,
		"daily_loss":     account.DailyLoss,
		"max_daily_loss": n.config.MaxDailyLoss,
	}, nil
}

func (n *DailyLossLimitNode) RequiredInputs() []string {
	return nil
}

func (n *DailyLossLimitNode) Outputs() []string {
	return []string{"allowed", "daily_loss", "max_daily_loss"}
}

type DrawdownMonitorConfig struct {
	MaxDrawdownPercentage float64 `json:"max_drawdown_percentage"`
	AlertThreshold        float64 `json:"alert_threshold"`
}

// DrawdownMonitorNode reports equity drawdown against a peak. The peak comes
// from upstream input (typically a state memory node); without one the
// current equity is the peak and the drawdown is zero.
type DrawdownMonitorNode struct {
	broker domain.Broker
	config DrawdownMonitorConfig
}

func NewDrawdownMonitorCreator(deps domain.NodeDeps) domain.NodeCreator {
	return domain.NodeCreatorFunc(func(ctx context.Context, params domain.CreateNodeParams) (domain.NodeExecutor, error) {
		var config DrawdownMonitorConfig
		if err := domain.BindConfig(params.Config, &config); err != nil {
			return nil, err
		}

		if config.MaxDrawdownPercentage <= 0 {
			config.MaxDrawdownPercentage = 10.0
		}

		if config.AlertThreshold <= 0 {
			config.AlertThreshold = 5.0
		}

		return &DrawdownMonitorNode{broker: deps.Broker, config: config}, nil
	})
}

func (n *DrawdownMonitorNode) Execute(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	account, err := n.broker.GetAccountInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get account info: %w", err)
	}

	currentEquity := account.Equity
	peakEquity := numericOr(inputs, "peak_equity", currentEquity)

	var drawdownAmount, drawdownPercentage float64
	if peakEquity > 0 {
		drawdownAmount = peakEquity - currentEquity
		drawdownPercentage = drawdownAmount / peakEquity * 100
	}

	isCritical := drawdownPercentage >= n.config.MaxDrawdownPercentage
	shouldAlert := drawdownPercentage >= n.config.AlertThreshold

	status := "NORMAL"
	switch {
	case isCritical:
		status = "CRITICAL"
	case shouldAlert:
		status = "WARNING"
	}

	return map[string]any{
		"current_drawdown": drawdownPercentage,
		"drawdown_amount":  drawdownAmount,
		"peak_equity":      peakEquity,
		"current_equity":   currentEquity,
		"is_critical":      isCritical,
		"should_alert":     shouldAlert,
		"status":           status,
	}, nil
}

func (n *DrawdownMonitorNode) RequiredInputs() []string {
	return nil
}

func (n *DrawdownMonitorNode) Outputs() []string {
	return []string{"current_drawdown", "drawdown_amount", "peak_equity", "current_equity", "is_critical", "should_alert", "status"}
}

func numericOr(inputs map[string]any, key string, fallback float64) float64 {
	if value, ok := inputs[key].(float64); ok {
		return value
	}

	return fallback
}
