package risk

import (
	"context"
	"testing"

	"github.com/tradeflow/tradeflow/internal/broker"
	"github.com/tradeflow/tradeflow/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPositionSizerNode(t *testing.T) {
	deps := domain.NodeDeps{Broker: broker.NewSimulated()}

	node, err := NewPositionSizerCreator(deps).CreateNode(context.Background(), domain.CreateNodeParams{
		Config: map[string]any{
			"risk_percent":   1.0,
			"stop_loss_pips": 50.0,
		},
	})
	require.NoError(t, err)

	output, err := node.Execute(context.Background(), nil)
	require.NoError(t, err)

	// 1% of the simulated 10k balance is 100, over 50 pips at 10 per pip.
	assert.Equal(t, 0.2, output["volume"])
	assert.Equal(t, 100.0, output["risk_amount"])
	assert.Equal(t, 10000.0, output["balance"])
}

func TestPositionSizerNodeRejectsBadConfig(t *testing.T) {
	deps := domain.NodeDeps{Broker: broker.NewSimulated()}

	node, err := NewPositionSizerCreator(deps).CreateNode(context.Background(), domain.CreateNodeParams{
		Config: map[string]any{"risk_percent": 0.0, "stop_loss_pips": 50.0},
	})
	require.NoError(t, err)

	_, err = node.Execute(context.Background(), nil)
	assert.Error(t, err)
}

func TestRiskRewardCalculatorNode(t *testing.T) {
	node, err := NewRiskRewardCalculatorCreator(domain.NodeDeps{}).CreateNode(context.Background(), domain.CreateNodeParams{
		Config: map[string]any{
			"entry":       1.1000,
			"stop_loss":   1.0950,
			"take_profit": 1.1100,
		},
	})
	require.NoError(t, err)

	output, err := node.Execute(context.Background(), nil)
	require.NoError(t, err)

	assert.InDelta(t, 0.0050, output["risk"].(float64), 1e-9)
	assert.InDelta(t, 0.0100, output["reward"].(float64), 1e-9)
	assert.InDelta(t, 2.0, output["ratio"].(float64), 1e-9)
}

func TestRiskRewardCalculatorNodeInputsOverrideConfig(t *testing.T) {
	node, err := NewRiskRewardCalculatorCreator(domain.NodeDeps{}).CreateNode(context.Background(), domain.CreateNodeParams{
		Config: map[string]any{"entry": 1.0, "stop_loss": 0.9, "take_profit": 1.1},
	})
	require.NoError(t, err)

	output, err := node.Execute(context.Background(), map[string]any{
		"take_profit": 1.3,
	})
	require.NoError(t, err)

	assert.InDelta(t, 3.0, output["ratio"].(float64), 1e-9)
}

func TestRiskRewardCalculatorNodeZeroRisk(t *testing.T) {
	node, err := NewRiskRewardCalculatorCreator(domain.NodeDeps{}).CreateNode(context.Background(), domain.CreateNodeParams{
		Config: map[string]any{"entry": 1.0, "stop_loss": 1.0, "take_profit": 1.1},
	})
	require.NoError(t, err)

	_, err = node.Execute(context.Background(), nil)
	assert.Error(t, err)
}

func TestMaxPositionsNode(t *testing.T) {
	marketBroker := broker.NewSimulated()
	deps := domain.NodeDeps{Broker: marketBroker}

	node, err := NewMaxPositionsCreator(deps).CreateNode(context.Background(), domain.CreateNodeParams{
		Config: map[string]any{"max_open": 2.0},
	})
	require.NoError(t, err)

	output, err := node.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, true, output["allowed"])
	assert.Equal(t, 0, output["open_count"])

	// Fill the book to the ceiling.
	for i := 0; i < 2; i++ {
		_, err := marketBroker.PlaceMarketOrder(context.Background(), domain.OrderRequest{
			Symbol:    "EURUSD",
			Direction: domain.OrderDirectionBuy,
			Volume:    0.1,
		})
		require.NoError(t, err)
	}

	output, err = node.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, false, output["allowed"])
	assert.Equal(t, 2, output["open_count"])
}

func TestDailyLossLimitNode(t *testing.T) {
	deps := domain.NodeDeps{Broker: broker.NewSimulated()}

	node, err := NewDailyLossLimitCreator(deps).CreateNode(context.Background(), domain.CreateNodeParams{
		Config: map[string]any{"max_daily_loss": 500.0},
	})
	require.NoError(t, err)

	output, err := node.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, true, output["allowed"])
}

func TestDailyLossLimitNodeRequiresLimit(t *testing.T) {
	deps := domain.NodeDeps{Broker: broker.NewSimulated()}

	_, err := NewDailyLossLimitCreator(deps).CreateNode(context.Background(), domain.CreateNodeParams{
		Config: map[string]any{},
	})
	assert.Error(t, err)
}

func TestDrawdownMonitorNodeWithoutPeakReportsNormal(t *testing.T) {
	deps := domain.NodeDeps{Broker: broker.NewSimulated()}

	node, err := NewDrawdownMonitorCreator(deps).CreateNode(context.Background(), domain.CreateNodeParams{
		Config: map[string]any{},
	})
	require.NoError(t, err)

	output, err := node.Execute(context.Background(), nil)
	require.NoError(t, err)

	// Current equity doubles as the peak when no upstream peak is wired.
	assert.Equal(t, 0.0, output["current_drawdown"])
	assert.Equal(t, 10000.0, output["peak_equity"])
	assert.Equal(t, false, output["is_critical"])
	assert.Equal(t, false, output["should_alert"])
	assert.Equal(t, "NORMAL", output["status"])
}

func TestDrawdownMonitorNodeWarnsBetweenThresholds(t *testing.T) {
	deps := domain.NodeDeps{Broker: broker.NewSimulated()}

	node, err := NewDrawdownMonitorCreator(deps).CreateNode(context.Background(), domain.CreateNodeParams{
		Config: map[string]any{"max_drawdown_percentage": 10.0, "alert_threshold": 5.0},
	})
	require.NoError(t, err)

	// Simulated equity is 10000; a peak of 11000 is a ~9.1% drawdown.
	output, err := node.Execute(context.Background(), map[string]any{"peak_equity": 11000.0})
	require.NoError(t, err)

	assert.InDelta(t, 9.09, output["current_drawdown"].(float64), 0.01)
	assert.Equal(t, 1000.0, output["drawdown_amount"])
	assert.Equal(t, false, output["is_critical"])
	assert.Equal(t, true, output["should_alert"])
	assert.Equal(t, "WARNING", output["status"])
}

func TestDrawdownMonitorNodeFlagsCriticalDrawdown(t *testing.T) {
	deps := domain.NodeDeps{Broker: broker.NewSimulated()}

	node, err := NewDrawdownMonitorCreator(deps).CreateNode(context.Background(), domain.CreateNodeParams{
		Config: map[string]any{"max_drawdown_percentage": 10.0},
	})
	require.NoError(t, err)

	output, err := node.Execute(context.Background(), map[string]any{"peak_equity": 12000.0})
	require.NoError(t, err)

	assert.InDelta(t, 16.67, output["current_drawdown"].(float64), 0.01)
	assert.Equal(t, true, output["is_critical"])
	assert.Equal(t, true, output["should_alert"])
	assert.Equal(t, "CRITICAL", output["status"])
}
