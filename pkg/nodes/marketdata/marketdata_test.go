package marketdata

import (
	"context"
	"testing"

	"github.com/tradeflow/tradeflow/internal/broker"
	"github.com/tradeflow/tradeflow/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLivePriceNode(t *testing.T) {
	simulated := broker.NewSimulated()
	simulated.SetPrice("EURUSD", 1.2000)

	node, err := NewGetLivePriceCreator(domain.NodeDeps{Broker: simulated}).CreateNode(context.Background(), domain.CreateNodeParams{
		Config: map[string]any{"symbol": "EURUSD"},
	})
	require.NoError(t, err)

	output, err := node.Execute(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, "EURUSD", output["symbol"])
	assert.Equal(t, 1.2000, output["bid"])
}

func TestGetLivePriceNodeRequiresSymbol(t *testing.T) {
	node, err := NewGetLivePriceCreator(domain.NodeDeps{Broker: broker.NewSimulated()}).CreateNode(context.Background(), domain.CreateNodeParams{
		Config: map[string]any{},
	})
	require.NoError(t, err)

	_, err = node.Execute(context.Background(), nil)
	assert.Error(t, err)
}

func TestGetHistoricalDataNode(t *testing.T) {
	node, err := NewGetHistoricalDataCreator(domain.NodeDeps{Broker: broker.NewSimulated()}).CreateNode(context.Background(), domain.CreateNodeParams{
		Config: map[string]any{"symbol": "EURUSD", "timeframe": "H1", "bars": 20.0},
	})
	require.NoError(t, err)

	output, err := node.Execute(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, "EURUSD", output["symbol"])
	assert.Equal(t, "H1", output["timeframe"])
	assert.Equal(t, 20, output["bars"])

	candles, ok := output["candles"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, candles, 20)

	for _, candle := range candles {
		high := candle["high"].(float64)
		low := candle["low"].(float64)
		assert.GreaterOrEqual(t, high, low)
	}
}

func TestGetHistoricalDataNodeSymbolFromInput(t *testing.T) {
	node, err := NewGetHistoricalDataCreator(domain.NodeDeps{Broker: broker.NewSimulated()}).CreateNode(context.Background(), domain.CreateNodeParams{
		Config: map[string]any{"bars": 5.0},
	})
	require.NoError(t, err)

	output, err := node.Execute(context.Background(), map[string]any{"symbol": "GBPUSD"})
	require.NoError(t, err)

	assert.Equal(t, "GBPUSD", output["symbol"])
	assert.Equal(t, 5, output["bars"])
}

func TestGetHistoricalDataNodeRejectsUnknownSymbol(t *testing.T) {
	node, err := NewGetHistoricalDataCreator(domain.NodeDeps{Broker: broker.NewSimulated()}).CreateNode(context.Background(), domain.CreateNodeParams{
		Config: map[string]any{"symbol": "NOPEUSD"},
	})
	require.NoError(t, err)

	_, err = node.Execute(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrSymbolNotFound)
}

func TestGetAccountInfoNode(t *testing.T) {
	node, err := NewGetAccountInfoCreator(domain.NodeDeps{Broker: broker.NewSimulated()}).CreateNode(context.Background(), domain.CreateNodeParams{})
	require.NoError(t, err)

	output, err := node.Execute(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 10000.0, output["balance"])
	assert.Equal(t, "USD", output["currency"])
}
