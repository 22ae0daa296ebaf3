// Package marketdata provides the nodes that read live market state from the
// broker collaborator.
package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/tradeflow/tradeflow/internal/domain"
)

const (
	NodeTypeGetLivePrice      = "GetLivePrice"
	NodeTypeGetAccountInfo    = "GetAccountInfo"
	NodeTypeGetHistoricalData = "GetHistoricalData"
)

type GetLivePriceConfig struct {
	Symbol string `json:"symbol"`
}

type GetLivePriceNode struct {
	broker domain.Broker
	config GetLivePriceConfig
}

func NewGetLivePriceCreator(deps domain.NodeDeps) domain.NodeCreator {
	return domain.NodeCreatorFunc(func(ctx context.Context, params domain.CreateNodeParams) (domain.NodeExecutor, error) {
		var config GetLivePriceConfig
		if err := domain.BindConfig(params.Config, &config); err != nil {
			return nil, err
		}

		return &GetLivePriceNode{
			broker: deps.Broker,
			config: config,
		}, nil
	})
}

func (n *GetLivePriceNode) Execute(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	symbol := n.config.Symbol
	if symbol == "" {
		if fromInput, ok := inputs["symbol"].(string); ok {
			symbol = fromInput
		}
	}

	if symbol == "" {
		return nil, fmt.Errorf("symbol is not configured")
	}

	tick, err := n.broker.GetCurrentPrice(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to get price for %s: %w", symbol, err)
	}

	return map[string]any{
		"symbol": tick.Symbol,
		"bid":    tick.Bid,
		"ask":    tick.Ask,
		"time":   tick.Time.Format(time.RFC3339),
	}, nil
}

func (n *GetLivePriceNode) RequiredInputs() []string {
	return nil
}

func (n *GetLivePriceNode) Outputs() []string {
	return []string{"symbol", "bid", "ask", "time"}
}

type GetAccountInfoNode struct {
	broker domain.Broker
}

func NewGetAccountInfoCreator(deps domain.NodeDeps) domain.NodeCreator {
	return domain.NodeCreatorFunc(func(ctx context.Context, params domain.CreateNodeParams) (domain.NodeExecutor, error) {
		return &GetAccountInfoNode{broker: deps.Broker}, nil
	})
}

func (n *GetAccountInfoNode) Execute(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	account, err := n.broker.GetAccountInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get account info: %w", err)
	}

	return map[string]any{
		"balance":    account.Balance,
		"equity":     account.Equity,
		"margin":     account.Margin,
		"currency":   account.Currency,
		"leverage":   account.Leverage,
		"daily_loss": account.DailyLoss,
	}, nil
}

func (n *GetAccountInfoNode) RequiredInputs() []string {
	return nil
}

func (n *GetAccountInfoNode) Outputs() []string {
	return []string{"balance", "equity", "margin", "currency", "leverage", "daily_loss"}
}

type GetHistoricalDataConfig struct {
	Symbol    string `json:"symbol"`
	Timeframe string `json:"timeframe"`
	Bars      int    `json:"bars"`
}

// GetHistoricalDataNode returns an OHLC series for downstream indicator or
// AI nodes that want raw bars instead of a computed value.
type GetHistoricalDataNode struct {
	broker domain.Broker
	config GetHistoricalDataConfig
}

func NewGetHistoricalDataCreator(deps domain.NodeDeps) domain.NodeCreator {
	return domain.NodeCreatorFunc(func(ctx context.Context, params domain.CreateNodeParams) (domain.NodeExecutor, error) {
		var config GetHistoricalDataConfig
		if err := domain.BindConfig(params.Config, &config); err != nil {
			return nil, err
		}

		return &GetHistoricalDataNode{
			broker: deps.Broker,
			config: config,
		}, nil
	})
}

func (n *GetHistoricalDataNode) Execute(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	symbol := n.config.Symbol
	if symbol == "" {
		if fromInput, ok := inputs["symbol"].(string); ok {
			symbol = fromInput
		}
	}

	if symbol == "" {
		return nil, fmt.Errorf("symbol is not configured")
	}

	timeframe := n.config.Timeframe
	if timeframe == "" {
		timeframe = "H1"
	}

	bars := n.config.Bars
	if bars <= 0 {
		bars = 100
	}

	candles, err := n.broker.GetCandles(ctx, symbol, timeframe, bars)
	if err != nil {
		return nil, fmt.Errorf("failed to get candles for %s: %w", symbol, err)
	}

	series := make([]map[string]any, 0, len(candles))
	for _, candle := range candles {
		series = append(series, map[string]any{
			"time":   candle.Time.Format(time.RFC3339),
			"open":   candle.Open,
			"high":   candle.High,
			"low":    candle.Low,
			"close":  candle.Close,
			"volume": candle.Volume,
		})
	}

	return map[string]any{
		"symbol":    symbol,
		"timeframe": timeframe,
		"bars":      len(series),
		"candles":   series,
	}, nil
}

func (n *GetHistoricalDataNode) RequiredInputs() []string {
	return nil
}

func (n *GetHistoricalDataNode) Outputs() []string {
	return []string{"symbol", "timeframe", "bars", "candles"}
}
