// Package orders provides the order-placement nodes. In test mode they never
// reach the broker: the effect is simulated with a fixed synthetic ticket so
// workflows can be exercised end to end without trading.
package orders

import (
	"context"
	"fmt"

	"github.com/tradeflow/tradeflow/internal/domain"
)

const (
	NodeTypeMarketOrder   = "MarketOrder"
	NodeTypeClosePosition = "ClosePosition"

	// SyntheticTicket is the fixed ticket returned for simulated orders.
	SyntheticTicket int64 = 900000
)

type MarketOrderConfig struct {
	Symbol     string  `json:"symbol"`
	Direction  string  `json:"direction"`
	Volume     float64 `json:"volume"`
	StopLoss   float64 `json:"stop_loss"`
	TakeProfit float64 `json:"take_profit"`
	Comment    string  `json:"comment"`
}

type MarketOrderNode struct {
	broker   domain.Broker
	config   MarketOrderConfig
	testMode bool
}

func NewMarketOrderCreator(deps domain.NodeDeps) domain.NodeCreator {
	return domain.NodeCreatorFunc(func(ctx context.Context, params domain.CreateNodeParams) (domain.NodeExecutor, error) {
		var config MarketOrderConfig
		if err := domain.BindConfig(params.Config, &config); err != nil {
			return nil, err
		}

		return &MarketOrderNode{
			broker:   deps.Broker,
			config:   config,
			testMode: params.Context.TestMode,
		}, nil
	})
}

func (n *MarketOrderNode) Execute(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	if n.config.Symbol == "" {
		return nil, fmt.Errorf("symbol is not configured")
	}

	direction := domain.OrderDirection(n.config.Direction)
	if direction != domain.OrderDirectionBuy && direction != domain.OrderDirectionSell {
		return nil, fmt.Errorf("invalid order direction: %q", n.config.Direction)
	}

	volume := n.config.Volume
	if fromInput, ok := inputs["volume"].(float64); ok && fromInput > 0 {
		volume = fromInput
	}

	if volume <= 0 {
		return nil, fmt.Errorf("order volume must be positive, got %v", volume)
	}

	if n.testMode {
		price := 0.0
		if tick, err := n.broker.GetCurrentPrice(ctx, n.config.Symbol); err == nil {
			price = tick.Bid
		}

		return map[string]any{
			"ticket":    SyntheticTicket,
			"symbol":    n.config.Symbol,
			"direction": string(direction),
			"volume":    volume,
			"price":     price,
			"simulated": true,
		}, nil
	}

	result, err := n.broker.PlaceMarketOrder(ctx, domain.OrderRequest{
		Symbol:     n.config.Symbol,
		Direction:  direction,
		Volume:     volume,
		StopLoss:   n.config.StopLoss,
		TakeProfit: n.config.TakeProfit,
		Comment:    n.config.Comment,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	return map[string]any{
		"ticket":    result.Ticket,
		"symbol":    result.Symbol,
		"direction": string(result.Direction),
		"volume":    result.Volume,
		"price":     result.Price,
		"simulated": result.Simulated,
	}, nil
}

func (n *MarketOrderNode) RequiredInputs() []string {
	return nil
}

func (n *MarketOrderNode) Outputs() []string {
	return []string{"ticket", "symbol", "direction", "volume", "price", "simulated"}
}

type ClosePositionConfig struct {
	Ticket int64 `json:"ticket"`
}

type ClosePositionNode struct {
	broker   domain.Broker
	config   ClosePositionConfig
	testMode bool
}

func NewClosePositionCreator(deps domain.NodeDeps) domain.NodeCreator {
	return domain.NodeCreatorFunc(func(ctx context.Context, params domain.CreateNodeParams) (domain.NodeExecutor, error) {
		var config ClosePositionConfig
		if err := domain.BindConfig(params.Config, &config); err != nil {
			return nil, err
		}

		return &ClosePositionNode{
			broker:   deps.Broker,
			config:   config,
			testMode: params.Context.TestMode,
		}, nil
	})
}

func (n *ClosePositionNode) Execute(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	ticket := n.config.Ticket
	if fromInput, ok := inputs["ticket"].(float64); ok && ticket == 0 {
		ticket = int64(fromInput)
	}

	if ticket == 0 {
		return nil, fmt.Errorf("ticket is not configured")
	}

	if n.testMode {
		return map[string]any{
			"ticket":    ticket,
			"closed":    true,
			"simulated": true,
		}, nil
	}

	result, err := n.broker.ClosePosition(ctx, ticket)
	if err != nil {
		return nil, fmt.Errorf("failed to close position %d: %w", ticket, err)
	}

	return map[string]any{
		"ticket":    result.Ticket,
		"closed":    true,
		"price":     result.Price,
		"simulated": result.Simulated,
	}, nil
}

func (n *ClosePositionNode) RequiredInputs() []string {
	return []string{"ticket"}
}

func (n *ClosePositionNode) Outputs() []string {
	return []string{"ticket", "closed", "price", "simulated"}
}
