package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrSymbolNotFound   = errors.New("symbol not found")
	ErrPositionNotFound = errors.New("position not found")
)

// Tick is a live quote for one symbol.
type Tick struct {
	Symbol string
	Bid    float64
	Ask    float64
	Time   time.Time
}

// Candle is one OHLC bar, oldest-first in any series returned by the broker.
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

type AccountInfo struct {
	Balance   float64
	Equity    float64
	Margin    float64
	Currency  string
	Leverage  int
	DailyLoss float64
}

type Position struct {
	Ticket     int64
	Symbol     string
	Direction  OrderDirection
	Volume     float64
	OpenPrice  float64
	Profit     float64
	StopLoss   float64
	TakeProfit float64
	OpenedAt   time.Time
}

type OrderDirection string

const (
	OrderDirectionBuy  OrderDirection = "buy"
	OrderDirectionSell OrderDirection = "sell"
)

type OrderRequest struct {
	Symbol     string
	Direction  OrderDirection
	Volume     float64
	StopLoss   float64
	TakeProfit float64
	Comment    string
}

type OrderResult struct {
	Ticket    int64
	Symbol    string
	Direction OrderDirection
	Volume    float64
	Price     float64
	Simulated bool
}

// Broker is the market-data and order-routing collaborator. The trigger
// evaluator uses GetCurrentPrice; market-data, indicator, order and risk
// nodes use the rest. The orchestrator never calls order methods itself.
type Broker interface {
	GetCurrentPrice(ctx context.Context, symbol string) (Tick, error)
	GetCandles(ctx context.Context, symbol string, timeframe string, count int) ([]Candle, error)
	GetAccountInfo(ctx context.Context) (AccountInfo, error)
	GetOpenPositions(ctx context.Context) ([]Position, error)
	PlaceMarketOrder(ctx context.Context, req OrderRequest) (OrderResult, error)
	ClosePosition(ctx context.Context, ticket int64) (OrderResult, error)
}
