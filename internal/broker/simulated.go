// Package broker provides a deterministic simulated implementation of the
// broker collaborator. It backs tests and local runs; a real terminal
// integration plugs in behind the same interface.
package broker

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/tradeflow/tradeflow/internal/domain"
)

type Simulated struct {
	mu         sync.Mutex
	prices     map[string]float64
	positions  map[int64]domain.Position
	account    domain.AccountInfo
	nextTicket int64
}

func NewSimulated() *Simulated {
	return &Simulated{
		prices: map[string]float64{
			"EURUSD": 1.0850,
			"GBPUSD": 1.2700,
			"USDJPY": 149.50,
			"XAUUSD": 2350.0,
		},
		positions: map[int64]domain.Position{},
		account: domain.AccountInfo{
			Balance:  10000,
			Equity:   10000,
			Currency: "USD",
			Leverage: 100,
		},
		nextTicket: 100001,
	}
}

// SetPrice pins a symbol's quote, mainly for tests driving price triggers.
func (s *Simulated) SetPrice(symbol string, bid float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prices[symbol] = bid
}

func (s *Simulated) GetCurrentPrice(ctx context.Context, symbol string) (domain.Tick, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bid, ok := s.prices[symbol]
	if !ok {
		return domain.Tick{}, fmt.Errorf("%w: %s", domain.ErrSymbolNotFound, symbol)
	}

	return domain.Tick{
		Symbol: symbol,
		Bid:    bid,
		Ask:    bid + bid*0.0001,
		Time:   time.Now(),
	}, nil
}

// GetCandles synthesizes a deterministic sine-wave series around the current
// quote so indicator math has stable, repeatable input.
func (s *Simulated) GetCandles(ctx context.Context, symbol string, timeframe string, count int) ([]domain.Candle, error) {
	s.mu.Lock()
	base, ok := s.prices[symbol]
	s.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSymbolNotFound, symbol)
	}

	if count <= 0 {
		count = 100
	}

	step, err := timeframeDuration(timeframe)
	if err != nil {
		return nil, err
	}

	now := time.Now().Truncate(step)
	candles := make([]domain.Candle, count)

	for i := 0; i < count; i++ {
		phase := float64(count-i) * 0.35
		center := base * (1 + 0.002*math.Sin(phase))
		spread := base * 0.0005

		candles[i] = domain.Candle{
			Time:   now.Add(-time.Duration(count-i) * step),
			Open:   center - spread/2,
			High:   center + spread,
			Low:    center - spread,
			Close:  center + spread/2,
			Volume: 1000,
		}
	}

	return candles, nil
}

func (s *Simulated) GetAccountInfo(ctx context.Context) (domain.AccountInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.account, nil
}

func (s *Simulated) GetOpenPositions(ctx context.Context) ([]domain.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	positions := make([]domain.Position, 0, len(s.positions))
	for _, position := range s.positions {
		positions = append(positions, position)
	}

	return positions, nil
}

func (s *Simulated) PlaceMarketOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bid, ok := s.prices[req.Symbol]
	if !ok {
		return domain.OrderResult{}, fmt.Errorf("%w: %s", domain.ErrSymbolNotFound, req.Symbol)
	}

	ticket := s.nextTicket
	s.nextTicket++

	s.positions[ticket] = domain.Position{
		Ticket:     ticket,
		Symbol:     req.Symbol,
		Direction:  req.Direction,
		Volume:     req.Volume,
		OpenPrice:  bid,
		StopLoss:   req.StopLoss,
		TakeProfit: req.TakeProfit,
		OpenedAt:   time.Now(),
	}

	return domain.OrderResult{
		Ticket:    ticket,
		Symbol:    req.Symbol,
		Direction: req.Direction,
		Volume:    req.Volume,
		Price:     bid,
		Simulated: true,
	}, nil
}

func (s *Simulated) ClosePosition(ctx context.Context, ticket int64) (domain.OrderResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	position, ok := s.positions[ticket]
	if !ok {
		return domain.OrderResult{}, fmt.Errorf("%w: ticket %d", domain.ErrPositionNotFound, ticket)
	}

	delete(s.positions, ticket)

	return domain.OrderResult{
		Ticket:    ticket,
		Symbol:    position.Symbol,
		Direction: position.Direction,
		Volume:    position.Volume,
		Price:     s.prices[position.Symbol],
		Simulated: true,
	}, nil
}

func timeframeDuration(timeframe string) (time.Duration, error) {
	switch timeframe {
	case "M1":
		return time.Minute, nil
	case "M5":
		return 5 * time.Minute, nil
	case "M15":
		return 15 * time.Minute, nil
	case "H1", "":
		return time.Hour, nil
	case "H4":
		return 4 * time.Hour, nil
	case "D1":
		return 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unsupported timeframe: %q", timeframe)
	}
}
