package indicators

import (
	"context"
	"fmt"
	"strings"

	"github.com/tradeflow/tradeflow/internal/domain"
)

// Source computes live indicator values for the indicator trigger. It
// satisfies the scheduler's IndicatorSource interface.
type Source struct {
	broker domain.Broker
}

func NewSource(broker domain.Broker) *Source {
	return &Source{broker: broker}
}

func (s *Source) GetIndicatorValue(ctx context.Context, symbol string, indicator string, period int, timeframe string) (float64, error) {
	candles, err := s.broker.GetCandles(ctx, symbol, timeframe, (period+1)*candleHeadroom)
	if err != nil {
		return 0, fmt.Errorf("failed to get candles for %s: %w", symbol, err)
	}

	switch strings.ToLower(indicator) {
	case "rsi":
		return rsi(closes(candles), period)
	case "sma":
		return sma(closes(candles), period)
	case "ema":
		return ema(closes(candles), period)
	case "atr":
		return atr(candles, period)
	default:
		return 0, fmt.Errorf("unsupported trigger indicator: %q", indicator)
	}
}
