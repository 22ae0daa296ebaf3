// Package indicators provides the technical-indicator nodes and the live
// indicator source used by the indicator trigger. Candles come from the
// broker collaborator; the math stays in this package.
package indicators

import (
	"context"
	"fmt"
	"strings"

	"github.com/tradeflow/tradeflow/internal/domain"
)

const (
	NodeTypeRSI            = "RSI"
	NodeTypeMACD           = "MACD"
	NodeTypeMovingAverage  = "MovingAverage"
	NodeTypeBollingerBands = "BollingerBands"
	NodeTypeATR            = "ATR"

	defaultTimeframe = "H1"
	// candleHeadroom is fetched beyond the period so smoothed indicators
	// have history to converge over.
	candleHeadroom = 3
)

type Config struct {
	Symbol    string `json:"symbol"`
	Period    int    `json:"period"`
	Timeframe string `json:"timeframe"`

	// MovingAverage only.
	Method string `json:"method"`

	// MACD only.
	FastPeriod   int `json:"fast_period"`
	SlowPeriod   int `json:"slow_period"`
	SignalPeriod int `json:"signal_period"`

	// BollingerBands only.
	Deviations float64 `json:"deviations"`
}

func (c *Config) applyDefaults(defaultPeriod int) {
	if c.Period <= 0 {
		c.Period = defaultPeriod
	}

	if c.Timeframe == "" {
		c.Timeframe = defaultTimeframe
	}
}

type node struct {
	broker    domain.Broker
	config    Config
	kind      string
	outputs   []string
	compute   func(candles []domain.Candle, config Config) (map[string]any, error)
	minimum   func(config Config) int
	symbolReq bool
}

func (n *node) Execute(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	symbol := n.config.Symbol
	if symbol == "" {
		if fromInput, ok := inputs["symbol"].(string); ok {
			symbol = fromInput
		}
	}

	if symbol == "" {
		return nil, fmt.Errorf("symbol is not configured")
	}

	count := n.minimum(n.config) * candleHeadroom

	candles, err := n.broker.GetCandles(ctx, symbol, n.config.Timeframe, count)
	if err != nil {
		return nil, fmt.Errorf("failed to get candles for %s: %w", symbol, err)
	}

	output, err := n.compute(candles, n.config)
	if err != nil {
		return nil, fmt.Errorf("failed to compute %s: %w", n.kind, err)
	}

	output["symbol"] = symbol
	output["period"] = n.config.Period
	output["timeframe"] = n.config.Timeframe

	return output, nil
}

func (n *node) RequiredInputs() []string {
	return nil
}

func (n *node) Outputs() []string {
	return n.outputs
}

func newCreator(deps domain.NodeDeps, kind string, defaultPeriod int, outputs []string, minimum func(Config) int, compute func([]domain.Candle, Config) (map[string]any, error)) domain.NodeCreator {
	return domain.NodeCreatorFunc(func(ctx context.Context, params domain.CreateNodeParams) (domain.NodeExecutor, error) {
		var config Config
		if err := domain.BindConfig(params.Config, &config); err != nil {
			return nil, err
		}

		config.applyDefaults(defaultPeriod)

		return &node{
			broker:  deps.Broker,
			config:  config,
			kind:    kind,
			outputs: outputs,
			minimum: minimum,
			compute: compute,
		}, nil
	})
}

func NewRSICreator(deps domain.NodeDeps) domain.NodeCreator {
	return newCreator(deps, NodeTypeRSI, 14,
		[]string{"value", "symbol", "period", "timeframe"},
		func(c Config) int { return c.Period + 1 },
		func(candles []domain.Candle, c Config) (map[string]any, error) {
			value, err := rsi(closes(candles), c.Period)
			if err != nil {
				return nil, err
			}

			return map[string]any{"value": value}, nil
		})
}

func NewMACDCreator(deps domain.NodeDeps) domain.NodeCreator {
	return newCreator(deps, NodeTypeMACD, 26,
		[]string{"macd", "signal", "histogram", "symbol", "period", "timeframe"},
		func(c Config) int {
			slow := c.SlowPeriod
			if slow <= 0 {
				slow = 26
			}

			signal := c.SignalPeriod
			if signal <= 0 {
				signal = 9
			}

			return slow + signal
		},
		func(candles []domain.Candle, c Config) (map[string]any, error) {
			fast, slow, signal := c.FastPeriod, c.SlowPeriod, c.SignalPeriod
			if fast <= 0 {
				fast = 12
			}
			if slow <= 0 {
				slow = 26
			}
			if signal <= 0 {
				signal = 9
			}

			macdLine, signalLine, histogram, err := macd(closes(candles), fast, slow, signal)
			if err != nil {
				return nil, err
			}

			return map[string]any{
				"macd":      macdLine,
				"signal":    signalLine,
				"histogram": histogram,
			}, nil
		})
}

func NewMovingAverageCreator(deps domain.NodeDeps) domain.NodeCreator {
	return newCreator(deps, NodeTypeMovingAverage, 20,
		[]string{"value", "method", "symbol", "period", "timeframe"},
		func(c Config) int { return c.Period },
		func(candles []domain.Candle, c Config) (map[string]any, error) {
			method := strings.ToLower(c.Method)
			if method == "" {
				method = "sma"
			}

			var value float64
			var err error

			switch method {
			case "sma":
				value, err = sma(closes(candles), c.Period)
			case "ema":
				value, err = ema(closes(candles), c.Period)
			default:
				return nil, fmt.Errorf("unsupported moving average method: %q", c.Method)
			}

			if err != nil {
				return nil, err
			}

			return map[string]any{"value": value, "method": method}, nil
		})
}

func NewBollingerBandsCreator(deps domain.NodeDeps) domain.NodeCreator {
	return newCreator(deps, NodeTypeBollingerBands, 20,
		[]string{"upper", "middle", "lower", "symbol", "period", "timeframe"},
		func(c Config) int { return c.Period },
		func(candles []domain.Candle, c Config) (map[string]any, error) {
			deviations := c.Deviations
			if deviations <= 0 {
				deviations = 2
			}

			upper, middle, lower, err := bollinger(closes(candles), c.Period, deviations)
			if err != nil {
				return nil, err
			}

			return map[string]any{
				"upper":  upper,
				"middle": middle,
				"lower":  lower,
			}, nil
		})
}

func NewATRCreator(deps domain.NodeDeps) domain.NodeCreator {
	return newCreator(deps, NodeTypeATR, 14,
		[]string{"value", "symbol", "period", "timeframe"},
		func(c Config) int { return c.Period + 1 },
		func(candles []domain.Candle, c Config) (map[string]any, error) {
			value, err := atr(candles, c.Period)
			if err != nil {
				return nil, err
			}

			return map[string]any{"value": value}, nil
		})
}
