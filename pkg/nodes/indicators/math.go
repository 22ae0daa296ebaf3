package indicators

import (
	"fmt"
	"math"

	"github.com/tradeflow/tradeflow/internal/domain"
)

// The computations below operate on candle series ordered oldest-first, as
// returned by the broker.

func closes(candles []domain.Candle) []float64 {
	values := make([]float64, len(candles))
	for i, candle := range candles {
		values[i] = candle.Close
	}

	return values
}

func sma(values []float64, period int) (float64, error) {
	if len(values) < period || period <= 0 {
		return 0, fmt.Errorf("need at least %d values, got %d", period, len(values))
	}

	sum := 0.0
	for _, value := range values[len(values)-period:] {
		sum += value
	}

	return sum / float64(period), nil
}

func ema(values []float64, period int) (float64, error) {
	if len(values) < period || period <= 0 {
		return 0, fmt.Errorf("need at least %d values, got %d", period, len(values))
	}

	// Seed with the SMA of the first period, then smooth forward.
	seed := 0.0
	for _, value := range values[:period] {
		seed += value
	}

	current := seed / float64(period)
	multiplier := 2.0 / float64(period+1)

	for _, value := range values[period:] {
		current = (value-current)*multiplier + current
	}

	return current, nil
}

// rsi uses Wilder's smoothing over the full series.
func rsi(values []float64, period int) (float64, error) {
	if len(values) < period+1 || period <= 0 {
		return 0, fmt.Errorf("need at least %d values, got %d", period+1, len(values))
	}

	avgGain := 0.0
	avgLoss := 0.0

	for i := 1; i <= period; i++ {
		change := values[i] - values[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}

	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(values); i++ {
		change := values[i] - values[i-1]

		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}

		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100, nil
	}

	rs := avgGain / avgLoss

	return 100 - 100/(1+rs), nil
}

func macd(values []float64, fastPeriod, slowPeriod, signalPeriod int) (macdLine, signalLine, histogram float64, err error) {
	if len(values) < slowPeriod+signalPeriod {
		return 0, 0, 0, fmt.Errorf("need at least %d values, got %d", slowPeriod+signalPeriod, len(values))
	}

	// The signal line is an EMA of the MACD series, so compute the MACD
	// value at each of the trailing signalPeriod points.
	macdSeries := make([]float64, 0, signalPeriod)

	for i := len(values) - signalPeriod; i <= len(values); i++ {
		if i < slowPeriod {
			continue
		}

		fast, err := ema(values[:i], fastPeriod)
		if err != nil {
			return 0, 0, 0, err
		}

		slow, err := ema(values[:i], slowPeriod)
		if err != nil {
			return 0, 0, 0, err
		}

		macdSeries = append(macdSeries, fast-slow)
	}

	macdLine = macdSeries[len(macdSeries)-1]

	signalLine = macdSeries[0]
	multiplier := 2.0 / float64(signalPeriod+1)
	for _, value := range macdSeries[1:] {
		signalLine = (value-signalLine)*multiplier + signalLine
	}

	return macdLine, signalLine, macdLine - signalLine, nil
}

func bollinger(values []float64, period int, deviations float64) (upper, middle, lower float64, err error) {
	middle, err = sma(values, period)
	if err != nil {
		return 0, 0, 0, err
	}

	variance := 0.0
	for _, value := range values[len(values)-period:] {
		diff := value - middle
		variance += diff * diff
	}

	stdDev := math.Sqrt(variance / float64(period))

	return middle + deviations*stdDev, middle, middle - deviations*stdDev, nil
}

func atr(candles []domain.Candle, period int) (float64, error) {
	if len(candles) < period+1 || period <= 0 {
		return 0, fmt.Errorf("need at least %d candles, got %d", period+1, len(candles))
	}

	trueRanges := make([]float64, 0, len(candles)-1)

	for i := 1; i < len(candles); i++ {
		highLow := candles[i].High - candles[i].Low
		highClose := math.Abs(candles[i].High - candles[i-1].Close)
		lowClose := math.Abs(candles[i].Low - candles[i-1].Close)

		trueRanges = append(trueRanges, math.Max(highLow, math.Max(highClose, lowClose)))
	}

	// Wilder smoothing, seeded with the simple average of the first period.
	current := 0.0
	for _, tr := range trueRanges[:period] {
		current += tr
	}
	current /= float64(period)

	for _, tr := range trueRanges[period:] {
		current = (current*float64(period-1) + tr) / float64(period)
	}

	return current, nil
}
