package indicators

import (
	"testing"
	"time"

	"github.com/tradeflow/tradeflow/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constantCandles(n int, price float64) []domain.Candle {
	candles := make([]domain.Candle, n)
	for i := range candles {
		candles[i] = domain.Candle{
			Time:  time.Now().Add(time.Duration(i-n) * time.Hour),
			Open:  price,
			High:  price + 0.5,
			Low:   price - 0.5,
			Close: price,
		}
	}

	return candles
}

func TestSMA(t *testing.T) {
	value, err := sma([]float64{1, 2, 3, 4, 5}, 5)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, value, 1e-9)

	// Only the trailing window counts.
	value, err = sma([]float64{100, 100, 4, 5}, 2)
	require.NoError(t, err)
	assert.InDelta(t, 4.5, value, 1e-9)
}

func TestSMAInsufficientData(t *testing.T) {
	_, err := sma([]float64{1, 2}, 5)
	assert.Error(t, err)

	_, err = sma([]float64{1, 2}, 0)
	assert.Error(t, err)
}

func TestEMA(t *testing.T) {
	// A constant series has a constant EMA regardless of period.
	constant := make([]float64, 50)
	for i := range constant {
		constant[i] = 1.25
	}

	value, err := ema(constant, 10)
	require.NoError(t, err)
	assert.InDelta(t, 1.25, value, 1e-9)

	// A rising series pulls the EMA above the SMA of the same window.
	rising := make([]float64, 50)
	for i := range rising {
		rising[i] = float64(i)
	}

	emaValue, err := ema(rising, 10)
	require.NoError(t, err)

	smaValue, err := sma(rising, 10)
	require.NoError(t, err)

	assert.Greater(t, emaValue, smaValue-5)
	assert.LessOrEqual(t, emaValue, rising[len(rising)-1])
}

func TestRSI(t *testing.T) {
	t.Run("all gains saturates at 100", func(t *testing.T) {
		rising := make([]float64, 30)
		for i := range rising {
			rising[i] = float64(i)
		}

		value, err := rsi(rising, 14)
		require.NoError(t, err)
		assert.InDelta(t, 100.0, value, 1e-9)
	})

	t.Run("all losses saturates at 0", func(t *testing.T) {
		falling := make([]float64, 30)
		for i := range falling {
			falling[i] = float64(30 - i)
		}

		value, err := rsi(falling, 14)
		require.NoError(t, err)
		assert.InDelta(t, 0.0, value, 1e-9)
	})

	t.Run("alternating series stays inside the band", func(t *testing.T) {
		alternating := make([]float64, 60)
		for i := range alternating {
			alternating[i] = 100
			if i%2 == 0 {
				alternating[i] = 101
			}
		}

		value, err := rsi(alternating, 14)
		require.NoError(t, err)
		assert.Greater(t, value, 0.0)
		assert.Less(t, value, 100.0)
	})

	t.Run("insufficient data", func(t *testing.T) {
		_, err := rsi([]float64{1, 2, 3}, 14)
		assert.Error(t, err)
	})
}

func TestMACDConstantSeriesIsFlat(t *testing.T) {
	constant := make([]float64, 120)
	for i := range constant {
		constant[i] = 1.1
	}

	macdLine, signalLine, histogram, err := macd(constant, 12, 26, 9)
	require.NoError(t, err)

	assert.InDelta(t, 0.0, macdLine, 1e-9)
	assert.InDelta(t, 0.0, signalLine, 1e-9)
	assert.InDelta(t, 0.0, histogram, 1e-9)
}

func TestMACDInsufficientData(t *testing.T) {
	_, _, _, err := macd([]float64{1, 2, 3}, 12, 26, 9)
	assert.Error(t, err)
}

func TestBollinger(t *testing.T) {
	t.Run("constant series collapses the bands", func(t *testing.T) {
		constant := make([]float64, 25)
		for i := range constant {
			constant[i] = 2.0
		}

		upper, middle, lower, err := bollinger(constant, 20, 2)
		require.NoError(t, err)

		assert.InDelta(t, 2.0, upper, 1e-9)
		assert.InDelta(t, 2.0, middle, 1e-9)
		assert.InDelta(t, 2.0, lower, 1e-9)
	})

	t.Run("bands bracket the mean", func(t *testing.T) {
		values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

		upper, middle, lower, err := bollinger(values, 10, 2)
		require.NoError(t, err)

		assert.InDelta(t, 5.5, middle, 1e-9)
		assert.Greater(t, upper, middle)
		assert.Less(t, lower, middle)
		assert.InDelta(t, middle-lower, upper-middle, 1e-9)
	})
}

func TestATR(t *testing.T) {
	t.Run("constant range", func(t *testing.T) {
		value, err := atr(constantCandles(30, 1.10), 14)
		require.NoError(t, err)

		// Every candle spans exactly one unit of range.
		assert.InDelta(t, 1.0, value, 1e-9)
	})

	t.Run("insufficient data", func(t *testing.T) {
		_, err := atr(constantCandles(5, 1.10), 14)
		assert.Error(t, err)
	})
}
