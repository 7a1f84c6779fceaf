package calculator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EtfSentry/internal/model"
)

func bars(closes ...float64) []model.OHLCV {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) // Monday
	out := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		out[i] = model.OHLCV{Time: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1000}
	}
	return out
}

func TestSMA(t *testing.T) {
	v, err := SMA([]float64{1, 2, 3, 4, 5}, 3)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, v, 1e-9)

	_, err = SMA([]float64{1, 2}, 3)
	assert.Error(t, err)
}

func TestRSIExtremes(t *testing.T) {
	up := bars(1, 2, 3, 4, 5, 6, 7, 8, 9, 10)
	v, err := RSI(up, 6)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, v, 1e-9, "only gains")

	down := bars(10, 9, 8, 7, 6, 5, 4, 3, 2, 1)
	v, err = RSI(down, 6)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, v, 1e-9, "only losses")

	v, err = RSI(bars(1, 2), 6)
	require.NoError(t, err)
	assert.Equal(t, 50.0, v, "insufficient data defaults to midpoint")
}

func TestAggregateWeekly(t *testing.T) {
	// Fourteen consecutive days spanning two ISO weeks.
	daily := bars(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14)
	weekly := AggregateWeekly(daily)
	require.Len(t, weekly, 2)

	assert.Equal(t, 1.0, weekly[0].Open)
	assert.Equal(t, 7.0, weekly[0].Close)
	assert.Equal(t, 7.0, weekly[0].High)
	assert.Equal(t, 1.0, weekly[0].Low)
	assert.Equal(t, 7000.0, weekly[0].Volume)

	assert.Equal(t, 8.0, weekly[1].Open)
	assert.Equal(t, 14.0, weekly[1].Close)
}

func TestMomentum(t *testing.T) {
	series := bars(10, 10, 10, 10, 11)
	assert.InDelta(t, 0.10, Momentum(series, 4), 1e-9)
	assert.Zero(t, Momentum(series, 10), "too short")
}

func TestDrawdown(t *testing.T) {
	assert.InDelta(t, 0.25, Drawdown(bars(8, 10, 9, 7.5)), 1e-9)
	assert.Zero(t, Drawdown(bars(5, 6, 7)), "at the high")
}

func TestPricePosition(t *testing.T) {
	assert.InDelta(t, 0.5, PricePosition(bars(4, 4, 4)), 1e-9, "flat series")
	assert.InDelta(t, 1.0, PricePosition(bars(1, 2, 3)), 1e-9)
	assert.InDelta(t, 0.0, PricePosition(bars(3, 2, 1)), 1e-9)
}

func TestBollingerPositionFlatBand(t *testing.T) {
	v, err := BollingerPosition(bars(4, 4, 4, 4, 4), 5)
	require.NoError(t, err)
	assert.Equal(t, 0.5, v, "zero-width band centers")

	_, err = BollingerPosition(bars(4, 4), 5)
	assert.Error(t, err)
}

func TestPctChangesInPercent(t *testing.T) {
	changes := PctChanges(bars(100, 101, 99.99))
	require.Len(t, changes, 3)
	assert.Zero(t, changes[0])
	assert.InDelta(t, 1.0, changes[1], 1e-9)
	assert.InDelta(t, -1.0, changes[2], 1e-6)
}
