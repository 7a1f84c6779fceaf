package calculator

import (
	"math"

	"EtfSentry/internal/model"
)

// Closes extracts the closing prices from a bar series.
func Closes(bars []model.OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

// PctChanges returns period-over-period close changes in percent.
// The first element is 0 (no prior bar).
func PctChanges(bars []model.OHLCV) []float64 {
	changes := make([]float64, len(bars))
	for i := 1; i < len(bars); i++ {
		prev := bars[i-1].Close
		if prev != 0 {
			changes[i] = (bars[i].Close/prev - 1) * 100
		}
	}
	return changes
}

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// StdDev returns the population standard deviation, or 0 for fewer than 2 values.
func StdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := Mean(xs)
	sum := 0.0
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)))
}

// AggregateWeekly converts daily bars into ISO-week bars: first open, max
// high, min low, last close, summed volume.
func AggregateWeekly(daily []model.OHLCV) []model.OHLCV {
	if len(daily) == 0 {
		return nil
	}
	var weekly []model.OHLCV
	var week model.OHLCV
	var weekStarted bool

	for _, d := range daily {
		year, isoWeek := d.Time.ISOWeek()
		weekKey := year*100 + isoWeek

		if !weekStarted {
			week = model.OHLCV{Time: d.Time, Open: d.Open, High: d.High, Low: d.Low, Close: d.Close, Volume: d.Volume}
			weekStarted = true
			continue
		}

		cy, cw := week.Time.ISOWeek()
		currentKey := cy*100 + cw

		if weekKey != currentKey {
			weekly = append(weekly, week)
			week = model.OHLCV{Time: d.Time, Open: d.Open, High: d.High, Low: d.Low, Close: d.Close, Volume: d.Volume}
		} else {
			if d.High > week.High {
				week.High = d.High
			}
			if d.Low < week.Low {
				week.Low = d.Low
			}
			week.Close = d.Close
			week.Volume += d.Volume
		}
	}
	if weekStarted {
		weekly = append(weekly, week)
	}
	return weekly
}

// PricePosition returns where the last close sits within the series'
// close range (0.0~1.0). Returns 0.5 for a flat series.
func PricePosition(bars []model.OHLCV) float64 {
	if len(bars) == 0 {
		return 0.5
	}
	low := math.Inf(1)
	high := math.Inf(-1)
	for _, b := range bars {
		if b.Close < low {
			low = b.Close
		}
		if b.Close > high {
			high = b.Close
		}
	}
	if high == low {
		return 0.5
	}
	return (bars[len(bars)-1].Close - low) / (high - low)
}

// Momentum returns the fractional close change over the given period,
// e.g. 0.05 for +5%. Returns 0 when the series is too short.
func Momentum(bars []model.OHLCV, period int) float64 {
	if len(bars) <= period || period <= 0 {
		return 0
	}
	base := bars[len(bars)-1-period].Close
	if base == 0 {
		return 0
	}
	return bars[len(bars)-1].Close/base - 1
}

// Drawdown returns the fractional decline of the last close from the
// series' highest close, as a non-negative number.
func Drawdown(bars []model.OHLCV) float64 {
	if len(bars) == 0 {
		return 0
	}
	high := math.Inf(-1)
	for _, b := range bars {
		if b.Close > high {
			high = b.Close
		}
	}
	if high <= 0 {
		return 0
	}
	dd := 1 - bars[len(bars)-1].Close/high
	if dd < 0 {
		dd = 0
	}
	return dd
}
