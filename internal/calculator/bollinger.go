package calculator

import (
	"errors"

	"EtfSentry/internal/model"
)

// BollingerPosition returns where the last close sits within the Bollinger
// band (mid ± 2σ over `period` closes): 0.0 at the lower band, 1.0 at the
// upper band. Values outside the band are clamped to [0,1].
func BollingerPosition(bars []model.OHLCV, period int) (float64, error) {
	if len(bars) < period {
		return 0, errors.New("not enough data for Bollinger calculation")
	}
	window := Closes(bars[len(bars)-period:])
	mid := Mean(window)
	sd := StdDev(window)
	if sd == 0 {
		return 0.5, nil
	}
	upper := mid + 2*sd
	lower := mid - 2*sd
	pos := (bars[len(bars)-1].Close - lower) / (upper - lower)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos, nil
}
