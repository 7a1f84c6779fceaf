package calculator

import "EtfSentry/internal/model"

// MACDHistogram returns the MACD histogram series (DIF - DEA) for the
// given fast/slow/signal spans. Weekly analysis uses 6/13/4, daily 12/26/9.
func MACDHistogram(bars []model.OHLCV, fast, slow, signal int) []float64 {
	closes := Closes(bars)
	if len(closes) == 0 {
		return nil
	}
	emaFast := EMASeries(closes, fast)
	emaSlow := EMASeries(closes, slow)

	dif := make([]float64, len(closes))
	for i := range closes {
		dif[i] = emaFast[i] - emaSlow[i]
	}
	dea := EMASeries(dif, signal)

	hist := make([]float64, len(closes))
	for i := range closes {
		hist[i] = dif[i] - dea[i]
	}
	return hist
}
