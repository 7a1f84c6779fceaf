package model

import "time"

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// MarketSnapshot holds the bounded daily price history for one symbol.
// Bars are in ascending time order. A snapshot is immutable once fetched
// and is shared read-only between the analyzers of one evaluation.
type MarketSnapshot struct {
	Symbol    string
	Bars      []OHLCV
	FetchedAt time.Time
}

// LastClose returns the most recent closing price, or 0 for an empty snapshot.
func (s *MarketSnapshot) LastClose() float64 {
	if len(s.Bars) == 0 {
		return 0
	}
	return s.Bars[len(s.Bars)-1].Close
}
