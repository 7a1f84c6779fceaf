package analyzer

import (
	"EtfSentry/internal/model"
)

// Analyzer produces a normalized AnalyzerScore from a market snapshot.
// Implementations are pure: deterministic for a fixed snapshot, no I/O.
type Analyzer interface {
	Kind() model.AnalyzerKind
	// MinLookback is the minimum number of daily bars the analyzer needs.
	// A shorter snapshot fails with model.ErrInsufficientHistory.
	MinLookback() int
	Score(snap *model.MarketSnapshot) (model.AnalyzerScore, error)
}

// DefaultSet returns the four analyzers in canonical kind order.
func DefaultSet() []Analyzer {
	return []Analyzer{
		NewStrength(),
		NewEmotion(),
		NewCapital(),
		NewHedge(),
	}
}

// clamp01 bounds a value to [0,1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
