package model

import "errors"

// Error kinds, wrapped with context at the call site via fmt.Errorf("...: %w").
var (
	// ErrIncompleteAnalysis: the fusion engine received fewer than four
	// analyzer scores. Integration error, fatal to the symbol, not the run.
	ErrIncompleteAnalysis = errors.New("incomplete analysis")

	// ErrInsufficientHistory: an analyzer has fewer bars than its lookback.
	ErrInsufficientHistory = errors.New("insufficient history")

	// ErrDataUnavailable: the snapshot provider could not fetch data.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrConfigValidation: bad weights or constraints. Fatal at startup.
	ErrConfigValidation = errors.New("config validation")
)
