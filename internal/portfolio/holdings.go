package portfolio

import (
	"encoding/json"
	"fmt"
	"os"
)

// Holdings maps symbol to the held fraction of total capital. It is a
// read-only input to an evaluation run; the program never writes it back.
type Holdings map[string]float64

// LoadHoldings reads a holdings snapshot from a JSON file. A missing path
// (or empty string) means an all-cash portfolio.
func LoadHoldings(path string) (Holdings, error) {
	if path == "" {
		return Holdings{}, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Holdings{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read holdings: %w", err)
	}

	var h Holdings
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("parse holdings: %w", err)
	}
	for symbol, frac := range h {
		if frac < 0 || frac > 1 {
			return nil, fmt.Errorf("holdings %s: fraction %.3f out of [0,1]", symbol, frac)
		}
	}
	return h, nil
}

// Of returns the held fraction for a symbol, 0 if absent.
func (h Holdings) Of(symbol string) float64 { return h[symbol] }

// TotalExposure returns the summed held fractions.
func (h Holdings) TotalExposure() float64 {
	total := 0.0
	for _, frac := range h {
		total += frac
	}
	return total
}
