package provider

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"EtfSentry/internal/model"
)

// Mock generates a deterministic synthetic price history per symbol:
// a seeded random walk riding a slow sinusoidal sentiment cycle. The same
// symbol always yields the same series, which keeps offline runs and tests
// reproducible.
type Mock struct {
	// Fail lists symbols whose fetch always fails with ErrDataUnavailable.
	Fail map[string]bool
}

func NewMock() *Mock { return &Mock{} }

func (m *Mock) Name() string { return "mock" }

func (m *Mock) Fetch(ctx context.Context, symbol string, lookbackBars int) (*model.MarketSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("mock %s: %w: %v", symbol, model.ErrDataUnavailable, err)
	}
	if m.Fail[symbol] {
		return nil, fmt.Errorf("mock %s: simulated outage: %w", symbol, model.ErrDataUnavailable)
	}

	h := fnv.New64a()
	h.Write([]byte(symbol))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	base := 1.0 + rng.Float64()*9.0 // opening price in [1,10)
	cycleLen := 60 + rng.Intn(120)  // sentiment cycle of 60~180 trading days
	phase := rng.Float64() * 2 * math.Pi
	drift := (rng.Float64() - 0.5) * 0.001

	// Bars end on a fixed anchor date so the series is stable across runs.
	anchor := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	start := anchor.AddDate(0, 0, -lookbackBars+1)

	bars := make([]model.OHLCV, 0, lookbackBars)
	price := base
	for i := 0; i < lookbackBars; i++ {
		cycle := math.Sin(phase + 2*math.Pi*float64(i)/float64(cycleLen))
		change := drift + cycle*0.004 + rng.NormFloat64()*0.01
		price *= 1 + change
		if price < 0.1 {
			price = 0.1
		}

		// Volume swells with the cycle's enthusiasm.
		volume := 1e6 * (1 + 0.5*cycle + 0.2*rng.Float64())
		if volume < 1e5 {
			volume = 1e5
		}

		span := price * 0.01 * (0.5 + rng.Float64())
		bars = append(bars, model.OHLCV{
			Time:   start.AddDate(0, 0, i),
			Open:   price * (1 - change/2),
			High:   price + span,
			Low:    price - span,
			Close:  price,
			Volume: volume,
		})
	}

	return &model.MarketSnapshot{Symbol: symbol, Bars: bars, FetchedAt: time.Now()}, nil
}
