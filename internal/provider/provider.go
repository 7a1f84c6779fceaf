package provider

import (
	"context"

	"EtfSentry/internal/model"
)

// Provider supplies the bounded daily price history for one symbol.
// Implementations must honor ctx cancellation and wrap any source failure
// with model.ErrDataUnavailable so callers can distinguish retryable fetch
// trouble from everything else.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, symbol string, lookbackBars int) (*model.MarketSnapshot, error)
}
