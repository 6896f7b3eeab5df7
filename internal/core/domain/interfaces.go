package domain

import (
	"context"
	"time"
)

// ChainAnalyzer produces a per-address analysis for one chain.
type ChainAnalyzer interface {
	// Chain reports which chain this analyzer serves.
	Chain() Chain

	// Analyze fetches history and balance for the address and computes the
	// windowed report. windowDays <= 0 means all-time. A returned error is
	// scoped to this address only; callers convert it to an AnalysisError
	// and keep going.
	Analyze(ctx context.Context, address string, windowDays int) (Report, error)
}

// PositionAccumulator turns a stream of transfer events into per-token
// positions and running native totals.
type PositionAccumulator interface {
	// Accumulate makes a single pass over events, dropping those strictly
	// older than windowStart (a zero windowStart keeps everything).
	Accumulate(events []TransferEvent, windowStart time.Time) *Accumulation

	// MostProfitable selects the position with the highest net profit.
	// With requireInbound set, positions that were only ever sold are not
	// eligible. Ties break lexicographically by token identifier. Returns
	// nil when no position is eligible.
	MostProfitable(positions map[string]*TokenPosition, requireInbound bool) *TokenPosition
}

// PriceService resolves fiat prices for native assets. Lookups degrade to 0
// on provider failure; they never return an error.
type PriceService interface {
	// GetCurrentPrice returns the current USD spot price.
	GetCurrentPrice(ctx context.Context, asset NativeAsset) float64

	// GetHistoricalPrice returns the USD price for the calendar day of t.
	// Resolution is one day, not exact block time.
	GetHistoricalPrice(ctx context.Context, asset NativeAsset, t time.Time) float64
}

// SessionStore remembers the addresses a user last analyzed.
type SessionStore interface {
	SaveAddresses(ctx context.Context, userID string, addresses []string) error
	LastAddresses(ctx context.Context, userID string) ([]string, error)
}
