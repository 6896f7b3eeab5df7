package service

import (
	"time"

	"github.com/chainscope/chainscope/internal/core/domain"
)

// PositionEngine is the chain-agnostic accumulation engine. Both adapters
// feed it normalized transfer events; only the upstream normalization step
// differs per chain.
type PositionEngine struct{}

func NewPositionEngine() domain.PositionAccumulator {
	return &PositionEngine{}
}

// Accumulate makes a single pass over events. Events strictly older than
// windowStart are dropped; an event at exactly windowStart is kept. Inbound
// and outbound totals are commutative over event order, first-seen and
// last-seen are not.
func (e *PositionEngine) Accumulate(events []domain.TransferEvent, windowStart time.Time) *domain.Accumulation {
	acc := &domain.Accumulation{
		Positions: make(map[string]*domain.TokenPosition),
	}

	trades := make(map[string]struct{})

	for _, ev := range events {
		if !windowStart.IsZero() && ev.Timestamp.Before(windowStart) {
			continue
		}

		if ev.Trade && ev.TxID != "" {
			trades[ev.TxID] = struct{}{}
		}

		if ev.Asset == domain.AssetNative {
			if ev.Direction == domain.DirectionIn {
				acc.NativeIn += ev.Amount
			} else {
				acc.NativeOut += ev.Amount
			}
			continue
		}

		pos, ok := acc.Positions[ev.Asset]
		if !ok {
			pos = &domain.TokenPosition{
				Token:     ev.Asset,
				FirstSeen: ev.Timestamp,
				LastSeen:  ev.Timestamp,
			}
			acc.Positions[ev.Asset] = pos
		}

		if ev.Direction == domain.DirectionIn {
			pos.Inbound += ev.Amount
		} else {
			pos.Outbound += ev.Amount
		}
		if ev.Symbol != "" {
			pos.Symbol = ev.Symbol
		}
		if ev.Timestamp.Before(pos.FirstSeen) {
			pos.FirstSeen = ev.Timestamp
		}
		if ev.Timestamp.After(pos.LastSeen) {
			pos.LastSeen = ev.Timestamp
		}
	}

	acc.TradeCount = len(trades)
	return acc
}

// MostProfitable picks the position with the highest net profit. An
// all-negative set still yields the least negative position. Ties break
// lexicographically by token identifier so selection is deterministic
// regardless of map iteration order.
func (e *PositionEngine) MostProfitable(positions map[string]*domain.TokenPosition, requireInbound bool) *domain.TokenPosition {
	var best *domain.TokenPosition
	for _, pos := range positions {
		if requireInbound && pos.Inbound <= 0 {
			continue
		}
		if best == nil {
			best = pos
			continue
		}
		profit := pos.NetProfit()
		switch {
		case profit > best.NetProfit():
			best = pos
		case profit == best.NetProfit() && pos.Token < best.Token:
			best = pos
		}
	}
	return best
}
