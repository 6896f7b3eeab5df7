package domain

import (
	"fmt"
	"math"
	"time"
)

// AssetNative identifies the chain's base currency (ETH or SOL) in a
// TransferEvent, as opposed to a token contract or mint address.
const AssetNative = "native"

// NativeAsset names a chain's base currency for price lookups.
type NativeAsset string

const (
	AssetETH NativeAsset = "ethereum"
	AssetSOL NativeAsset = "solana"
)

// Direction marks a transfer relative to the analyzed address.
type Direction int

const (
	DirectionIn Direction = iota
	DirectionOut
)

// TransferEvent is the normalized representation of money movement produced
// by a chain adapter. Amounts are already scaled by the asset's decimals.
type TransferEvent struct {
	TxID      string
	Asset     string // AssetNative, or a contract/mint address
	Symbol    string // best-effort, may be empty
	Direction Direction
	Amount    float64
	Timestamp time.Time
	Trade     bool // the enclosing transaction was classified as a swap/trade
}

// TokenPosition accumulates inbound/outbound totals for one token, scoped to
// one address and one lookback window.
type TokenPosition struct {
	Token     string
	Symbol    string
	Inbound   float64
	Outbound  float64
	FirstSeen time.Time
	LastSeen  time.Time
}

// NetProfit is the position's net flow (inbound - outbound). It is an
// approximation, not a cost-basis PnL: token cost is not tracked in fiat.
func (p *TokenPosition) NetProfit() float64 {
	return p.Inbound - p.Outbound
}

// HoldDays is the whole-day span between the first and last transfer seen
// inside the window. History before the window is invisible here, so a token
// bought earlier but sold in-window shows a short or zero hold time.
func (p *TokenPosition) HoldDays() int {
	if p.FirstSeen.IsZero() || p.LastSeen.IsZero() {
		return 0
	}
	return int(math.Floor(p.LastSeen.Sub(p.FirstSeen).Hours() / 24))
}

// Accumulation is the output of a single accumulation pass over transfer
// events: per-token positions plus running native totals.
type Accumulation struct {
	Positions  map[string]*TokenPosition
	NativeIn   float64
	NativeOut  float64
	TradeCount int
}

// NativeNetFlow returns inbound minus outbound native currency.
func (a *Accumulation) NativeNetFlow() float64 {
	return a.NativeIn - a.NativeOut
}

// WalletSummary holds the per-address fields shared by both chains.
type WalletSummary struct {
	Address          string
	Chain            Chain
	WindowLabel      string
	NativeBalance    float64
	NativeBalanceUSD float64
	NativeNetFlow    float64
	NativeNetFlowUSD float64
	TxCount          int
	TransferCount    int
	ActivePositions  int
	MostProfitable   *TokenPosition
	LastActive       time.Time
}

// EvmResult is the analysis outcome for an Ethereum address.
type EvmResult struct {
	WalletSummary
}

// SolanaResult is the analysis outcome for a Solana address. DetailedPnL is
// false when the enhanced transaction provider was unavailable or returned
// nothing; callers must render that distinctly from zero P&L.
type SolanaResult struct {
	WalletSummary
	SwapCount   int
	DetailedPnL bool
}

// AnalysisError is a per-address failure. It never aborts sibling analyses.
type AnalysisError struct {
	Address string
	Chain   Chain
	Message string
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("%s: %s", e.Address, e.Message)
}

// Report is implemented by every per-address analysis outcome. Formatters
// type-switch over *EvmResult, *SolanaResult and *AnalysisError.
type Report interface {
	ReportAddress() string
	ReportChain() Chain
}

func (r *EvmResult) ReportAddress() string     { return r.Address }
func (r *EvmResult) ReportChain() Chain        { return r.Chain }
func (r *SolanaResult) ReportAddress() string  { return r.Address }
func (r *SolanaResult) ReportChain() Chain     { return r.Chain }
func (e *AnalysisError) ReportAddress() string { return e.Address }
func (e *AnalysisError) ReportChain() Chain    { return e.Chain }

// WindowLabel renders a lookback in days as a display label. Zero or
// negative means all-time.
func WindowLabel(days int) string {
	if days <= 0 {
		return "All Time"
	}
	return fmt.Sprintf("%dD", days)
}

// WindowStart returns the inclusive lower bound of the lookback window, or
// the zero time for an all-time analysis.
func WindowStart(now time.Time, days int) time.Time {
	if days <= 0 {
		return time.Time{}
	}
	return now.Add(-time.Duration(days) * 24 * time.Hour)
}
