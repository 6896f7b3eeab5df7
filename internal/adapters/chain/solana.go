package chain

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/chainscope/chainscope/internal/adapters/helius"
	"github.com/chainscope/chainscope/internal/core/domain"
)

const lamportsPerSol = 1e9

// MaxMetadataLookupsPerRun caps best-effort symbol lookups per analysis call
// to bound latency and provider cost. Tokens beyond the cap keep a truncated
// mint address as their symbol.
const MaxMetadataLookupsPerRun = 10

// SymbolResolver resolves an SPL token symbol by mint address.
type SymbolResolver interface {
	Resolve(ctx context.Context, mint string) (string, error)
}

// SolanaService analyzes Solana addresses. The basic tier (balance and
// signature list over generic JSON-RPC) is always available; detailed P&L
// requires the Helius enhanced transaction feed.
type SolanaService struct {
	rpc         *SolanaRPCClient
	helius      *helius.Client
	resolver    SymbolResolver
	accumulator domain.PositionAccumulator
	prices      domain.PriceService
	logger      zerolog.Logger
}

func NewSolanaService(rpc *SolanaRPCClient, heliusClient *helius.Client, resolver SymbolResolver, accumulator domain.PositionAccumulator, prices domain.PriceService, logger zerolog.Logger) *SolanaService {
	return &SolanaService{
		rpc:         rpc,
		helius:      heliusClient,
		resolver:    resolver,
		accumulator: accumulator,
		prices:      prices,
		logger:      logger,
	}
}

func (s *SolanaService) Chain() domain.Chain { return domain.ChainSolana }

// Analyze fetches balance and signatures, and when the enhanced feed is
// configured, swap transactions for detailed P&L. An unavailable or empty
// enhanced feed degrades to the basic-tier result with DetailedPnL unset;
// it is never an error.
func (s *SolanaService) Analyze(ctx context.Context, address string, windowDays int) (domain.Report, error) {
	now := time.Now()
	windowStart := domain.WindowStart(now, windowDays)

	lamports, err := s.rpc.GetBalance(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("balance: %w", err)
	}
	balance := float64(lamports) / lamportsPerSol

	var txCount int
	var lastActive time.Time
	sigs, err := s.rpc.GetSignaturesForAddress(ctx, address)
	if err != nil {
		s.logger.Warn().Err(err).Str("address", address).Msg("signature fetch failed, continuing without")
	}
	for _, sig := range sigs {
		if sig.BlockTime == nil {
			continue
		}
		ts := time.Unix(*sig.BlockTime, 0)
		if ts.After(lastActive) {
			lastActive = ts
		}
		if !windowStart.IsZero() && ts.Before(windowStart) {
			continue
		}
		txCount++
	}

	solPrice := s.prices.GetCurrentPrice(ctx, domain.AssetSOL)

	result := &domain.SolanaResult{WalletSummary: domain.WalletSummary{
		Address:          address,
		Chain:            domain.ChainSolana,
		WindowLabel:      domain.WindowLabel(windowDays),
		NativeBalance:    balance,
		NativeBalanceUSD: balance * solPrice,
		TxCount:          txCount,
		LastActive:       lastActive,
	}}

	if !s.helius.Enabled() {
		return result, nil
	}

	txns, err := s.helius.FetchSwapTransactions(ctx, address)
	if err != nil {
		s.logger.Warn().Err(err).Str("address", address).Msg("enhanced feed unavailable, returning basic result")
		return result, nil
	}
	if len(txns) == 0 {
		return result, nil
	}

	events, transferCount := s.normalize(address, txns, windowStart)
	acc := s.accumulator.Accumulate(events, windowStart)
	s.resolveSymbols(ctx, acc.Positions)

	result.DetailedPnL = true
	result.TransferCount = transferCount
	result.NativeNetFlow = acc.NativeNetFlow()
	result.NativeNetFlowUSD = acc.NativeNetFlow() * solPrice
	result.ActivePositions = len(acc.Positions)
	result.MostProfitable = s.accumulator.MostProfitable(acc.Positions, true)
	result.SwapCount = acc.TradeCount
	return result, nil
}

// normalize flattens enhanced transactions into transfer events relative to
// the analyzed address. transferCount reports in-window token transfers.
func (s *SolanaService) normalize(address string, txns []helius.EnhancedTransaction, windowStart time.Time) ([]domain.TransferEvent, int) {
	var events []domain.TransferEvent
	var transferCount int

	for _, tx := range txns {
		ts := time.Unix(tx.Timestamp, 0)
		inWindow := windowStart.IsZero() || !ts.Before(windowStart)
		isTrade := tx.Type == "SWAP" || tx.Type == "TRADE"

		for _, nt := range tx.NativeTransfers {
			ev := domain.TransferEvent{
				TxID:      tx.Signature,
				Asset:     domain.AssetNative,
				Amount:    float64(nt.Amount) / lamportsPerSol,
				Timestamp: ts,
				Trade:     isTrade,
			}
			switch {
			case nt.ToUserAccount == address:
				ev.Direction = domain.DirectionIn
			case nt.FromUserAccount == address:
				ev.Direction = domain.DirectionOut
			default:
				continue
			}
			events = append(events, ev)
		}

		for _, tt := range tx.TokenTransfers {
			if tt.Mint == "" {
				continue
			}
			ev := domain.TransferEvent{
				TxID:      tx.Signature,
				Asset:     tt.Mint,
				Amount:    tt.TokenAmount,
				Timestamp: ts,
				Trade:     isTrade,
			}
			switch {
			case tt.ToUserAccount == address:
				ev.Direction = domain.DirectionIn
			case tt.FromUserAccount == address:
				ev.Direction = domain.DirectionOut
			default:
				continue
			}
			events = append(events, ev)
			if inWindow {
				transferCount++
			}
		}
	}

	return events, transferCount
}

// resolveSymbols fills in missing token symbols, at most
// MaxMetadataLookupsPerRun lookups per call. Mints are visited in
// lexicographic order so the set of resolved tokens is deterministic.
// Unresolved tokens keep a truncated mint as a placeholder.
func (s *SolanaService) resolveSymbols(ctx context.Context, positions map[string]*domain.TokenPosition) {
	var unresolved []string
	for mint, pos := range positions {
		if pos.Symbol == "" {
			unresolved = append(unresolved, mint)
		}
	}
	sort.Strings(unresolved)

	lookups := 0
	for _, mint := range unresolved {
		pos := positions[mint]
		if lookups < MaxMetadataLookupsPerRun && s.resolver != nil {
			lookups++
			if symbol, err := s.resolver.Resolve(ctx, mint); err == nil {
				pos.Symbol = symbol
				continue
			}
		}
		pos.Symbol = abbrevMint(mint)
	}
}

func abbrevMint(mint string) string {
	if len(mint) <= 8 {
		return mint
	}
	return mint[:4] + "…" + mint[len(mint)-4:]
}
