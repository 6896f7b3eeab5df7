package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainscope/chainscope/internal/adapters/helius"
	"github.com/chainscope/chainscope/internal/core/domain"
	"github.com/chainscope/chainscope/internal/core/service"
)

const testWallet = "So11111111111111111111111111111111111111112"

type countingResolver struct {
	calls   int
	symbols map[string]string
}

func (r *countingResolver) Resolve(_ context.Context, mint string) (string, error) {
	r.calls++
	if symbol, ok := r.symbols[mint]; ok {
		return symbol, nil
	}
	return "", fmt.Errorf("unknown mint %s", mint)
}

// newSolanaRPCServer answers getBalance and getSignaturesForAddress.
func newSolanaRPCServer(t *testing.T, lamports uint64, sigs []SignatureInfo) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req solanaRPCRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		var result any
		switch req.Method {
		case "getBalance":
			result = map[string]any{"context": map[string]any{"slot": 1}, "value": lamports}
		case "getSignaturesForAddress":
			result = sigs
		default:
			t.Fatalf("unexpected RPC method %s", req.Method)
		}

		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": result}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func newHeliusServer(t *testing.T, txns []helius.EnhancedTransaction) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := txns
		if r.URL.Query().Get("before") != "" {
			page = nil
		}
		require.NoError(t, json.NewEncoder(w).Encode(page))
	}))
}

func blockTime(t time.Time) *int64 {
	v := t.Unix()
	return &v
}

func TestSolanaAnalyzeBasicTier(t *testing.T) {
	now := time.Now()
	rpcServer := newSolanaRPCServer(t, 2_500_000_000, []SignatureInfo{
		{Signature: "sig1", Slot: 300, BlockTime: blockTime(now.Add(-time.Hour))},
		{Signature: "sig2", Slot: 200, BlockTime: blockTime(now.Add(-48 * time.Hour))},
		{Signature: "sig3", Slot: 100, BlockTime: blockTime(now.Add(-30 * 24 * time.Hour))},
	})
	defer rpcServer.Close()

	svc := NewSolanaService(
		NewSolanaRPCClient(rpcServer.URL),
		helius.NewClient("", ""), // no credential, enhanced tier off
		nil,
		service.NewPositionEngine(),
		&stubPrices{spot: map[domain.NativeAsset]float64{domain.AssetSOL: 100}},
		zerolog.Nop(),
	)

	report, err := svc.Analyze(context.Background(), testWallet, 7)
	require.NoError(t, err)

	result, ok := report.(*domain.SolanaResult)
	require.True(t, ok)

	assert.False(t, result.DetailedPnL)
	assert.InDelta(t, 2.5, result.NativeBalance, 1e-9)
	assert.InDelta(t, 250, result.NativeBalanceUSD, 1e-6)
	assert.Equal(t, 2, result.TxCount)
	assert.WithinDuration(t, now.Add(-time.Hour), result.LastActive, 2*time.Second)
	assert.Zero(t, result.SwapCount)
	assert.Nil(t, result.MostProfitable)
}

func TestSolanaAnalyzeEnhancedTier(t *testing.T) {
	now := time.Now()
	mintA := "A1111111111111111111111111111111111111111111"
	mintB := "B1111111111111111111111111111111111111111111"

	rpcServer := newSolanaRPCServer(t, 1_000_000_000, []SignatureInfo{
		{Signature: "swap1", Slot: 300, BlockTime: blockTime(now.Add(-time.Hour))},
	})
	defer rpcServer.Close()

	heliusServer := newHeliusServer(t, []helius.EnhancedTransaction{
		{
			Type:      "SWAP",
			Signature: "swap1",
			Timestamp: now.Add(-time.Hour).Unix(),
			NativeTransfers: []helius.NativeTransfer{
				{FromUserAccount: testWallet, ToUserAccount: "pool", Amount: 2_000_000_000},
			},
			TokenTransfers: []helius.TokenTransfer{
				{FromUserAccount: "pool", ToUserAccount: testWallet, TokenAmount: 150, Mint: mintA},
			},
		},
		{
			Type:      "SWAP",
			Signature: "swap2",
			Timestamp: now.Add(-2 * time.Hour).Unix(),
			TokenTransfers: []helius.TokenTransfer{
				{FromUserAccount: testWallet, ToUserAccount: "pool", TokenAmount: 40, Mint: mintB},
			},
			NativeTransfers: []helius.NativeTransfer{
				{FromUserAccount: "pool", ToUserAccount: testWallet, Amount: 500_000_000},
			},
		},
	})
	defer heliusServer.Close()

	resolver := &countingResolver{symbols: map[string]string{mintA: "ALPHA"}}
	svc := NewSolanaService(
		NewSolanaRPCClient(rpcServer.URL),
		helius.NewClient("test-key", heliusServer.URL),
		resolver,
		service.NewPositionEngine(),
		&stubPrices{spot: map[domain.NativeAsset]float64{domain.AssetSOL: 100}},
		zerolog.Nop(),
	)

	report, err := svc.Analyze(context.Background(), testWallet, 0)
	require.NoError(t, err)

	result := report.(*domain.SolanaResult)
	assert.True(t, result.DetailedPnL)
	assert.Equal(t, 2, result.SwapCount)
	assert.Equal(t, 2, result.TransferCount)
	assert.Equal(t, 2, result.ActivePositions)

	// 0.5 SOL in, 2 SOL out.
	assert.InDelta(t, -1.5, result.NativeNetFlow, 1e-9)
	assert.InDelta(t, -150, result.NativeNetFlowUSD, 1e-6)

	// mintB was only ever sold, so mintA wins despite both being positions.
	require.NotNil(t, result.MostProfitable)
	assert.Equal(t, mintA, result.MostProfitable.Token)
	assert.Equal(t, "ALPHA", result.MostProfitable.Symbol)
}

func TestSolanaAnalyzeMetadataLookupCap(t *testing.T) {
	now := time.Now()
	var txns []helius.EnhancedTransaction
	for i := 0; i < 12; i++ {
		mint := fmt.Sprintf("Mint%02d11111111111111111111111111111111111111", i)
		txns = append(txns, helius.EnhancedTransaction{
			Type:      "SWAP",
			Signature: fmt.Sprintf("sig%02d", i),
			Timestamp: now.Add(-time.Hour).Unix(),
			TokenTransfers: []helius.TokenTransfer{
				{FromUserAccount: "pool", ToUserAccount: testWallet, TokenAmount: 1, Mint: mint},
			},
		})
	}

	rpcServer := newSolanaRPCServer(t, 0, nil)
	defer rpcServer.Close()
	heliusServer := newHeliusServer(t, txns)
	defer heliusServer.Close()

	resolver := &countingResolver{}
	svc := NewSolanaService(
		NewSolanaRPCClient(rpcServer.URL),
		helius.NewClient("test-key", heliusServer.URL),
		resolver,
		service.NewPositionEngine(),
		&stubPrices{},
		zerolog.Nop(),
	)

	report, err := svc.Analyze(context.Background(), testWallet, 0)
	require.NoError(t, err)

	result := report.(*domain.SolanaResult)
	assert.Equal(t, 12, result.ActivePositions)
	assert.Equal(t, MaxMetadataLookupsPerRun, resolver.calls)
}

func TestSolanaAnalyzeEnhancedFeedFailureDegradesToBasic(t *testing.T) {
	now := time.Now()
	rpcServer := newSolanaRPCServer(t, 3_000_000_000, []SignatureInfo{
		{Signature: "sig1", Slot: 10, BlockTime: blockTime(now.Add(-time.Hour))},
	})
	defer rpcServer.Close()

	heliusServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer heliusServer.Close()

	svc := NewSolanaService(
		NewSolanaRPCClient(rpcServer.URL),
		helius.NewClient("test-key", heliusServer.URL),
		nil,
		service.NewPositionEngine(),
		&stubPrices{},
		zerolog.Nop(),
	)

	report, err := svc.Analyze(context.Background(), testWallet, 0)
	require.NoError(t, err)

	result := report.(*domain.SolanaResult)
	assert.False(t, result.DetailedPnL)
	assert.InDelta(t, 3.0, result.NativeBalance, 1e-9)
	assert.Equal(t, 1, result.TxCount)
}

func TestSolanaAnalyzeBalanceFailureIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := map[string]any{
			"jsonrpc": "2.0", "id": 1,
			"error": map[string]any{"code": -32602, "message": "invalid params"},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	svc := NewSolanaService(
		NewSolanaRPCClient(server.URL),
		helius.NewClient("", ""),
		nil,
		service.NewPositionEngine(),
		&stubPrices{},
		zerolog.Nop(),
	)

	_, err := svc.Analyze(context.Background(), "bad", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "balance")
}
