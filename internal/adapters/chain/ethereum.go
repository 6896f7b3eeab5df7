package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/chainscope/chainscope/internal/core/domain"
)

const (
	// EtherscanDefaultBaseURL is the public mainnet explorer API.
	EtherscanDefaultBaseURL = "https://api.etherscan.io/api"

	// etherscanPageSize is the provider cap on records per list call.
	etherscanPageSize = 1000

	// etherscanRateLimit keeps us under the free-tier 5 req/s ceiling.
	etherscanRateLimit = 4
)

// EtherscanService analyzes Ethereum addresses through an explorer-style
// REST API: native transaction list, ERC-20 transfer list and balance.
type EtherscanService struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	limiter     *rate.Limiter
	accumulator domain.PositionAccumulator
	prices      domain.PriceService
	logger      zerolog.Logger
}

func NewEtherscanService(baseURL, apiKey string, accumulator domain.PositionAccumulator, prices domain.PriceService, logger zerolog.Logger) *EtherscanService {
	if baseURL == "" {
		baseURL = EtherscanDefaultBaseURL
	}
	return &EtherscanService{
		baseURL:     baseURL,
		apiKey:      apiKey,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		limiter:     rate.NewLimiter(rate.Limit(etherscanRateLimit), 1),
		accumulator: accumulator,
		prices:      prices,
		logger:      logger,
	}
}

func (s *EtherscanService) Chain() domain.Chain { return domain.ChainEthereum }

// Analyze fetches the address's native transactions, token transfers and
// balance, then computes the windowed report. A failed primary transaction
// fetch is an error for this address; token-list and balance failures
// degrade to empty and zero.
func (s *EtherscanService) Analyze(ctx context.Context, address string, windowDays int) (domain.Report, error) {
	now := time.Now()
	windowStart := domain.WindowStart(now, windowDays)

	var txs []etherscanTx
	if err := s.list(ctx, "txlist", address, &txs); err != nil {
		return nil, fmt.Errorf("transaction list: %w", err)
	}

	var tokenTxs []etherscanTokenTx
	if err := s.list(ctx, "tokentx", address, &tokenTxs); err != nil {
		s.logger.Warn().Err(err).Str("address", address).Msg("token transfer fetch failed, continuing without")
		tokenTxs = nil
	}

	balance, err := s.nativeBalance(ctx, address)
	if err != nil {
		s.logger.Warn().Err(err).Str("address", address).Msg("balance fetch failed, reporting zero")
		balance = 0
	}

	owner := common.HexToAddress(address)
	events := make([]domain.TransferEvent, 0, len(txs)+len(tokenTxs))

	var txCount int
	var lastActive time.Time

	for _, tx := range txs {
		ts := time.Unix(parseInt64(tx.TimeStamp), 0)
		if ts.After(lastActive) {
			lastActive = ts
		}
		if !windowStart.IsZero() && ts.Before(windowStart) {
			continue
		}
		txCount++
		if tx.IsError == "1" {
			continue
		}

		amount := weiToEther(tx.Value)
		if amount == 0 {
			continue
		}

		ev := domain.TransferEvent{
			TxID:      tx.Hash,
			Asset:     domain.AssetNative,
			Amount:    amount,
			Timestamp: ts,
		}
		switch {
		case common.HexToAddress(tx.To) == owner:
			ev.Direction = domain.DirectionIn
		case common.HexToAddress(tx.From) == owner:
			ev.Direction = domain.DirectionOut
		default:
			continue
		}
		events = append(events, ev)
	}

	var transferCount int
	for _, tx := range tokenTxs {
		ts := time.Unix(parseInt64(tx.TimeStamp), 0)
		if ts.After(lastActive) {
			lastActive = ts
		}
		if !windowStart.IsZero() && ts.Before(windowStart) {
			continue
		}
		transferCount++

		decimals := int(parseInt64(tx.TokenDecimal))
		if decimals == 0 {
			decimals = 18
		}

		ev := domain.TransferEvent{
			TxID:      tx.Hash,
			Asset:     tx.ContractAddress,
			Symbol:    tx.TokenSymbol,
			Amount:    tokenValue(tx.Value, decimals),
			Timestamp: ts,
		}
		switch {
		case common.HexToAddress(tx.To) == owner:
			ev.Direction = domain.DirectionIn
		case common.HexToAddress(tx.From) == owner:
			ev.Direction = domain.DirectionOut
		default:
			continue
		}
		events = append(events, ev)
	}

	acc := s.accumulator.Accumulate(events, windowStart)
	ethPrice := s.prices.GetCurrentPrice(ctx, domain.AssetETH)

	return &domain.EvmResult{WalletSummary: domain.WalletSummary{
		Address:          address,
		Chain:            domain.ChainEthereum,
		WindowLabel:      domain.WindowLabel(windowDays),
		NativeBalance:    balance,
		NativeBalanceUSD: balance * ethPrice,
		NativeNetFlow:    acc.NativeNetFlow(),
		NativeNetFlowUSD: acc.NativeNetFlow() * ethPrice,
		TxCount:          txCount,
		TransferCount:    transferCount,
		ActivePositions:  len(acc.Positions),
		MostProfitable:   s.accumulator.MostProfitable(acc.Positions, false),
		LastActive:       lastActive,
	}}, nil
}

// list fetches a module=account list action. An explicit "no transactions
// found" reply decodes as an empty list rather than an error.
func (s *EtherscanService) list(ctx context.Context, action, address string, out interface{}) error {
	raw, err := s.get(ctx, action, address)
	if err != nil {
		return err
	}
	if raw == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding %s result: %w", action, err)
	}
	return nil
}

func (s *EtherscanService) nativeBalance(ctx context.Context, address string) (float64, error) {
	raw, err := s.get(ctx, "balance", address)
	if err != nil {
		return 0, err
	}

	var wei string
	if err := json.Unmarshal(raw, &wei); err != nil {
		return 0, fmt.Errorf("decoding balance result: %w", err)
	}
	return weiToEther(wei), nil
}

func (s *EtherscanService) get(ctx context.Context, action, address string) (json.RawMessage, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("module", "account")
	q.Set("action", action)
	q.Set("address", address)
	q.Set("startblock", "0")
	q.Set("endblock", "99999999")
	q.Set("page", "1")
	q.Set("offset", strconv.Itoa(etherscanPageSize))
	q.Set("sort", "desc")
	q.Set("tag", "latest")
	q.Set("apikey", s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("explorer returned status %d: %s", resp.StatusCode, string(body))
	}

	var envelope struct {
		Status  string          `json:"status"`
		Message string          `json:"message"`
		Result  json.RawMessage `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if envelope.Status != "1" {
		if envelope.Message == "No transactions found" {
			return nil, nil
		}
		return nil, fmt.Errorf("explorer status %q: %s", envelope.Status, envelope.Message)
	}

	return envelope.Result, nil
}

// etherscanTx is one entry of the txlist action.
type etherscanTx struct {
	Hash      string `json:"hash"`
	From      string `json:"from"`
	To        string `json:"to"`
	Value     string `json:"value"` // wei
	TimeStamp string `json:"timeStamp"`
	IsError   string `json:"isError"`
}

// etherscanTokenTx is one entry of the tokentx action.
type etherscanTokenTx struct {
	Hash            string `json:"hash"`
	From            string `json:"from"`
	To              string `json:"to"`
	Value           string `json:"value"` // raw, unscaled
	TimeStamp       string `json:"timeStamp"`
	ContractAddress string `json:"contractAddress"`
	TokenSymbol     string `json:"tokenSymbol"`
	TokenDecimal    string `json:"tokenDecimal"`
}

func parseInt64(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}

func weiToEther(wei string) float64 {
	value, ok := new(big.Int).SetString(wei, 10)
	if !ok {
		return 0
	}
	eth, _ := new(big.Float).Quo(new(big.Float).SetInt(value), big.NewFloat(params.Ether)).Float64()
	return eth
}

func tokenValue(raw string, decimals int) float64 {
	value, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return 0
	}
	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	scaled, _ := new(big.Float).Quo(new(big.Float).SetInt(value), scale).Float64()
	return scaled
}
