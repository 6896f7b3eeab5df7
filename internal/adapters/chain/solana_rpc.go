package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"
)

// SolanaDefaultRPCURL is the public mainnet JSON-RPC endpoint.
const SolanaDefaultRPCURL = "https://api.mainnet-beta.solana.com"

// Default RPC client configuration.
const (
	defaultRPCTimeout    = 30 * time.Second
	defaultRPCMaxRetries = 3
	defaultRPCRetryDelay = 1 * time.Second
	defaultRPCMaxDelay   = 10 * time.Second
	rpcBackoffMult       = 2.0

	// signaturePageSize is the provider cap per getSignaturesForAddress call.
	signaturePageSize = 1000
)

// SolanaRPCClient is a JSON-RPC 2.0 client for the generic Solana RPC
// surface used by the basic tier: balance and signature list.
type SolanaRPCClient struct {
	endpoint   string
	client     *http.Client
	maxRetries int
	retryDelay time.Duration
	maxDelay   time.Duration
	requestID  atomic.Uint64
}

// SolanaRPCOption configures SolanaRPCClient.
type SolanaRPCOption func(*SolanaRPCClient)

// WithRPCTimeout sets the HTTP client timeout.
func WithRPCTimeout(d time.Duration) SolanaRPCOption {
	return func(c *SolanaRPCClient) {
		c.client.Timeout = d
	}
}

// WithRPCMaxRetries sets maximum retry attempts.
func WithRPCMaxRetries(n int) SolanaRPCOption {
	return func(c *SolanaRPCClient) {
		c.maxRetries = n
	}
}

// WithRPCRetryDelay sets the initial backoff delay.
func WithRPCRetryDelay(d time.Duration) SolanaRPCOption {
	return func(c *SolanaRPCClient) {
		c.retryDelay = d
	}
}

func NewSolanaRPCClient(endpoint string, opts ...SolanaRPCOption) *SolanaRPCClient {
	if endpoint == "" {
		endpoint = SolanaDefaultRPCURL
	}
	c := &SolanaRPCClient{
		endpoint:   endpoint,
		client:     &http.Client{Timeout: defaultRPCTimeout},
		maxRetries: defaultRPCMaxRetries,
		retryDelay: defaultRPCRetryDelay,
		maxDelay:   defaultRPCMaxDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type solanaRPCRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

type solanaRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *solanaRPCError `json:"error,omitempty"`
}

type solanaRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *solanaRPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// call performs a JSON-RPC call with retries and exponential backoff.
func (c *SolanaRPCClient) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	reqBody := solanaRPCRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * rpcBackoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		}
		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
			continue
		}

		var rpcResp solanaRPCResponse
		if err := json.Unmarshal(respBody, &rpcResp); err != nil {
			lastErr = fmt.Errorf("unmarshal response: %w", err)
			continue
		}

		if rpcResp.Error != nil {
			// RPC errors are not retried
			return rpcResp.Error
		}

		if result != nil && rpcResp.Result != nil {
			if err := json.Unmarshal(rpcResp.Result, result); err != nil {
				return fmt.Errorf("unmarshal result: %w", err)
			}
		}

		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// GetBalance returns the account balance in lamports.
func (c *SolanaRPCClient) GetBalance(ctx context.Context, address string) (uint64, error) {
	params := []interface{}{
		address,
		map[string]interface{}{"commitment": "confirmed"},
	}

	var result struct {
		Value uint64 `json:"value"`
	}
	if err := c.call(ctx, "getBalance", params, &result); err != nil {
		return 0, err
	}
	return result.Value, nil
}

// SignatureInfo is one entry of getSignaturesForAddress.
type SignatureInfo struct {
	Signature string      `json:"signature"`
	Slot      int64       `json:"slot"`
	BlockTime *int64      `json:"blockTime"`
	Err       interface{} `json:"err"`
}

// GetSignaturesForAddress returns up to signaturePageSize recent signatures
// for the address, newest first.
func (c *SolanaRPCClient) GetSignaturesForAddress(ctx context.Context, address string) ([]SignatureInfo, error) {
	params := []interface{}{
		address,
		map[string]interface{}{"limit": signaturePageSize},
	}

	var result []SignatureInfo
	if err := c.call(ctx, "getSignaturesForAddress", params, &result); err != nil {
		return nil, err
	}
	return result, nil
}
