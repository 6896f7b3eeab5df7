package helius

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	// maxPages caps pagination so a single analysis stays within an
	// interactive latency budget.
	maxPages = 10
	// pageSize is the maximum number of transactions per Helius API call.
	pageSize = 100

	// DefaultBaseURL serves the Enhanced Transactions REST API.
	DefaultBaseURL = "https://api.helius.xyz"
	// defaultRPCURL serves the DAS JSON-RPC methods (getAsset).
	defaultRPCURL = "https://mainnet.helius-rpc.com"
)

// Client communicates with the Helius Enhanced Transactions and DAS APIs.
type Client struct {
	apiKey     string
	baseURL    string
	rpcURL     string
	httpClient *http.Client
}

// NewClient creates a new Helius API client. An empty baseURL falls back to
// the public mainnet endpoint.
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		rpcURL:  defaultRPCURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Enabled reports whether a credential is configured. Without one the
// enhanced tier is unavailable and callers fall back to basic RPC data.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// FetchSwapTransactions retrieves SWAP-type transactions for an address,
// paginating with a signature cursor up to maxPages. Failed transactions
// are dropped.
func (c *Client) FetchSwapTransactions(ctx context.Context, address string) ([]EnhancedTransaction, error) {
	var all []EnhancedTransaction
	var beforeSig string

	for page := 0; page < maxPages; page++ {
		txns, err := c.fetchPage(ctx, address, beforeSig)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}

		if len(txns) == 0 {
			break
		}

		for i := range txns {
			if txns[i].TransactionError != nil {
				continue
			}
			all = append(all, txns[i])
		}

		beforeSig = txns[len(txns)-1].Signature

		if len(txns) < pageSize {
			break
		}
	}

	return all, nil
}

// fetchPage retrieves a single page of enhanced transactions.
func (c *Client) fetchPage(ctx context.Context, address, beforeSig string) ([]EnhancedTransaction, error) {
	endpoint := fmt.Sprintf("%s/v0/addresses/%s/transactions", c.baseURL, address)

	params := url.Values{}
	params.Set("api-key", c.apiKey)
	params.Set("type", "SWAP")
	params.Set("limit", fmt.Sprintf("%d", pageSize))
	if beforeSig != "" {
		params.Set("before", beforeSig)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("helius API returned status %d: %s", resp.StatusCode, string(body))
	}

	var txns []EnhancedTransaction
	if err := json.NewDecoder(resp.Body).Decode(&txns); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return txns, nil
}

// GetAssetSymbol resolves a token symbol for a mint via the DAS getAsset
// RPC method.
func (c *Client) GetAssetSymbol(ctx context.Context, mint string) (string, error) {
	payload := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      "1",
		"method":  "getAsset",
		"params":  map[string]interface{}{"id": mint},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/?api-key=%s", c.rpcURL, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("helius RPC returned status %d", resp.StatusCode)
	}

	var rpcResp struct {
		Result *Asset `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if rpcResp.Error != nil {
		return "", fmt.Errorf("helius RPC error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}
	if rpcResp.Result == nil || rpcResp.Result.Content.Metadata.Symbol == "" {
		return "", fmt.Errorf("no symbol for mint %s", mint)
	}

	return rpcResp.Result.Content.Metadata.Symbol, nil
}

// SetRPCURL overrides the DAS endpoint. Used by tests.
func (c *Client) SetRPCURL(u string) { c.rpcURL = u }
