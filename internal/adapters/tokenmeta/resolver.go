package tokenmeta

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/chainscope/chainscope/internal/adapters/helius"
)

// DefaultTokenListURL is Jupiter's public token-list lookup.
const DefaultTokenListURL = "https://tokens.jup.ag"

// Resolver resolves SPL token symbols by mint address: the public token-list
// service first, then the Helius asset-metadata call when a credential is
// configured. Both lookups are best-effort.
type Resolver struct {
	baseURL    string
	helius     *helius.Client
	httpClient *http.Client
	logger     zerolog.Logger
}

func NewResolver(baseURL string, heliusClient *helius.Client, logger zerolog.Logger) *Resolver {
	if baseURL == "" {
		baseURL = DefaultTokenListURL
	}
	return &Resolver{
		baseURL:    baseURL,
		helius:     heliusClient,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// Resolve returns the symbol for a mint, or an error when neither source
// knows it.
func (r *Resolver) Resolve(ctx context.Context, mint string) (string, error) {
	symbol, err := r.fromTokenList(ctx, mint)
	if err == nil {
		return symbol, nil
	}
	r.logger.Debug().Err(err).Str("mint", mint).Msg("token-list lookup missed")

	if r.helius.Enabled() {
		if symbol, err := r.helius.GetAssetSymbol(ctx, mint); err == nil {
			return symbol, nil
		}
	}

	return "", fmt.Errorf("symbol not found for mint %s", mint)
}

func (r *Resolver) fromTokenList(ctx context.Context, mint string) (string, error) {
	endpoint := fmt.Sprintf("%s/token/%s", r.baseURL, mint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token list returned status %d", resp.StatusCode)
	}

	var token struct {
		Address string `json:"address"`
		Symbol  string `json:"symbol"`
		Name    string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if token.Symbol == "" {
		return "", fmt.Errorf("token list has no symbol for %s", mint)
	}

	return token.Symbol, nil
}
