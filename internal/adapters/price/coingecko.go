package price

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/chainscope/chainscope/internal/core/domain"
)

const (
	// DefaultBaseURL is the public CoinGecko API root.
	DefaultBaseURL = "https://api.coingecko.com/api/v3"

	spotTTL = 60 * time.Second
)

// CoinGeckoService fetches USD prices for native assets. Every failure
// degrades to a zero price with a log entry; price lookups never fail an
// analysis.
type CoinGeckoService struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	cache      *Cache
	logger     zerolog.Logger
}

func NewCoinGeckoService(baseURL, apiKey string, cache *Cache, logger zerolog.Logger) *CoinGeckoService {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if cache == nil {
		cache = NewCache()
	}
	return &CoinGeckoService{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cache:      cache,
		logger:     logger,
	}
}

// GetCurrentPrice returns the current USD price for an asset, or 0 when the
// upstream is unavailable. Results are cached briefly to dampen bursts.
func (s *CoinGeckoService) GetCurrentPrice(ctx context.Context, asset domain.NativeAsset) float64 {
	key := "spot:" + string(asset)
	if cached, ok := s.cache.Get(key); ok {
		return cached
	}

	q := url.Values{}
	q.Set("ids", string(asset))
	q.Set("vs_currencies", "usd")

	var result map[string]struct {
		USD float64 `json:"usd"`
	}
	if err := s.get(ctx, "/simple/price", q, &result); err != nil {
		s.logger.Warn().Err(err).Str("asset", string(asset)).Msg("spot price lookup failed")
		return 0
	}

	price := result[string(asset)].USD
	s.cache.Set(key, price, spotTTL)
	return price
}

// GetHistoricalPrice returns the USD price for an asset on the given day, or
// 0 when unavailable. CoinGecko's history endpoint has day resolution, so the
// timestamp is truncated to its date.
func (s *CoinGeckoService) GetHistoricalPrice(ctx context.Context, asset domain.NativeAsset, at time.Time) float64 {
	date := at.UTC().Format("02-01-2006")
	key := "hist:" + string(asset) + ":" + date
	if cached, ok := s.cache.Get(key); ok {
		return cached
	}

	q := url.Values{}
	q.Set("date", date)

	var result struct {
		MarketData struct {
			CurrentPrice struct {
				USD float64 `json:"usd"`
			} `json:"current_price"`
		} `json:"market_data"`
	}
	if err := s.get(ctx, "/coins/"+string(asset)+"/history", q, &result); err != nil {
		s.logger.Warn().Err(err).Str("asset", string(asset)).Str("date", date).Msg("historical price lookup failed")
		return 0
	}

	price := result.MarketData.CurrentPrice.USD
	s.cache.Set(key, price, 0)
	return price
}

func (s *CoinGeckoService) get(ctx context.Context, path string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	if s.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("coingecko returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
