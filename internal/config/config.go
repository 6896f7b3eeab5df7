package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application-level configuration loaded from environment
// variables, optionally seeded from a .env file.
type Config struct {
	BotToken        string
	EtherscanAPIKey string
	EtherscanURL    string

	HeliusAPIKey  string
	HeliusBaseURL string
	SolanaRPCURL  string

	CoinGeckoAPIKey string

	RedisAddr string

	LogLevel    string
	HTTPTimeout time.Duration
}

// Load reads configuration from the environment. A missing .env file is not
// an error; missing required variables are.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		BotToken:        os.Getenv("BOT_TOKEN"),
		EtherscanAPIKey: os.Getenv("ETHERSCAN_API_KEY"),
		EtherscanURL:    getEnv("ETHERSCAN_BASE_URL", ""),
		HeliusAPIKey:    os.Getenv("HELIUS_API_KEY"),
		HeliusBaseURL:   getEnv("HELIUS_BASE_URL", ""),
		SolanaRPCURL:    getEnv("SOLANA_RPC_URL", ""),
		CoinGeckoAPIKey: os.Getenv("COINGECKO_API_KEY"),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		HTTPTimeout:     time.Duration(getEnvAsInt("HTTP_TIMEOUT_SECONDS", 30)) * time.Second,
	}

	if cfg.BotToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN environment variable is required")
	}
	if cfg.EtherscanAPIKey == "" {
		return nil, fmt.Errorf("ETHERSCAN_API_KEY environment variable is required")
	}
	return cfg, nil
}

// HeliusEnabled reports whether the enhanced Solana tier is configured.
func (c *Config) HeliusEnabled() bool {
	return c.HeliusAPIKey != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}
