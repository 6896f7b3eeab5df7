package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/chainscope/chainscope/internal/adapters/chain"
	"github.com/chainscope/chainscope/internal/adapters/helius"
	"github.com/chainscope/chainscope/internal/adapters/price"
	"github.com/chainscope/chainscope/internal/adapters/session"
	"github.com/chainscope/chainscope/internal/adapters/tokenmeta"
	"github.com/chainscope/chainscope/internal/config"
	"github.com/chainscope/chainscope/internal/core/domain"
	"github.com/chainscope/chainscope/internal/core/service"
	"github.com/chainscope/chainscope/internal/logger"
	"github.com/chainscope/chainscope/internal/report"
	"github.com/chainscope/chainscope/pkg/version"
)

// cliUserID keys the session store for command-line runs.
const cliUserID = "cli"

func main() {
	days := flag.Int("days", 0, "lookback window in days (0 = all time)")
	last := flag.Bool("last", false, "re-analyze the addresses from the previous run")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s\n", version.AppName, version.GetVersionString())
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	log.Info().Str("version", version.Version()).Msg("starting chainscope")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store domain.SessionStore
	if cfg.RedisAddr != "" {
		redisStore, err := session.NewRedisStore(cfg.RedisAddr)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, using in-memory sessions")
			store = session.NewMemoryStore()
		} else {
			defer redisStore.Close()
			store = redisStore
		}
	} else {
		store = session.NewMemoryStore()
	}

	addresses := flag.Args()
	if *last {
		stored, err := store.LastAddresses(ctx, cliUserID)
		if err != nil {
			log.Warn().Err(err).Msg("could not load previous session")
		}
		addresses = stored
	}
	if len(addresses) == 0 {
		fmt.Fprintln(os.Stderr, "usage: chainscope [-days N] address [address ...]")
		os.Exit(2)
	}

	engine := service.NewPositionEngine()
	priceService := price.NewCoinGeckoService("", cfg.CoinGeckoAPIKey, price.NewCache(), log)

	heliusClient := helius.NewClient(cfg.HeliusAPIKey, cfg.HeliusBaseURL)
	resolver := tokenmeta.NewResolver("", heliusClient, log)
	rpcClient := chain.NewSolanaRPCClient(cfg.SolanaRPCURL)

	analyzer := service.NewAnalyzerService(log,
		chain.NewEtherscanService(cfg.EtherscanURL, cfg.EtherscanAPIKey, engine, priceService, log),
		chain.NewSolanaService(rpcClient, heliusClient, resolver, engine, priceService, log),
	)

	reports := analyzer.Analyze(ctx, addresses, *days)

	if err := store.SaveAddresses(ctx, cliUserID, addresses); err != nil {
		log.Warn().Err(err).Msg("could not persist session")
	}

	fmt.Println(report.NewFormatter().Format(reports))
}
