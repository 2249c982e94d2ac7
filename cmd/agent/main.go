package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/tradertony/snipe-agent/internal/cache"
	"github.com/tradertony/snipe-agent/internal/config"
	"github.com/tradertony/snipe-agent/internal/constants"
	"github.com/tradertony/snipe-agent/internal/jupiter"
	"github.com/tradertony/snipe-agent/internal/monitor"
	"github.com/tradertony/snipe-agent/internal/raydium"
	"github.com/tradertony/snipe-agent/internal/risk"
	"github.com/tradertony/snipe-agent/internal/rpc"
	"github.com/tradertony/snipe-agent/internal/server"
	"github.com/tradertony/snipe-agent/internal/sniper"
	"github.com/tradertony/snipe-agent/internal/storage"
	"github.com/tradertony/snipe-agent/internal/stream"
	"github.com/tradertony/snipe-agent/internal/wallet"
)

// env bootstrap function
func loadEnv(logger *logrus.Logger) {
	// Get the project root directory (where go.mod is)
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	envPath := filepath.Join(projectRoot, ".env")

	if err := godotenv.Load(envPath); err != nil {
		logger.Warnf("no .env file found at %s, using system environment variables", envPath)
	} else {
		logger.Infof("loaded .env from %s", envPath)
	}
}

// main wires the discovery stream, risk engine, snipe manager, and command
// API into one process with graceful shutdown.
func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.InfoLevel)

	// load .env BEFORE anything reads os.Getenv
	loadEnv(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	// Chain gateway: one rate-limited RPC client shared by reads.
	rpcClient := rpc.NewClient(rpc.ClientConfig{
		BaseURL:      cfg.RPCUrl,
		Timeout:      cfg.HTTPTimeout,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		RateLimit:    cfg.RPCRateLimit,
		Logger:       logger,
	})

	w, err := wallet.NewWallet(wallet.WalletConfig{
		RPCURL:       cfg.RPCUrl,
		PrivateKey:   cfg.WalletPrivateKey,
		Timeout:      cfg.HTTPTimeout,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create wallet")
	}
	logger.WithField("address", w.Address()).Info("wallet loaded")

	// Storage is optional; the trading core runs fully in-memory without it.
	var alertCache *cache.RedisCache
	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{Addr: cfg.RedisAddr})
		if err != nil {
			logger.WithError(err).Warn("Redis unavailable, alerts stay in-memory only")
		} else {
			alertCache = rc
			defer alertCache.Close()
		}
	}

	var snipeStore *cache.ClickHouseStore
	if cfg.ClickHouseAddr != "" {
		ch, err := cache.NewClickHouseStore(ctx, cache.ClickHouseConfig{
			Addr:     cfg.ClickHouseAddr,
			Database: cfg.ClickHouseDatabase,
			Username: cfg.ClickHouseUsername,
			Password: cfg.ClickHousePassword,
		})
		if err != nil {
			logger.WithError(err).Warn("ClickHouse unavailable, snipe history will not persist")
		} else {
			snipeStore = ch
			defer snipeStore.Close()
		}
	}

	resolver := raydium.NewResolver(rpcClient, constants.ProgramAddresses["Raydium"])

	// Discovery stream over the pool program.
	wsClient := stream.NewWSClient(stream.WSConfig{
		URL:       cfg.WSUrl,
		ProgramID: constants.ProgramAddresses["Raydium"],
		Logger:    logger,
	})

	// SOL/USD from the Jupiter price API, with the configured static price
	// as the fallback while the API is unreachable.
	prices := jupiter.NewSOLOracle(
		jupiter.NewClient(cfg.JupiterPriceURL, ""),
		cfg.SOLPriceUSD,
		time.Minute,
		logger,
	)

	marketData := monitor.NewPoolMarketData(resolver, prices, nil)

	// Keep a typed-nil out of the interface when Redis is absent.
	var alertSink storage.AlertCache
	if alertCache != nil {
		alertSink = alertCache
	}

	mon := monitor.New(wsClient, marketData, alertSink, monitor.Config{
		MinLiquidityUSD: cfg.MinLiquidityUSD,
		SOLPriceUSD:     cfg.SOLPriceUSD,
		SOLPrice:        prices,
		WatchInterval:   cfg.WatchInterval,
		LPDeltaPct:      cfg.LPDeltaPct,
		LPSupplyFloor:   cfg.LPSupplyFloor,
	}, logger)

	// Risk engine: chain-backed facts plus a live sell probe.
	provider := risk.NewChainProvider(rpcClient, resolver, prices, nil)
	probe := sniper.NewSellProbe(w, resolver, logger)
	analyzer := risk.NewAnalyzer(provider, probe, risk.Config{
		MinHolders:       cfg.MinHolders,
		MinLiquidityUSD:  cfg.MinLiquidityUSD,
		PumpThresholdPct: cfg.PumpThresholdPct,
		MaxScore:         cfg.MaxRiskScore,
	}, logger)

	var store storage.SnipeStore
	if snipeStore != nil {
		store = snipeStore
	}
	executor := sniper.NewExecutor(w, resolver, store, logger).
		WithConfirmTimeout(cfg.ConfirmTimeout)

	manager := sniper.NewManager(mon, analyzer, executor, cfg.WatchInterval, logger)

	// Run the discovery subscription until shutdown.
	go func() {
		if err := mon.Start(ctx); err != nil {
			logger.WithError(err).Error("discovery stream terminated")
		}
	}()

	h := &server.Handlers{
		Manager:  manager,
		Monitor:  mon,
		Analyzer: analyzer,
		Wallet:   w,
		Resolver: resolver,
		Chain:    rpcClient,
		Prices:   prices,
		AppCtx:   ctx,
		DevMode:  cfg.DevMode,
		Logger:   logger,
	}

	srv, err := server.NewServer(server.ServerDeps{
		Handlers: h,
		Config: server.ServerConfig{
			Addr:    cfg.APIAddr,
			DevMode: cfg.DevMode,
			APIKey:  cfg.APIKey,
		},
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create server")
	}

	go func() {
		logger.WithField("addr", cfg.APIAddr).Info("command API listening")
		if err := srv.Start(); err != nil {
			logger.WithError(err).Info("server stopped")
		}
	}()

	<-sigCh
	logger.Info("shutting down")

	cancel()
	mon.StopAllWatches()
	if err := srv.Shutdown(context.Background()); err != nil {
		logger.WithError(err).Warn("server shutdown failed")
	}
}
