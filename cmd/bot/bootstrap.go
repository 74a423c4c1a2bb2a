package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"tinkoff-invest-bot/internal/broker/brokerobs"
	"tinkoff-invest-bot/internal/broker/tinkoff"
	"tinkoff-invest-bot/internal/engine"
	"tinkoff-invest-bot/internal/engine/engineobs"
	"tinkoff-invest-bot/internal/eod"
	"tinkoff-invest-bot/internal/eod/eodobs"
	"tinkoff-invest-bot/internal/fetcher/smartlab"
	"tinkoff-invest-bot/internal/interfaces"
	"tinkoff-invest-bot/internal/logger"
	"tinkoff-invest-bot/internal/store"
	"tinkoff-invest-bot/internal/trace"
	"tinkoff-invest-bot/internal/tradelog"
)

// app holds the wired components shared by all commands.
type app struct {
	cfg      *store.Config
	tlog     *tradelog.Log
	strategy *engine.Engine
	engine   interfaces.Engine
	eod      interfaces.EodSummarizer
}

// initializeSystem initializes logger and tracer
func initializeSystem() error {
	// Load environment variables
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

func shutdownSystem() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = trace.Shutdown(ctx)
}

// loadConfig loads and returns the configuration
func loadConfig(ctx context.Context, path string) (*store.Config, error) {
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, err
	}
	return cfg, nil
}

// initializeBroker creates the Tinkoff broker with observability
func initializeBroker(ctx context.Context, cfg *store.Config) interfaces.Broker {
	brk := tinkoff.New(tinkoff.Params{
		Mode:          cfg.Mode,
		Token:         cfg.API.Token,
		AccountID:     cfg.API.AccountID,
		BaseURL:       cfg.API.BaseURL,
		Sandbox:       cfg.API.Sandbox,
		AppName:       cfg.API.AppName,
		Currency:      cfg.Strategy.Currency,
		Timeout:       cfg.APITimeout(),
		RatePerSecond: cfg.API.RatePerSecond,
		Burst:         cfg.API.Burst,
		MaxRetries:    cfg.Retries(),
	})

	if cfg.Mode == store.ModeDryRun {
		logger.Warn(ctx, "Running in DRY_RUN mode - orders will be simulated")
	}
	if cfg.API.Sandbox {
		logger.Info(ctx, "Using sandbox account", "base_url", cfg.API.BaseURL)
	}

	return brokerobs.Wrap(brk)
}

// initializeFetcher creates the smart-lab fetcher with its page cache
func initializeFetcher(cfg *store.Config) (*smartlab.Fetcher, error) {
	cache, err := smartlab.NewPageCache(cfg.Index.CacheDir, cfg.CacheTTL())
	if err != nil {
		return nil, fmt.Errorf("failed to create page cache: %w", err)
	}
	if err := cache.Prune(); err != nil {
		return nil, fmt.Errorf("failed to prune page cache: %w", err)
	}
	return smartlab.NewFetcher(smartlab.Options{
		Timeout:           cfg.IndexTimeout(),
		UserAgent:         cfg.Index.UserAgent,
		Cache:             cache,
		TickersTableIndex: cfg.Index.TickersTableIndex,
	}), nil
}

// initializeEOD creates the EOD summarizer with observability
func initializeEOD(cfg *store.Config, tlog *tradelog.Log) (interfaces.EodSummarizer, error) {
	base, err := eod.NewSummarizer(tlog, cfg.Schedule.EODTime)
	if err != nil {
		return nil, err
	}
	return eodobs.Wrap(base), nil
}

func newApp(ctx context.Context, cfgPath string) (*app, error) {
	cfg, err := loadConfig(ctx, cfgPath)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	tlog := tradelog.New(cfg.TradeLog.Dir, loc)
	if err := tlog.CompressOlder(cfg.TradeLog.RetentionDays); err != nil {
		logger.Warn(ctx, "Failed to compress old logs", "error", err)
	}

	fetcher, err := initializeFetcher(cfg)
	if err != nil {
		return nil, err
	}
	brk := initializeBroker(ctx, cfg)
	strategy := engine.New(cfg, brk, fetcher, tlog)

	summarizer, err := initializeEOD(cfg, tlog)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:      cfg,
		tlog:     tlog,
		strategy: strategy,
		engine:   engineobs.Wrap(strategy),
		eod:      summarizer,
	}, nil
}
