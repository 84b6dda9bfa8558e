package main

import (
	"context"
	"fmt"
	"os"

	"fin-agent/internal/auditlog"
	"fin-agent/internal/interfaces"
	"fin-agent/internal/llm/claude"
	"fin-agent/internal/llm/llmobs"
	"fin-agent/internal/llm/noop"
	"fin-agent/internal/llm/openai"
	"fin-agent/internal/logger"
	"fin-agent/internal/marketdata"
	"fin-agent/internal/news"
	"fin-agent/internal/store"
	"fin-agent/internal/trace"

	"github.com/joho/godotenv"
)

// initializeSystem initializes environment, logger, and tracer
func initializeSystem() error {
	// Load environment variables
	_ = godotenv.Load()

	// Initialize logger
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Initialize tracer
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}

	return nil
}

// loadConfig loads and returns the configuration
func loadConfig(ctx context.Context) (*store.Config, error) {
	cfg, err := store.LoadConfig("config.yaml")
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err)
		return nil, err
	}
	return cfg, nil
}

// compressOldLogs compresses old audit log files if retention is configured
func compressOldLogs(ctx context.Context) {
	if v := os.Getenv("AGENT_LOG_RETENTION_DAYS"); v != "" {
		var n int
		fmt.Sscanf(v, "%d", &n)
		if err := auditlog.CompressOlder(n); err != nil {
			logger.Warn(ctx, "Failed to compress old logs", "error", err)
		}
	}
}

// initializeFetcher initializes the price history fetcher per config
func initializeFetcher(ctx context.Context, cfg *store.Config) interfaces.Fetcher {
	if cfg.Data.Source == "HTTP" {
		logger.Info(ctx, "Using HTTP candle data", "base_url", cfg.Data.BaseURL)
		return marketdata.NewHTTPFetcher(cfg)
	}
	logger.Info(ctx, "Using STATIC synthetic candle data")
	return marketdata.NewStaticFetcher()
}

// initializeAnalyst initializes the LLM analyst with observability
func initializeAnalyst(ctx context.Context, cfg *store.Config) interfaces.Analyst {
	var analyst interfaces.Analyst

	switch cfg.LLM.Provider {
	case "OPENAI":
		analyst = openai.New(cfg)
	case "CLAUDE":
		analyst = claude.New(cfg)
	default:
		analyst = noop.New()
		logger.Warn(ctx, "No LLM provider configured - suggestions will be skipped")
	}

	if !analyst.Enabled() {
		logger.Warn(ctx, "Analyst disabled (missing API key) - running technical-only",
			"provider", cfg.LLM.Provider,
		)
	}

	// Wrap with observability middleware
	return llmobs.Wrap(analyst)
}

// initializeNews initializes the market-context service, or nil when disabled
func initializeNews(ctx context.Context, cfg *store.Config) *news.Service {
	if !cfg.News.Enabled {
		logger.Info(ctx, "Market-context assessment disabled in config")
		return nil
	}
	return news.NewService(cfg)
}
