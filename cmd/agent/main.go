package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"fin-agent/internal/agent"
	"fin-agent/internal/agent/agentobs"
	"fin-agent/internal/auditlog"
	"fin-agent/internal/export"
	"fin-agent/internal/logger"
	"fin-agent/internal/trace"
	"fin-agent/internal/types"
)

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

func main() {
	must(initializeSystem())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer trace.Shutdown(context.Background())

	cfg, err := loadConfig(ctx)
	must(err)

	compressOldLogs(ctx)

	fetcher := initializeFetcher(ctx, cfg)
	analyst := initializeAnalyst(ctx, cfg)
	newsSvc := initializeNews(ctx, cfg)

	ag := agentobs.Wrap(agent.New(cfg, fetcher, analyst, newsSvc))

	logger.Info(ctx, "Starting analysis run",
		"symbols", len(cfg.Universe),
		"use_llm", cfg.UseLLM,
	)

	br := ag.GetTradeSuggestions(ctx, cfg.Universe)

	for _, res := range br.Results() {
		if res.Signal != nil {
			if err := auditlog.AppendSignal(res.Signal); err != nil {
				logger.Warn(ctx, "Failed to append signal audit entry", "symbol", res.Symbol, "error", err)
			}
		}
		if res.Signal != nil && res.Suggestion != nil {
			if err := auditlog.AppendSuggestion(res.Signal, res.Suggestion); err != nil {
				logger.Warn(ctx, "Failed to append suggestion audit entry", "symbol", res.Symbol, "error", err)
			}
		}
	}

	if err := export.WriteSuggestions(cfg.Export.SuggestionsPath, br); err != nil {
		logger.ErrorWithErr(ctx, "Failed to export suggestions", err)
	} else {
		logger.Info(ctx, "Suggestions exported", "path", cfg.Export.SuggestionsPath)
	}
	if err := export.WriteResults(cfg.Export.ResultsPath, br); err != nil {
		logger.ErrorWithErr(ctx, "Failed to export results", err)
	} else {
		logger.Info(ctx, "Results exported", "path", cfg.Export.ResultsPath)
	}

	printSummary(ctx, ag.GetBuySignals(), ag.GetSellSignals(), br)
}

func printSummary(ctx context.Context, buys, sells []*types.SymbolResult, br *types.BatchResult) {
	failed := 0
	for _, res := range br.Results() {
		if res.Err != nil {
			failed++
		}
	}
	logger.Info(ctx, "Run complete",
		"symbols", len(br.Order),
		"buy_signals", len(buys),
		"sell_signals", len(sells),
		"failed", failed,
	)
	for _, res := range buys {
		logger.Info(ctx, "BUY signal", "symbol", res.Symbol, "entry", res.Signal.EntryPrice, "rsi", res.Signal.RSI)
	}
	for _, res := range sells {
		logger.Info(ctx, "SELL signal", "symbol", res.Symbol, "entry", res.Signal.EntryPrice, "rsi", res.Signal.RSI)
	}
}
