package noop

import (
	"context"

	"fin-agent/internal/llm"
	"fin-agent/internal/logger"
	"fin-agent/internal/types"
)

// Analyst is the fallback used when no LLM provider is configured.
// It is permanently disabled so the orchestrator degrades to
// technical-only mode.
type Analyst struct{}

func New() *Analyst {
	return &Analyst{}
}

func (a *Analyst) Enabled() bool { return false }

func (a *Analyst) Suggest(ctx context.Context, sig types.TechnicalSignal, mktCtx *types.MarketContext) (types.RawResponse, error) {
	logger.Debug(ctx, "Noop analyst called - LLM stage should have been skipped", "symbol", sig.Symbol)
	return types.RawResponse{}, llm.ErrDisabled
}
