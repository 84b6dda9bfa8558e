package interfaces

import (
	"context"

	"fin-agent/internal/types"
)

// Agent orchestrates the per-symbol pipeline and accumulates batch results.
type Agent interface {
	// AnalyzeSymbol runs fetch -> indicators -> optional LLM -> normalize
	// for one symbol. The returned entry is always well formed; failures are
	// recorded on it, never raised.
	AnalyzeSymbol(ctx context.Context, symbol string) *types.SymbolResult

	// GetTradeSuggestions runs AnalyzeSymbol for each symbol and returns one
	// entry per input symbol in input order, including failed and skipped
	// entries.
	GetTradeSuggestions(ctx context.Context, symbols []string) *types.BatchResult

	// GetBuySignals filters the accumulated batch for BUY directions,
	// preserving insertion order.
	GetBuySignals() []*types.SymbolResult

	// GetSellSignals filters the accumulated batch for SELL directions,
	// preserving insertion order.
	GetSellSignals() []*types.SymbolResult
}
