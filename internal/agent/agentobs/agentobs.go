package agentobs

import (
	"context"

	"fin-agent/internal/interfaces"
	"fin-agent/internal/logger"
	"fin-agent/internal/trace"
	"fin-agent/internal/types"
)

// observableAgent wraps an Agent with observability (logging & tracing)
type observableAgent struct {
	agent interfaces.Agent
}

// Compile-time interface check
var _ interfaces.Agent = (*observableAgent)(nil)

// Wrap wraps an agent with observability middleware
func Wrap(agent interfaces.Agent) interfaces.Agent {
	return &observableAgent{
		agent: agent,
	}
}

// AnalyzeSymbol runs the pipeline for one symbol with observability
func (oa *observableAgent) AnalyzeSymbol(ctx context.Context, symbol string) *types.SymbolResult {
	ctx, span := trace.StartSpan(ctx, "agent.AnalyzeSymbol")
	defer span.End()

	// Use DebugSkip(1) to report the actual caller, not this middleware wrapper
	logger.DebugSkip(ctx, 1, "Analyzing symbol", "symbol", symbol)

	res := oa.agent.AnalyzeSymbol(ctx, symbol)
	if res.Err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Symbol analysis finished with error", res.Err,
			"symbol", symbol,
			"state", string(res.State),
		)
		return res
	}

	logger.InfoSkip(ctx, 1, "Symbol analysis complete",
		"symbol", symbol,
		"state", string(res.State),
	)
	return res
}

// GetTradeSuggestions runs a batch with observability
func (oa *observableAgent) GetTradeSuggestions(ctx context.Context, symbols []string) *types.BatchResult {
	ctx, span := trace.StartSpan(ctx, "agent.GetTradeSuggestions")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Starting batch analysis", "symbols", len(symbols))

	br := oa.agent.GetTradeSuggestions(ctx, symbols)

	failed := 0
	for _, res := range br.Results() {
		if res.Err != nil {
			failed++
		}
	}
	logger.InfoSkip(ctx, 1, "Batch analysis complete",
		"symbols", len(symbols),
		"failed", failed,
	)
	return br
}

func (oa *observableAgent) GetBuySignals() []*types.SymbolResult {
	return oa.agent.GetBuySignals()
}

func (oa *observableAgent) GetSellSignals() []*types.SymbolResult {
	return oa.agent.GetSellSignals()
}
