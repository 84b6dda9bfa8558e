package llmobs

import (
	"context"

	"fin-agent/internal/interfaces"
	"fin-agent/internal/logger"
	"fin-agent/internal/trace"
	"fin-agent/internal/types"
)

// observableAnalyst wraps an Analyst with observability (logging & tracing)
type observableAnalyst struct {
	analyst interfaces.Analyst
}

// Compile-time interface check
var _ interfaces.Analyst = (*observableAnalyst)(nil)

// Wrap wraps an analyst with observability middleware
func Wrap(analyst interfaces.Analyst) interfaces.Analyst {
	return &observableAnalyst{
		analyst: analyst,
	}
}

func (oa *observableAnalyst) Enabled() bool { return oa.analyst.Enabled() }

// Suggest requests a trade suggestion with observability
func (oa *observableAnalyst) Suggest(
	ctx context.Context,
	sig types.TechnicalSignal,
	mktCtx *types.MarketContext,
) (types.RawResponse, error) {
	ctx, span := trace.StartSpan(ctx, "llm.Suggest")
	defer span.End()

	// Use DebugSkip(1) to report the actual caller, not this middleware wrapper
	logger.DebugSkip(ctx, 1, "Requesting trade suggestion",
		"symbol", sig.Symbol,
		"direction", string(sig.Direction),
		"rsi", sig.RSI,
	)

	raw, err := oa.analyst.Suggest(ctx, sig, mktCtx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to get trade suggestion", err,
			"symbol", sig.Symbol,
			"direction", string(sig.Direction),
		)
		return types.RawResponse{}, err
	}

	logger.InfoSkip(ctx, 1, "Trade suggestion received",
		"symbol", sig.Symbol,
		"structured", raw.IsStructured(),
	)

	return raw, nil
}
