package interfaces

import (
	"context"

	"fin-agent/internal/types"
)

// Analyst turns a technical signal into a raw LLM response. Implementations
// own their own retry, timeout and rate-limit policy; schema validation is
// the normalizer's job, not theirs.
type Analyst interface {
	// Suggest requests a structured trade recommendation for the signal.
	// mktCtx may be nil when market-context assessment is disabled.
	Suggest(ctx context.Context, sig types.TechnicalSignal, mktCtx *types.MarketContext) (types.RawResponse, error)

	// Enabled reports whether the analyst can make calls at all. A missing
	// API key makes an analyst permanently disabled rather than failing
	// per-call; callers skip the LLM stage when this returns false.
	Enabled() bool
}
