// Package llm holds the pieces shared by every analyst implementation:
// the suggestion prompt, the retry policy and the raw-response parsing.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"fin-agent/internal/store"
	"fin-agent/internal/types"
)

// ErrDisabled is returned by analysts constructed without an API key.
// Callers should check Enabled() and skip the LLM stage instead of
// hitting this per call.
var ErrDisabled = errors.New("llm analyst disabled: no API key configured")

// TransientError marks a failure worth retrying: network errors, rate
// limits and 5xx responses. Anything else stops the retry loop immediately.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err as retryable.
func Transient(err error) error { return &TransientError{Err: err} }

// IsTransient reports whether err should be retried.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// ClassifyStatus converts a non-2xx HTTP status into a transient or
// permanent error. 429 and 5xx are transient; auth and malformed-request
// statuses are permanent.
func ClassifyStatus(provider string, status int, body string) error {
	err := fmt.Errorf("%s http %d: %s", provider, status, strings.TrimSpace(body))
	if status == http.StatusTooManyRequests || status >= 500 {
		return Transient(err)
	}
	return err
}

// Retry runs op with exponential backoff and jitter until it succeeds,
// returns a permanent error, or the configured attempt limit is reached.
// Each attempt gets its own timeout; limiter gates the request rate.
func Retry(ctx context.Context, cfg *store.Config, limiter *rate.Limiter, op func(ctx context.Context) error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Duration(cfg.Retry.InitialBackoffMS) * time.Millisecond
	bo.MaxElapsedTime = time.Duration(cfg.Retry.MaxElapsedSeconds) * time.Second

	attempts := 0
	wrapped := func() error {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return backoff.Permanent(err)
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Retry.AttemptTimeoutSec)*time.Second)
		defer cancel()

		err := op(attemptCtx)
		if err == nil {
			return nil
		}
		attempts++
		if !IsTransient(err) {
			return backoff.Permanent(err)
		}
		if attempts >= cfg.Retry.MaxAttempts {
			return backoff.Permanent(fmt.Errorf("retries exhausted after %d attempts: %w", attempts, err))
		}
		return err
	}

	return backoff.Retry(wrapped, backoff.WithContext(bo, ctx))
}

// BuildSuggestionPrompt embeds the technical signal and asks for the
// trade-suggestion schema. mktCtx is appended when market-context
// assessment ran for the symbol.
func BuildSuggestionPrompt(sig types.TechnicalSignal, mktCtx *types.MarketContext, cfg *store.Config) string {
	sigB, _ := json.MarshalIndent(sig, "", "  ")

	var sb strings.Builder
	sb.WriteString("You are an expert financial analyst. Based on the following technical signal, generate a specific trade suggestion.\n\n")
	sb.WriteString("Technical Signal:\n")
	sb.Write(sigB)
	sb.WriteString("\n")

	if mktCtx != nil {
		ctxB, _ := json.MarshalIndent(mktCtx, "", "  ")
		sb.WriteString("\nMarket Context:\n")
		sb.Write(ctxB)
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, `
Respond ONLY with compact JSON containing:
- symbol: %s
- recommendation: Strong Buy, Buy, Hold, Sell, or Strong Sell
- entry_price: Specific entry price to execute at
- suggested_stop_loss: Hard stop loss level (around %.1f%% below entry for longs)
- take_profit_target_1: First profit target
- take_profit_target_2: Second profit target (around %.1f%% above entry)
- position_size_suggestion: Percentage of portfolio (5%%, 10%%, 15%%, etc.)
- risk_reward_ratio: Expected ratio (e.g. "1:3")
- time_horizon: Expected hold duration (days/weeks)
- urgency: Immediate, This Week, This Month, or Accumulate
- probability_of_success: Estimated probability of profit (0-100)
- key_factors: List of main factors influencing the decision

Make the suggestion actionable and specific. Consider capital preservation. Omit any field you cannot justify.`,
		sig.Symbol, cfg.Analysis.StopLossPct, cfg.Analysis.TakeProfitPct)

	return sb.String()
}

// ParseRaw converts the assistant text into the tagged RawResponse union.
// It looks for a JSON object inside the text; if none decodes, the verbatim
// text is carried instead. It never fails.
func ParseRaw(text string) types.RawResponse {
	t := strings.TrimSpace(text)

	if strings.HasPrefix(t, "{") {
		var m map[string]any
		if err := json.Unmarshal([]byte(t), &m); err == nil {
			return types.RawResponse{Structured: m}
		}
	}

	start := strings.Index(t, "{")
	end := strings.LastIndex(t, "}")
	if start >= 0 && end > start {
		var m map[string]any
		if err := json.Unmarshal([]byte(t[start:end+1]), &m); err == nil {
			return types.RawResponse{Structured: m}
		}
	}

	return types.RawResponse{Text: t}
}

// NewLimiter builds the client-side rate limiter shared by the providers.
func NewLimiter(cfg *store.Config) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(cfg.Retry.RatePerSecond), 1)
}
