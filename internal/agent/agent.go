// Package agent orchestrates the per-symbol pipeline: price history in,
// technical signal out, optionally enriched by an LLM trade suggestion.
// Failures are contained at the symbol boundary so one bad symbol never
// aborts a batch.
package agent

import (
	"context"
	"errors"
	"sync"

	"fin-agent/internal/interfaces"
	"fin-agent/internal/logger"
	"fin-agent/internal/news"
	"fin-agent/internal/normalize"
	"fin-agent/internal/signal"
	"fin-agent/internal/store"
	"fin-agent/internal/trace"
	"fin-agent/internal/types"
)

type Agent struct {
	cfg     *store.Config
	fetcher interfaces.Fetcher
	analyst interfaces.Analyst
	newsSvc *news.Service

	mu    sync.Mutex
	batch *types.BatchResult
}

var _ interfaces.Agent = (*Agent)(nil)

// New builds an agent. newsSvc may be nil when market-context assessment
// is disabled.
func New(cfg *store.Config, fetcher interfaces.Fetcher, analyst interfaces.Analyst, newsSvc *news.Service) *Agent {
	return &Agent{
		cfg:     cfg,
		fetcher: fetcher,
		analyst: analyst,
		newsSvc: newsSvc,
	}
}

// AnalyzeSymbol runs the full pipeline for one symbol. The returned entry
// is always well formed: fetch or indicator failure is recorded on it, and
// an exhausted LLM retry still leaves the technical signal in place.
func (a *Agent) AnalyzeSymbol(ctx context.Context, symbol string) *types.SymbolResult {
	ctx, span := trace.StartSpan(ctx, "agent.AnalyzeSymbol")
	defer span.End()

	res := &types.SymbolResult{Symbol: symbol, State: types.StatePending}

	candles, err := a.fetcher.FetchHistory(ctx, symbol, a.cfg.Analysis.PeriodDays)
	if err != nil {
		logger.ErrorWithErr(ctx, "Price history fetch failed", err, "symbol", symbol)
		finalize(res, err)
		return res
	}

	sig, err := signal.Compute(symbol, candles, a.cfg)
	if err != nil {
		logger.ErrorWithErr(ctx, "Signal computation failed", err, "symbol", symbol)
		finalize(res, err)
		return res
	}
	res.Signal = &sig
	res.State = types.StateTechnicalDone
	logger.Signal(ctx, symbol, string(sig.Direction), sig.RSI, sig.MACD.Histogram)

	// The analyst is checked before every call: a missing key degrades the
	// whole run to technical-only mode instead of failing per symbol.
	if !a.cfg.UseLLM || !a.analyst.Enabled() {
		res.State = types.StateLLMSkipped
		finalize(res, nil)
		return res
	}

	var mktCtx *types.MarketContext
	if a.newsSvc != nil {
		mktCtx = a.newsSvc.GetMarketContext(ctx, symbol)
	}

	raw, err := a.analyst.Suggest(ctx, sig, mktCtx)
	if err != nil {
		// Partial success: the technical signal is never discarded because
		// the LLM stage failed.
		logger.ErrorWithErr(ctx, "LLM suggestion failed, keeping technical signal", err, "symbol", symbol)
		res.State = types.StateLLMFailed
		finalize(res, err)
		return res
	}

	sug := normalize.Normalize(sig, raw)
	res.Suggestion = &sug
	res.State = types.StateLLMDone
	logger.Suggestion(ctx, symbol, sug.Recommendation)
	finalize(res, nil)
	return res
}

// finalize stamps the terminal state, keeping the stage marker that led
// to it in ErrMsg-visible form.
func finalize(res *types.SymbolResult, err error) {
	if err != nil {
		res.Err = err
		res.ErrMsg = err.Error()
	}
	if res.State == types.StatePending {
		// Fetch or indicator stage failed before a signal existed.
		res.State = types.StateFinalized
		return
	}
	if res.State == types.StateTechnicalDone {
		res.State = types.StateFinalized
	}
	// LLM_SKIPPED / LLM_DONE / LLM_FAILED are terminal stage markers kept
	// on the entry; the entry itself is final once recorded in the batch.
}

// GetTradeSuggestions runs the pipeline over every symbol with a bounded
// worker pool. The result has one entry per input symbol in input order;
// on cancellation, symbols not yet started are marked CANCELLED rather
// than silently dropped.
func (a *Agent) GetTradeSuggestions(ctx context.Context, symbols []string) *types.BatchResult {
	timer := logger.StartOperation(ctx, "agent.GetTradeSuggestions", "symbols", len(symbols))
	ctx = timer.GetContext()

	br := types.NewBatchResult(symbols)

	workers := a.cfg.Batch.Workers
	if workers > len(symbols) {
		workers = len(symbols)
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan string)
	var mu sync.Mutex // guards br entry replacement; one writer per symbol
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sym := range jobs {
				res := a.AnalyzeSymbol(ctx, sym)
				mu.Lock()
				br.Entries[sym] = res
				mu.Unlock()
			}
		}()
	}

feed:
	for _, sym := range symbols {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			// Stop submitting; in-flight symbols finish at their own pace.
			break feed
		case jobs <- sym:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		for _, sym := range symbols {
			if br.Entries[sym].State == types.StatePending {
				br.Entries[sym].State = types.StateCancelled
				br.Entries[sym].Err = err
				br.Entries[sym].ErrMsg = err.Error()
			}
		}
		logger.Warn(ctx, "Batch cancelled before completion", "symbols", len(symbols))
	}

	a.mu.Lock()
	a.batch = br
	a.mu.Unlock()

	timer.End()
	return br
}

// GetBuySignals returns the accumulated entries whose technical direction
// is BUY, preserving insertion order. No recomputation happens here.
func (a *Agent) GetBuySignals() []*types.SymbolResult {
	return a.filterByDirection(types.DirectionBuy)
}

// GetSellSignals returns the accumulated entries whose technical direction
// is SELL, preserving insertion order.
func (a *Agent) GetSellSignals() []*types.SymbolResult {
	return a.filterByDirection(types.DirectionSell)
}

func (a *Agent) filterByDirection(dir types.Direction) []*types.SymbolResult {
	a.mu.Lock()
	br := a.batch
	a.mu.Unlock()
	if br == nil {
		return nil
	}

	out := []*types.SymbolResult{}
	for _, res := range br.Results() {
		if res.Signal != nil && res.Signal.Direction == dir {
			out = append(out, res)
		}
	}
	return out
}

// Batch returns the most recent batch result, or nil before any run.
func (a *Agent) Batch() *types.BatchResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.batch
}

// IsInsufficientData reports whether an entry failed for lack of history.
func IsInsufficientData(res *types.SymbolResult) bool {
	return res.Err != nil && errors.Is(res.Err, signal.ErrInsufficientData)
}
