package normalize

import (
	"testing"
	"time"

	"fin-agent/internal/types"
)

func fixedClock() time.Time {
	return time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
}

func withFixedClock(t *testing.T) {
	t.Helper()
	old := Clock
	Clock = fixedClock
	t.Cleanup(func() { Clock = old })
}

func sigFor(symbol string) types.TechnicalSignal {
	return types.TechnicalSignal{Symbol: symbol, Direction: types.DirectionBuy, EntryPrice: 150}
}

func TestNormalizeStructuredFull(t *testing.T) {
	withFixedClock(t)

	raw := types.RawResponse{Structured: map[string]any{
		"recommendation":           "Strong Buy",
		"entry_price":              150.25,
		"suggested_stop_loss":      147.0,
		"take_profit_target_1":     155.0,
		"take_profit_target_2":     160.5,
		"position_size_suggestion": "10%",
		"risk_reward_ratio":        "1:3",
		"time_horizon":             "2 weeks",
		"urgency":                  "This Week",
		"probability_of_success":   65.0,
		"key_factors":              []any{"oversold RSI", "MACD crossover"},
	}}

	sug := Normalize(sigFor("AAPL"), raw)

	if sug.Symbol != "AAPL" {
		t.Errorf("Expected symbol AAPL, got %s", sug.Symbol)
	}
	if sug.Recommendation != "Strong Buy" {
		t.Errorf("Expected recommendation Strong Buy, got %s", sug.Recommendation)
	}
	if sug.EntryPrice == nil || *sug.EntryPrice != 150.25 {
		t.Errorf("Expected entry price 150.25, got %v", sug.EntryPrice)
	}
	if sug.SuggestedStopLoss == nil || *sug.SuggestedStopLoss != 147.0 {
		t.Errorf("Expected stop loss 147, got %v", sug.SuggestedStopLoss)
	}
	if sug.TakeProfitTarget2 == nil || *sug.TakeProfitTarget2 != 160.5 {
		t.Errorf("Expected second target 160.5, got %v", sug.TakeProfitTarget2)
	}
	if sug.ProbabilityOfSuccess == nil || *sug.ProbabilityOfSuccess != 65 {
		t.Errorf("Expected probability 65, got %v", sug.ProbabilityOfSuccess)
	}
	if len(sug.KeyFactors) != 2 || sug.KeyFactors[0] != "oversold RSI" {
		t.Errorf("Expected two key factors, got %v", sug.KeyFactors)
	}
	if !sug.Timestamp.Equal(fixedClock()) {
		t.Errorf("Expected normalization timestamp, got %v", sug.Timestamp)
	}
}

func TestNormalizeAbsentFieldsStayNil(t *testing.T) {
	withFixedClock(t)

	raw := types.RawResponse{Structured: map[string]any{
		"recommendation": "Hold",
	}}
	sug := Normalize(sigFor("MSFT"), raw)

	if sug.Recommendation != "Hold" {
		t.Errorf("Expected recommendation Hold, got %s", sug.Recommendation)
	}
	if sug.EntryPrice != nil {
		t.Errorf("Expected absent entry price to stay nil, got %v", *sug.EntryPrice)
	}
	if sug.SuggestedStopLoss != nil || sug.TakeProfitTarget1 != nil || sug.TakeProfitTarget2 != nil {
		t.Error("Expected absent price fields to stay nil")
	}
	if sug.ProbabilityOfSuccess != nil || sug.Urgency != nil || sug.TimeHorizon != nil {
		t.Error("Expected absent string fields to stay nil")
	}
	if sug.KeyFactors != nil {
		t.Errorf("Expected nil key factors, got %v", sug.KeyFactors)
	}
}

func TestNormalizeAliasKeysAndCoercion(t *testing.T) {
	withFixedClock(t)

	raw := types.RawResponse{Structured: map[string]any{
		"recommendation":  "Buy",
		"suggested_entry": "$1,234.56",
		"stop_loss":       1200,
		"take_profit":     "1,300",
	}}
	sug := Normalize(sigFor("NVDA"), raw)

	if sug.EntryPrice == nil || *sug.EntryPrice != 1234.56 {
		t.Errorf("Expected coerced entry 1234.56, got %v", sug.EntryPrice)
	}
	if sug.SuggestedStopLoss == nil || *sug.SuggestedStopLoss != 1200 {
		t.Errorf("Expected stop loss 1200 via alias, got %v", sug.SuggestedStopLoss)
	}
	if sug.TakeProfitTarget1 == nil || *sug.TakeProfitTarget1 != 1300 {
		t.Errorf("Expected target 1300 via alias, got %v", sug.TakeProfitTarget1)
	}
}

func TestNormalizeUnparseableValuesDropped(t *testing.T) {
	withFixedClock(t)

	raw := types.RawResponse{Structured: map[string]any{
		"recommendation":         "Buy",
		"entry_price":            "around the current level",
		"suggested_stop_loss":    map[string]any{"value": 140},
		"probability_of_success": "high",
	}}
	sug := Normalize(sigFor("AMZN"), raw)

	if sug.EntryPrice != nil {
		t.Errorf("Expected unparseable entry to stay nil, got %v", *sug.EntryPrice)
	}
	if sug.SuggestedStopLoss != nil {
		t.Error("Expected non-numeric stop loss to stay nil")
	}
	if sug.ProbabilityOfSuccess != nil {
		t.Error("Expected non-numeric probability to stay nil")
	}
}

func TestNormalizeProbabilityClamped(t *testing.T) {
	withFixedClock(t)

	raw := types.RawResponse{Structured: map[string]any{"probability_of_success": 150.0}}
	sug := Normalize(sigFor("X"), raw)
	if sug.ProbabilityOfSuccess == nil || *sug.ProbabilityOfSuccess != 100 {
		t.Errorf("Expected probability clamped to 100, got %v", sug.ProbabilityOfSuccess)
	}

	raw = types.RawResponse{Structured: map[string]any{"probability_of_success": -5.0}}
	sug = Normalize(sigFor("X"), raw)
	if sug.ProbabilityOfSuccess == nil || *sug.ProbabilityOfSuccess != 0 {
		t.Errorf("Expected probability clamped to 0, got %v", sug.ProbabilityOfSuccess)
	}
}

func TestNormalizeTextWithPrices(t *testing.T) {
	withFixedClock(t)

	text := "Entry around $150.50 with a stop-loss at 145 and a take-profit near $162."
	sug := Normalize(sigFor("AAPL"), types.RawResponse{Text: text})

	if sug.Recommendation != "Partial" {
		t.Errorf("Expected Partial recommendation, got %s", sug.Recommendation)
	}
	if sug.EntryPrice == nil || *sug.EntryPrice != 150.50 {
		t.Errorf("Expected entry 150.50 from text, got %v", sug.EntryPrice)
	}
	if sug.SuggestedStopLoss == nil || *sug.SuggestedStopLoss != 145 {
		t.Errorf("Expected stop 145 from text, got %v", sug.SuggestedStopLoss)
	}
	if sug.TakeProfitTarget1 == nil || *sug.TakeProfitTarget1 != 162 {
		t.Errorf("Expected target 162 from text, got %v", sug.TakeProfitTarget1)
	}
	if len(sug.KeyFactors) != 1 || sug.KeyFactors[0] != text {
		t.Errorf("Expected raw text preserved in key factors, got %v", sug.KeyFactors)
	}
}

func TestNormalizeTextWithoutPrices(t *testing.T) {
	withFixedClock(t)

	text := "The market looks uncertain. I would wait for confirmation."
	sug := Normalize(sigFor("TSLA"), types.RawResponse{Text: text})

	if sug.Recommendation != "Unparsed" {
		t.Errorf("Expected Unparsed recommendation, got %s", sug.Recommendation)
	}
	if sug.EntryPrice != nil || sug.SuggestedStopLoss != nil || sug.TakeProfitTarget1 != nil {
		t.Error("Expected no fabricated prices from free text")
	}
	if len(sug.KeyFactors) != 1 || sug.KeyFactors[0] != text {
		t.Errorf("Expected raw text in key factors, got %v", sug.KeyFactors)
	}
}

func TestNormalizeNeverFailsOnEmpty(t *testing.T) {
	withFixedClock(t)

	sug := Normalize(sigFor("EMPTY"), types.RawResponse{})
	if sug.Symbol != "EMPTY" {
		t.Errorf("Expected symbol EMPTY, got %s", sug.Symbol)
	}
	if sug.Recommendation != "Unparsed" {
		t.Errorf("Expected Unparsed for empty response, got %s", sug.Recommendation)
	}
	if sug.KeyFactors != nil {
		t.Errorf("Expected no key factors for empty text, got %v", sug.KeyFactors)
	}
	if sug.Timestamp.IsZero() {
		t.Error("Expected timestamp to be stamped")
	}
}
