// Package normalize maps raw analyst output, structured or free text, into
// the fixed TradeSuggestion schema. It never fails: unrecoverable fields
// are recorded absent rather than defaulted so nothing downstream acts on
// a fabricated trade parameter.
package normalize

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"fin-agent/internal/types"
)

// Clock returns the normalization timestamp. Swappable in tests.
var Clock = time.Now

// Normalize converts one raw response for one signal into a well-formed
// TradeSuggestion. The timestamp is always the normalization time,
// independent of anything the analyst echoed.
func Normalize(sig types.TechnicalSignal, raw types.RawResponse) types.TradeSuggestion {
	sug := types.TradeSuggestion{
		Symbol:    sig.Symbol,
		Timestamp: Clock().UTC(),
	}

	if raw.IsStructured() {
		fromStructured(&sug, raw.Structured)
		return sug
	}
	fromText(&sug, raw.Text)
	return sug
}

func fromStructured(sug *types.TradeSuggestion, m map[string]any) {
	if s, ok := coerceString(pick(m, "recommendation")); ok {
		sug.Recommendation = s
	}
	if f, ok := coerceFloat(pick(m, "entry_price", "suggested_entry")); ok {
		sug.EntryPrice = &f
	}
	if f, ok := coerceFloat(pick(m, "suggested_stop_loss", "stop_loss")); ok {
		sug.SuggestedStopLoss = &f
	}
	if f, ok := coerceFloat(pick(m, "take_profit_target_1", "suggested_take_profit", "take_profit")); ok {
		sug.TakeProfitTarget1 = &f
	}
	if f, ok := coerceFloat(pick(m, "take_profit_target_2")); ok {
		sug.TakeProfitTarget2 = &f
	}
	if s, ok := coerceString(pick(m, "position_size_suggestion", "position_size")); ok {
		sug.PositionSizeSuggestion = &s
	}
	if s, ok := coerceString(pick(m, "risk_reward_ratio")); ok {
		sug.RiskRewardRatio = &s
	}
	if s, ok := coerceString(pick(m, "time_horizon")); ok {
		sug.TimeHorizon = &s
	}
	if s, ok := coerceString(pick(m, "urgency")); ok {
		sug.Urgency = &s
	}
	if f, ok := coerceFloat(pick(m, "probability_of_success")); ok {
		p := clampProbability(f)
		sug.ProbabilityOfSuccess = &p
	}
	sug.KeyFactors = coerceStringSlice(pick(m, "key_factors"))
}

var priceLabels = []struct {
	field string
	re    *regexp.Regexp
}{
	{"entry", regexp.MustCompile(`(?i)entry[^0-9$-]*\$?\s*(-?\d+(?:,\d{3})*(?:\.\d+)?)`)},
	{"stop", regexp.MustCompile(`(?i)stop[\s-]?loss[^0-9$-]*\$?\s*(-?\d+(?:,\d{3})*(?:\.\d+)?)`)},
	{"tp", regexp.MustCompile(`(?i)take[\s-]?profit[^0-9$-]*\$?\s*(-?\d+(?:,\d{3})*(?:\.\d+)?)`)},
	{"target", regexp.MustCompile(`(?i)target[^0-9$-]*\$?\s*(-?\d+(?:,\d{3})*(?:\.\d+)?)`)},
}

// fromText is the best-effort branch for analysts that declined to produce
// the requested schema. It scans for price-like tokens near recognizable
// labels; when nothing is found the record carries only the raw text.
func fromText(sug *types.TradeSuggestion, text string) {
	found := false
	for _, pl := range priceLabels {
		match := pl.re.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(match[1], ",", ""), 64)
		if err != nil {
			continue
		}
		switch pl.field {
		case "entry":
			if sug.EntryPrice == nil {
				v := f
				sug.EntryPrice = &v
				found = true
			}
		case "stop":
			if sug.SuggestedStopLoss == nil {
				v := f
				sug.SuggestedStopLoss = &v
				found = true
			}
		case "tp", "target":
			if sug.TakeProfitTarget1 == nil {
				v := f
				sug.TakeProfitTarget1 = &v
				found = true
			}
		}
	}

	if found {
		sug.Recommendation = "Partial"
		sug.KeyFactors = []string{text}
		return
	}
	sug.Recommendation = "Unparsed"
	if text != "" {
		sug.KeyFactors = []string{text}
	}
}

// pick returns the first present key. Later keys are aliases seen in the
// wild for the same concept.
func pick(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func coerceFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		return t, true
	case int:
		return float64(t), true
	case string:
		s := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(t), "$"))
		s = strings.ReplaceAll(s, ",", "")
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func coerceString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		return s, s != ""
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	default:
		return "", false
	}
}

func coerceStringSlice(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		if s, ok := coerceString(v); ok {
			return []string{s}
		}
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		switch t := item.(type) {
		case string:
			out = append(out, t)
		default:
			out = append(out, fmt.Sprintf("%v", t))
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func clampProbability(f float64) int {
	p := int(math.Round(f))
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
