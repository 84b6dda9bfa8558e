package auditlog

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"fin-agent/internal/types"
)

var mu sync.Mutex

// SignalEntry records a finalized technical signal, one JSON line per
// symbol per run.
type SignalEntry struct {
	Time, Symbol, Direction string
	Entry                   float64
	Indicators              map[string]float64
	Extra                   map[string]any `json:"extra,omitempty"`
}

// SuggestionEntry records a normalized LLM suggestion alongside the
// technical direction it was built on.
type SuggestionEntry struct {
	Time, Symbol, Recommendation, Direction string
	EntryPrice, StopLoss                    *float64
	KeyFactors                              []string
	Extra                                   map[string]any `json:"extra,omitempty"`
}

func logDir() string {
	if v := os.Getenv("AGENT_LOG_DIR"); v != "" {
		return v
	}
	return "logs"
}
func dailyFilepath(t time.Time) string {
	d := t.UTC().Format("2006-01-02")
	return filepath.Join(logDir(), d+".txt")
}
func suggestionsFilepath(t time.Time) string {
	d := t.UTC().Format("2006-01-02")
	return filepath.Join(logDir(), "suggestions", d+".txt")
}

func appendLine(p string, v any) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	b, _ := json.Marshal(v)
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// AppendSignal writes a technical-signal line to today's daily file.
func AppendSignal(sig *types.TechnicalSignal) error {
	mu.Lock()
	defer mu.Unlock()
	now := time.Now().UTC()
	e := SignalEntry{
		Time:      now.Format("2006-01-02 15:04:05"),
		Symbol:    sig.Symbol,
		Direction: string(sig.Direction),
		Entry:     sig.EntryPrice,
		Indicators: map[string]float64{
			"rsi":        sig.RSI,
			"macd":       sig.MACD.Value,
			"signal":     sig.MACD.SignalLine,
			"histogram":  sig.MACD.Histogram,
			"support":    sig.Support,
			"resistance": sig.Resistance,
		},
	}
	return appendLine(dailyFilepath(now), e)
}

// AppendSuggestion writes a suggestion line to today's suggestions file.
func AppendSuggestion(sig *types.TechnicalSignal, sug *types.TradeSuggestion) error {
	mu.Lock()
	defer mu.Unlock()
	now := time.Now().UTC()
	e := SuggestionEntry{
		Time:           now.Format("2006-01-02 15:04:05"),
		Symbol:         sig.Symbol,
		Recommendation: sug.Recommendation,
		Direction:      string(sig.Direction),
		EntryPrice:     sug.EntryPrice,
		StopLoss:       sug.SuggestedStopLoss,
		KeyFactors:     sug.KeyFactors,
	}
	return appendLine(suggestionsFilepath(now), e)
}

// CompressOlder gzips daily files older than retentionDays and removes
// the originals. A zero or negative retention disables compression.
func CompressOlder(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	root := logDir()
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if filepath.Ext(p) != ".txt" {
			return nil
		}
		info, er := os.Stat(p)
		if er != nil {
			return nil
		}
		cutoff := time.Now().AddDate(0, 0, -retentionDays)
		if info.ModTime().Before(cutoff) {
			gz := p + ".gz"
			// if already gz exists, remove original .txt
			if _, e2 := os.Stat(gz); e2 == nil {
				_ = os.Remove(p)
				return nil
			}

			in, e3 := os.Open(p)
			if e3 != nil {
				return nil
			}
			defer in.Close()

			out, e4 := os.OpenFile(gz, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
			if e4 != nil {
				return nil
			}
			gw := gzip.NewWriter(out)
			if _, e5 := io.Copy(gw, in); e5 == nil {
				_ = gw.Close()
				_ = out.Close()
				_ = os.Remove(p)
			} else {
				_ = gw.Close()
				_ = out.Close()
			}
		}
		return nil
	})
}
