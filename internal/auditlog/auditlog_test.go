package auditlog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fin-agent/internal/types"
)

func useTempLogDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("AGENT_LOG_DIR", dir)
	return dir
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open %s: %v", path, err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines
}

func TestAppendSignal(t *testing.T) {
	dir := useTempLogDir(t)

	sig := &types.TechnicalSignal{
		Symbol:     "AAPL",
		Direction:  types.DirectionBuy,
		RSI:        27.5,
		MACD:       types.MACD{Value: 1.2, SignalLine: 0.9, Histogram: 0.3},
		Support:    145.0,
		Resistance: 158.0,
		EntryPrice: 150.25,
	}
	if err := AppendSignal(sig); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := AppendSignal(sig); err != nil {
		t.Fatalf("Unexpected error on second append: %v", err)
	}

	day := time.Now().UTC().Format("2006-01-02")
	lines := readLines(t, filepath.Join(dir, day+".txt"))
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines appended, got %d", len(lines))
	}

	var e SignalEntry
	if err := json.Unmarshal([]byte(lines[0]), &e); err != nil {
		t.Fatalf("Line is not valid JSON: %v", err)
	}
	if e.Symbol != "AAPL" || e.Direction != "BUY" {
		t.Errorf("Expected AAPL BUY, got %s %s", e.Symbol, e.Direction)
	}
	if e.Indicators["rsi"] != 27.5 {
		t.Errorf("Expected RSI 27.5 recorded, got %f", e.Indicators["rsi"])
	}
	if e.Entry != 150.25 {
		t.Errorf("Expected entry 150.25, got %f", e.Entry)
	}
}

func TestAppendSuggestion(t *testing.T) {
	dir := useTempLogDir(t)

	entry := 150.25
	sig := &types.TechnicalSignal{Symbol: "AAPL", Direction: types.DirectionBuy}
	sug := &types.TradeSuggestion{
		Symbol:         "AAPL",
		Recommendation: "Strong Buy",
		EntryPrice:     &entry,
		KeyFactors:     []string{"oversold RSI"},
	}
	if err := AppendSuggestion(sig, sug); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	day := time.Now().UTC().Format("2006-01-02")
	lines := readLines(t, filepath.Join(dir, "suggestions", day+".txt"))
	if len(lines) != 1 {
		t.Fatalf("Expected 1 line, got %d", len(lines))
	}

	var e SuggestionEntry
	if err := json.Unmarshal([]byte(lines[0]), &e); err != nil {
		t.Fatalf("Line is not valid JSON: %v", err)
	}
	if e.Recommendation != "Strong Buy" {
		t.Errorf("Expected Strong Buy, got %s", e.Recommendation)
	}
	if e.EntryPrice == nil || *e.EntryPrice != 150.25 {
		t.Errorf("Expected entry 150.25, got %v", e.EntryPrice)
	}
	if e.StopLoss != nil {
		t.Error("Expected absent stop loss to stay null")
	}
}

func TestCompressOlderDisabled(t *testing.T) {
	useTempLogDir(t)
	if err := CompressOlder(0); err != nil {
		t.Errorf("Expected zero retention to be a no-op, got %v", err)
	}
	if err := CompressOlder(-1); err != nil {
		t.Errorf("Expected negative retention to be a no-op, got %v", err)
	}
}

func TestCompressOlder(t *testing.T) {
	dir := useTempLogDir(t)

	stale := filepath.Join(dir, "2020-01-01.txt")
	if err := os.WriteFile(stale, []byte("{}\n"), 0o644); err != nil {
		t.Fatalf("Failed to seed stale file: %v", err)
	}
	old := time.Now().AddDate(0, 0, -30)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatalf("Failed to age stale file: %v", err)
	}

	fresh := filepath.Join(dir, time.Now().UTC().Format("2006-01-02")+".txt")
	if err := os.WriteFile(fresh, []byte("{}\n"), 0o644); err != nil {
		t.Fatalf("Failed to seed fresh file: %v", err)
	}

	if err := CompressOlder(7); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if _, err := os.Stat(stale + ".gz"); err != nil {
		t.Error("Expected stale file to be gzipped")
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("Expected stale original to be removed")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Error("Expected fresh file to be left alone")
	}
}
