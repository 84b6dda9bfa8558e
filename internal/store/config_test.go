package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
universe: ["AAPL"]
use_llm: false
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Analysis.PeriodDays != 60 {
		t.Errorf("Expected default period 60, got %d", cfg.Analysis.PeriodDays)
	}
	if cfg.Analysis.RSIPeriod != 14 {
		t.Errorf("Expected default RSI period 14, got %d", cfg.Analysis.RSIPeriod)
	}
	if cfg.Analysis.RSIOversold != 30 || cfg.Analysis.RSIOverbought != 70 {
		t.Errorf("Expected default RSI thresholds 30/70, got %f/%f",
			cfg.Analysis.RSIOversold, cfg.Analysis.RSIOverbought)
	}
	if cfg.Analysis.MACDFast != 12 || cfg.Analysis.MACDSlow != 26 || cfg.Analysis.MACDSignal != 9 {
		t.Error("Expected default MACD periods 12/26/9")
	}
	if cfg.Batch.Workers != 4 {
		t.Errorf("Expected default 4 workers, got %d", cfg.Batch.Workers)
	}
	if cfg.Data.Source != "STATIC" {
		t.Errorf("Expected default STATIC data source, got %s", cfg.Data.Source)
	}
	if cfg.Retry.MaxAttempts != 3 {
		t.Errorf("Expected default 3 retry attempts, got %d", cfg.Retry.MaxAttempts)
	}
	if cfg.Export.SuggestionsPath != "trade_suggestions.json" {
		t.Errorf("Expected default suggestions path, got %s", cfg.Export.SuggestionsPath)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfig(t, `
universe: ["AAPL", "MSFT"]
use_llm: true
analysis:
  period_days: 90
  rsi_oversold: 25
  rsi_overbought: 75
llm:
  provider: "OPENAI"
  model: "gpt-4o-mini"
batch:
  workers: 8
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(cfg.Universe) != 2 {
		t.Errorf("Expected 2 symbols, got %d", len(cfg.Universe))
	}
	if cfg.Analysis.PeriodDays != 90 {
		t.Errorf("Expected period 90, got %d", cfg.Analysis.PeriodDays)
	}
	if cfg.Analysis.RSIOversold != 25 {
		t.Errorf("Expected oversold 25, got %f", cfg.Analysis.RSIOversold)
	}
	if cfg.LLM.Provider != "OPENAI" {
		t.Errorf("Expected OPENAI provider, got %s", cfg.LLM.Provider)
	}
	if cfg.Batch.Workers != 8 {
		t.Errorf("Expected 8 workers, got %d", cfg.Batch.Workers)
	}
	// Untouched sections still get defaults.
	if cfg.Analysis.MACDSlow != 26 {
		t.Errorf("Expected default MACD slow 26, got %d", cfg.Analysis.MACDSlow)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{
			"empty universe",
			`universe: []`,
			"universe",
		},
		{
			"inverted rsi thresholds",
			"universe: [\"AAPL\"]\nanalysis:\n  rsi_oversold: 80\n  rsi_overbought: 20\n",
			"rsi_oversold",
		},
		{
			"analysis period shorter than rsi window",
			"universe: [\"AAPL\"]\nanalysis:\n  period_days: 10\n",
			"must exceed rsi_period",
		},
		{
			"analysis period shorter than macd slow window",
			"universe: [\"AAPL\"]\nanalysis:\n  period_days: 20\n  rsi_period: 5\n",
			"must cover macd_slow",
		},
		{
			"inverted macd periods",
			"universe: [\"AAPL\"]\nanalysis:\n  macd_fast: 30\n  macd_slow: 10\n",
			"macd_fast",
		},
		{
			"unknown provider",
			"universe: [\"AAPL\"]\nuse_llm: true\nllm:\n  provider: \"GEMINI\"\n",
			"llm.provider",
		},
		{
			"unknown data source",
			"universe: [\"AAPL\"]\ndata:\n  source: \"CSV\"\n",
			"data.source",
		},
	}

	for _, tc := range cases {
		path := writeConfig(t, tc.body)
		_, err := LoadConfig(path)
		if err == nil {
			t.Errorf("%s: expected validation error", tc.name)
			continue
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Errorf("%s: expected error mentioning %q, got %v", tc.name, tc.want, err)
		}
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Expected error for missing config file")
	}
}
