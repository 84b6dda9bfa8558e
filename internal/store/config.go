package store

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Universe []string `yaml:"universe"`
	UseLLM   bool     `yaml:"use_llm"`

	Analysis struct {
		PeriodDays    int     `yaml:"period_days"`
		RSIPeriod     int     `yaml:"rsi_period"`
		RSIOversold   float64 `yaml:"rsi_oversold"`
		RSIOverbought float64 `yaml:"rsi_overbought"`
		MACDFast      int     `yaml:"macd_fast"`
		MACDSlow      int     `yaml:"macd_slow"`
		MACDSignal    int     `yaml:"macd_signal"`
		SRLookback    int     `yaml:"sr_lookback"`
		StopLossPct   float64 `yaml:"stop_loss_pct"`
		TakeProfitPct float64 `yaml:"take_profit_pct"`
	} `yaml:"analysis"`

	LLM struct {
		Provider    string  `yaml:"provider"`
		Model       string  `yaml:"model"`
		MaxTokens   int     `yaml:"max_tokens"`
		Temperature float32 `yaml:"temperature"`
		System      string  `yaml:"system"`
	} `yaml:"llm"`

	Retry struct {
		MaxAttempts       int     `yaml:"max_attempts"`
		InitialBackoffMS  int     `yaml:"initial_backoff_ms"`
		MaxElapsedSeconds int     `yaml:"max_elapsed_seconds"`
		AttemptTimeoutSec int     `yaml:"attempt_timeout_seconds"`
		RatePerSecond     float64 `yaml:"rate_per_second"`
	} `yaml:"retry"`

	Batch struct {
		Workers int `yaml:"workers"`
	} `yaml:"batch"`

	Data struct {
		Source      string `yaml:"source"` // STATIC or HTTP
		BaseURL     string `yaml:"base_url"`
		APIKeyEnv   string `yaml:"api_key_env"`
		CacheTTLSec int    `yaml:"cache_ttl_seconds"`
	} `yaml:"data"`

	News struct {
		Enabled     bool `yaml:"enabled"`
		MaxArticles int  `yaml:"max_articles"`
		CacheTTLMin int  `yaml:"cache_ttl_minutes"`
		TimeoutSec  int  `yaml:"timeout_seconds"`
	} `yaml:"news"`

	Export struct {
		SuggestionsPath string `yaml:"suggestions_path"`
		ResultsPath     string `yaml:"results_path"`
	} `yaml:"export"`
}

func (c *Config) Validate() error {
	if len(c.Universe) == 0 {
		return fmt.Errorf("universe cannot be empty")
	}
	if c.Analysis.PeriodDays <= 0 {
		return fmt.Errorf("analysis.period_days must be positive, got %d", c.Analysis.PeriodDays)
	}
	// RSI needs period+1 samples; a shorter window would pass the history
	// gate and then produce an unusable indicator value.
	if c.Analysis.PeriodDays <= c.Analysis.RSIPeriod {
		return fmt.Errorf("analysis.period_days (%d) must exceed rsi_period (%d)",
			c.Analysis.PeriodDays, c.Analysis.RSIPeriod)
	}
	if c.Analysis.PeriodDays < c.Analysis.MACDSlow {
		return fmt.Errorf("analysis.period_days (%d) must cover macd_slow (%d)",
			c.Analysis.PeriodDays, c.Analysis.MACDSlow)
	}
	if c.Analysis.RSIOversold >= c.Analysis.RSIOverbought {
		return fmt.Errorf("analysis.rsi_oversold (%.1f) must be below rsi_overbought (%.1f)",
			c.Analysis.RSIOversold, c.Analysis.RSIOverbought)
	}
	if c.Analysis.MACDFast >= c.Analysis.MACDSlow {
		return fmt.Errorf("analysis.macd_fast (%d) must be below macd_slow (%d)",
			c.Analysis.MACDFast, c.Analysis.MACDSlow)
	}
	if c.UseLLM {
		switch c.LLM.Provider {
		case "CLAUDE", "OPENAI", "":
		default:
			return fmt.Errorf("llm.provider must be 'CLAUDE' or 'OPENAI', got '%s'", c.LLM.Provider)
		}
	}
	if c.Data.Source != "STATIC" && c.Data.Source != "HTTP" {
		return fmt.Errorf("data.source must be 'STATIC' or 'HTTP', got '%s'", c.Data.Source)
	}
	if c.Batch.Workers <= 0 {
		return fmt.Errorf("batch.workers must be positive, got %d", c.Batch.Workers)
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Analysis.PeriodDays == 0 {
		c.Analysis.PeriodDays = 60
	}
	if c.Analysis.RSIPeriod == 0 {
		c.Analysis.RSIPeriod = 14
	}
	if c.Analysis.RSIOversold == 0 {
		c.Analysis.RSIOversold = 30
	}
	if c.Analysis.RSIOverbought == 0 {
		c.Analysis.RSIOverbought = 70
	}
	if c.Analysis.MACDFast == 0 {
		c.Analysis.MACDFast = 12
	}
	if c.Analysis.MACDSlow == 0 {
		c.Analysis.MACDSlow = 26
	}
	if c.Analysis.MACDSignal == 0 {
		c.Analysis.MACDSignal = 9
	}
	if c.Analysis.SRLookback == 0 {
		c.Analysis.SRLookback = 20
	}
	if c.Analysis.StopLossPct == 0 {
		c.Analysis.StopLossPct = 2.0
	}
	if c.Analysis.TakeProfitPct == 0 {
		c.Analysis.TakeProfitPct = 5.0
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = 3
	}
	if c.Retry.InitialBackoffMS == 0 {
		c.Retry.InitialBackoffMS = 500
	}
	if c.Retry.MaxElapsedSeconds == 0 {
		c.Retry.MaxElapsedSeconds = 60
	}
	if c.Retry.AttemptTimeoutSec == 0 {
		c.Retry.AttemptTimeoutSec = 30
	}
	if c.Retry.RatePerSecond == 0 {
		c.Retry.RatePerSecond = 1
	}
	if c.Batch.Workers == 0 {
		c.Batch.Workers = 4
	}
	if c.Data.Source == "" {
		c.Data.Source = "STATIC"
	}
	if c.Data.CacheTTLSec == 0 {
		c.Data.CacheTTLSec = 300
	}
	if c.News.MaxArticles == 0 {
		c.News.MaxArticles = 10
	}
	if c.News.CacheTTLMin == 0 {
		c.News.CacheTTLMin = 60
	}
	if c.News.TimeoutSec == 0 {
		c.News.TimeoutSec = 30
	}
	if c.Export.SuggestionsPath == "" {
		c.Export.SuggestionsPath = "trade_suggestions.json"
	}
	if c.Export.ResultsPath == "" {
		c.Export.ResultsPath = "analysis_results.json"
	}
}
