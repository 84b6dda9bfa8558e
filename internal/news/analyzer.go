package news

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"fin-agent/internal/llm"
	"fin-agent/internal/logger"
	"fin-agent/internal/store"
	"fin-agent/internal/trace"
	"fin-agent/internal/types"
)

// SentimentAnalyzer turns scraped headlines into a MarketContext using the
// configured LLM provider.
type SentimentAnalyzer struct {
	cfg      *store.Config
	provider string // "OPENAI" or "CLAUDE"
}

func NewSentimentAnalyzer(cfg *store.Config) *SentimentAnalyzer {
	return &SentimentAnalyzer{
		cfg:      cfg,
		provider: cfg.LLM.Provider,
	}
}

// Analyze aggregates sentiment from the given articles. With no articles
// or no usable LLM response it returns a neutral context rather than
// failing, so the suggestion pipeline keeps moving.
func (a *SentimentAnalyzer) Analyze(ctx context.Context, symbol string, articles []types.NewsArticle) (types.MarketContext, error) {
	ctx, span := trace.StartSpan(ctx, "analyze-market-context")
	defer span.End()

	neutral := types.MarketContext{
		Symbol:           symbol,
		OverallSentiment: "NEUTRAL",
		ArticleCount:     len(articles),
		Summary:          "Insufficient data for assessment",
	}
	if len(articles) == 0 {
		return neutral, nil
	}

	prompt := a.buildPrompt(symbol, articles)

	text, err := a.complete(ctx, prompt)
	if err != nil {
		return neutral, err
	}

	raw := llm.ParseRaw(text)
	if !raw.IsStructured() {
		logger.Warn(ctx, "Market context response was not structured", "symbol", symbol)
		return neutral, nil
	}

	mc := types.MarketContext{Symbol: symbol, ArticleCount: len(articles), OverallSentiment: "NEUTRAL"}
	if s, ok := raw.Structured["overall_sentiment"].(string); ok {
		mc.OverallSentiment = strings.ToUpper(s)
	}
	if f, ok := raw.Structured["overall_score"].(float64); ok {
		mc.OverallScore = f
	}
	if s, ok := raw.Structured["summary"].(string); ok {
		mc.Summary = s
	}
	return mc, nil
}

func (a *SentimentAnalyzer) buildPrompt(symbol string, articles []types.NewsArticle) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Assess current market sentiment for %s from these recent headlines:\n\n", symbol)
	for i, art := range articles {
		fmt.Fprintf(&sb, "%d. [%s] %s\n", i+1, art.Source, art.Title)
		if art.Content != "" {
			fmt.Fprintf(&sb, "   %s\n", art.Content)
		}
	}
	sb.WriteString(`
Respond ONLY with compact JSON:
- overall_sentiment: BULLISH, NEUTRAL, or BEARISH
- overall_score: -1.0 to 1.0
- summary: one or two sentences on trading implications`)
	return sb.String()
}

// complete sends the prompt to the configured provider and returns the
// assistant text.
func (a *SentimentAnalyzer) complete(ctx context.Context, prompt string) (string, error) {
	switch strings.ToUpper(a.provider) {
	case "OPENAI":
		return a.completeOpenAI(ctx, prompt)
	case "CLAUDE":
		return a.completeClaude(ctx, prompt)
	default:
		return "", fmt.Errorf("unsupported LLM provider: %s", a.provider)
	}
}

func (a *SentimentAnalyzer) completeOpenAI(ctx context.Context, prompt string) (string, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return "", llm.ErrDisabled
	}

	body := map[string]any{
		"model":       a.cfg.LLM.Model,
		"messages":    []map[string]string{{"role": "user", "content": prompt}},
		"temperature": 0.3,
		"max_tokens":  300,
	}
	bb, _ := json.Marshal(body)

	req, err := http.NewRequestWithContext(ctx, "POST", "https://api.openai.com/v1/chat/completions", bytes.NewReader(bb))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return "", llm.ClassifyStatus("openai", resp.StatusCode, string(respBody))
	}

	var r struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &r); err != nil {
		return "", err
	}
	if len(r.Choices) == 0 {
		return "", fmt.Errorf("openai: no choices in response")
	}
	return r.Choices[0].Message.Content, nil
}

func (a *SentimentAnalyzer) completeClaude(ctx context.Context, prompt string) (string, error) {
	apiKey := os.Getenv("CLAUDE_API_KEY")
	if apiKey == "" {
		return "", llm.ErrDisabled
	}

	endpoint := "https://api.anthropic.com/v1/messages"
	if ep := os.Getenv("CLAUDE_API_ENDPOINT"); ep != "" {
		endpoint = ep
	}

	body := map[string]any{
		"model":      a.cfg.LLM.Model,
		"messages":   []map[string]string{{"role": "user", "content": prompt}},
		"max_tokens": 300,
	}
	bb, _ := json.Marshal(body)

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(bb))
	if err != nil {
		return "", err
	}
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return "", llm.ClassifyStatus("claude", resp.StatusCode, string(respBody))
	}

	var r struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(respBody, &r); err != nil {
		return "", err
	}
	if len(r.Content) == 0 {
		return "", fmt.Errorf("claude: empty content in response")
	}
	return r.Content[0].Text, nil
}
