package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"

	"golang.org/x/time/rate"

	"fin-agent/internal/llm"
	"fin-agent/internal/store"
	"fin-agent/internal/trace"
	"fin-agent/internal/types"
)

// Analyst implements the Analyst interface using the OpenAI chat API
type Analyst struct {
	cfg     *store.Config
	apiKey  string
	limiter *rate.Limiter
}

func New(cfg *store.Config) *Analyst {
	return &Analyst{
		cfg:     cfg,
		apiKey:  os.Getenv("OPENAI_API_KEY"),
		limiter: llm.NewLimiter(cfg),
	}
}

func (a *Analyst) Enabled() bool { return a.apiKey != "" }

func (a *Analyst) Suggest(ctx context.Context, sig types.TechnicalSignal, mktCtx *types.MarketContext) (types.RawResponse, error) {
	ctx, span := trace.StartSpan(ctx, "openai-api-call")
	defer span.End()

	if !a.Enabled() {
		return types.RawResponse{}, llm.ErrDisabled
	}

	system := a.cfg.LLM.System
	if system == "" {
		system = "You are a disciplined equities analyst. Output STRICT JSON trade suggestions."
	}
	prompt := llm.BuildSuggestionPrompt(sig, mktCtx, a.cfg)

	body := map[string]any{
		"model": a.cfg.LLM.Model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": prompt},
		},
		"temperature": a.cfg.LLM.Temperature,
		"max_tokens":  a.cfg.LLM.MaxTokens,
	}
	bb, _ := json.Marshal(body)

	var raw types.RawResponse
	err := llm.Retry(ctx, a.cfg, a.limiter, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, "POST", "https://api.openai.com/v1/chat/completions", bytes.NewReader(bb))
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return llm.Transient(err)
		}
		defer resp.Body.Close()

		respBody, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 300 {
			return llm.ClassifyStatus("openai", resp.StatusCode, string(respBody))
		}

		var r struct {
			Choices []struct {
				Message struct {
					Content string `json:"content"`
				} `json:"message"`
			} `json:"choices"`
		}
		if err := json.Unmarshal(respBody, &r); err != nil {
			return err
		}
		if len(r.Choices) == 0 {
			return errors.New("openai: no choices in response")
		}

		raw = llm.ParseRaw(strings.TrimSpace(r.Choices[0].Message.Content))
		return nil
	})
	if err != nil {
		return types.RawResponse{}, err
	}
	return raw, nil
}
