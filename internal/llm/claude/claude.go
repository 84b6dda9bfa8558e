package claude

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
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

// Analyst implements the Analyst interface using the Anthropic Claude API
type Analyst struct {
	cfg      *store.Config
	endpoint string
	apiKey   string
	limiter  *rate.Limiter
}

// New creates a Claude-backed analyst. A missing CLAUDE_API_KEY does not
// fail construction; the analyst reports itself disabled instead.
func New(cfg *store.Config) *Analyst {
	endpoint := "https://api.anthropic.com/v1/messages"
	// For a proxy/bedrock/vertex deployment, set endpoint via CLAUDE_API_ENDPOINT
	if ep := os.Getenv("CLAUDE_API_ENDPOINT"); ep != "" {
		endpoint = ep
	}
	return &Analyst{
		cfg:      cfg,
		endpoint: endpoint,
		apiKey:   os.Getenv("CLAUDE_API_KEY"),
		limiter:  llm.NewLimiter(cfg),
	}
}

func (a *Analyst) Enabled() bool { return a.apiKey != "" }

// Suggest sends the signal prompt to Claude and returns the raw payload
// verbatim. Transient failures are retried per the configured policy.
func (a *Analyst) Suggest(ctx context.Context, sig types.TechnicalSignal, mktCtx *types.MarketContext) (types.RawResponse, error) {
	ctx, span := trace.StartSpan(ctx, "claude-api-call")
	defer span.End()

	if !a.Enabled() {
		return types.RawResponse{}, llm.ErrDisabled
	}

	system := a.cfg.LLM.System
	if system == "" {
		system = "You are a disciplined equities analyst. Output STRICT JSON trade suggestions."
	}
	prompt := llm.BuildSuggestionPrompt(sig, mktCtx, a.cfg)

	reqBody := map[string]any{
		"model":  a.cfg.LLM.Model,
		"system": system,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"max_tokens":  a.cfg.LLM.MaxTokens,
		"temperature": a.cfg.LLM.Temperature,
	}
	bb, _ := json.Marshal(reqBody)

	var raw types.RawResponse
	err := llm.Retry(ctx, a.cfg, a.limiter, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, "POST", a.endpoint, bytes.NewReader(bb))
		if err != nil {
			return err
		}
		req.Header.Set("x-api-key", a.apiKey)
		req.Header.Set("anthropic-version", "2023-06-01")
		req.Header.Set("Content-Type", "application/json")

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return llm.Transient(err)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 300 {
			return llm.ClassifyStatus("claude", resp.StatusCode, string(body))
		}

		text, err := extractText(body)
		if err != nil {
			return err
		}
		raw = llm.ParseRaw(text)
		return nil
	})
	if err != nil {
		return types.RawResponse{}, err
	}
	return raw, nil
}

// extractText drills the assistant content out of the messages response,
// with fallbacks for proxy deployments that reshape the payload.
func extractText(body []byte) (string, error) {
	var anyResp any
	if err := json.Unmarshal(body, &anyResp); err != nil {
		// Not JSON? Treat the full body as the text response.
		return string(body), nil
	}

	m, ok := anyResp.(map[string]any)
	if !ok {
		return string(body), nil
	}

	// Standard messages API: content is an array of {type, text} blocks.
	if content, found := m["content"]; found {
		if arr, ok := content.([]any); ok && len(arr) > 0 {
			var sb strings.Builder
			for _, block := range arr {
				if bm, ok := block.(map[string]any); ok {
					if s, ok := bm["text"].(string); ok {
						sb.WriteString(s)
					}
				}
			}
			if sb.Len() > 0 {
				return sb.String(), nil
			}
		}
	}

	// Older/proxied shapes.
	for _, k := range []string{"completion", "output", "output_text", "completion_text", "result"} {
		if v, exists := m[k]; exists {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return s, nil
			}
		}
	}

	if errObj, found := m["error"]; found {
		return "", fmt.Errorf("claude error payload: %v", errObj)
	}
	return string(body), nil
}
