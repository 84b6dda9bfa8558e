package types

import "time"

type Candle struct {
	Ts                          int64
	Open, High, Low, Close, Vol float64
}

// Direction is the discrete outcome of technical evaluation.
type Direction string

const (
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
	DirectionHold Direction = "HOLD"
)

type MACD struct {
	Value      float64 `json:"value"`
	SignalLine float64 `json:"signal_line"`
	Histogram  float64 `json:"histogram"`
	// PrevHistogram is the histogram one bar earlier, kept so the
	// crossing test does not have to recompute the series.
	PrevHistogram float64 `json:"prev_histogram"`
}

// TechnicalSignal is the immutable result of one (symbol, series) evaluation.
type TechnicalSignal struct {
	Symbol      string    `json:"symbol"`
	Direction   Direction `json:"direction"`
	RSI         float64   `json:"rsi"`
	MACD        MACD      `json:"macd"`
	Support     float64   `json:"support"`
	Resistance  float64   `json:"resistance"`
	EntryPrice  float64   `json:"entry_price"`
	GeneratedAt time.Time `json:"generated_at"`
}

// RawResponse is what an analyst returned, verbatim. Exactly one of
// Structured and Text is meaningful; Structured wins when non-nil.
type RawResponse struct {
	Structured map[string]any
	Text       string
}

func (r RawResponse) IsStructured() bool { return r.Structured != nil }

// TradeSuggestion is the normalized analyst output. Fields the analyst
// omitted or that failed coercion stay nil so downstream code never acts
// on a fabricated price.
type TradeSuggestion struct {
	Symbol                 string    `json:"symbol"`
	Recommendation         string    `json:"recommendation"`
	EntryPrice             *float64  `json:"entry_price"`
	SuggestedStopLoss      *float64  `json:"suggested_stop_loss"`
	TakeProfitTarget1      *float64  `json:"take_profit_target_1"`
	TakeProfitTarget2      *float64  `json:"take_profit_target_2"`
	PositionSizeSuggestion *string   `json:"position_size_suggestion"`
	RiskRewardRatio        *string   `json:"risk_reward_ratio"`
	TimeHorizon            *string   `json:"time_horizon"`
	Urgency                *string   `json:"urgency"`
	ProbabilityOfSuccess   *int      `json:"probability_of_success"`
	KeyFactors             []string  `json:"key_factors"`
	Timestamp              time.Time `json:"timestamp"`
}

// SymbolState tracks the per-symbol pipeline progress inside a batch.
type SymbolState string

const (
	StatePending       SymbolState = "PENDING"
	StateTechnicalDone SymbolState = "TECHNICAL_DONE"
	StateLLMSkipped    SymbolState = "LLM_SKIPPED"
	StateLLMDone       SymbolState = "LLM_DONE"
	StateLLMFailed     SymbolState = "LLM_FAILED"
	StateFinalized     SymbolState = "FINALIZED"
	StateCancelled     SymbolState = "CANCELLED"
)

// SymbolResult is one batch entry. Signal and Suggestion are nil when the
// corresponding stage did not complete; Err explains why.
type SymbolResult struct {
	Symbol     string           `json:"symbol"`
	State      SymbolState      `json:"state"`
	Signal     *TechnicalSignal `json:"signal,omitempty"`
	Suggestion *TradeSuggestion `json:"suggestion,omitempty"`
	Err        error            `json:"-"`
	ErrMsg     string           `json:"error,omitempty"`
}

// BatchResult maps every requested symbol to its outcome, preserving the
// input order. Every submitted symbol appears exactly once.
type BatchResult struct {
	Order   []string
	Entries map[string]*SymbolResult
}

func NewBatchResult(symbols []string) *BatchResult {
	br := &BatchResult{
		Order:   append([]string(nil), symbols...),
		Entries: make(map[string]*SymbolResult, len(symbols)),
	}
	for _, s := range symbols {
		br.Entries[s] = &SymbolResult{Symbol: s, State: StatePending}
	}
	return br
}

// Results returns the entries in input order.
func (br *BatchResult) Results() []*SymbolResult {
	out := make([]*SymbolResult, 0, len(br.Order))
	for _, s := range br.Order {
		out = append(out, br.Entries[s])
	}
	return out
}

// NewsArticle is a scraped headline used for market-context assessment.
type NewsArticle struct {
	Symbol      string
	Title       string
	URL         string
	Content     string
	Source      string
	PublishedAt string
}

// MarketContext is the aggregated sentiment fed into the analyst prompt.
type MarketContext struct {
	Symbol           string  `json:"symbol"`
	OverallSentiment string  `json:"overall_sentiment"`
	OverallScore     float64 `json:"overall_score"`
	ArticleCount     int     `json:"article_count"`
	Summary          string  `json:"summary"`
	Timestamp        int64   `json:"timestamp"`
}
