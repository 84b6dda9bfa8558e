package signal

import (
	"errors"
	"fmt"
	"time"

	"fin-agent/internal/store"
	"fin-agent/internal/ta"
	"fin-agent/internal/types"
)

// ErrInsufficientData is returned when the series is shorter than the
// configured analysis period. No partial signal is ever produced.
var ErrInsufficientData = errors.New("insufficient price history")

// Compute evaluates one symbol's price series into a TechnicalSignal.
// It is deterministic and side-effect free: identical input always yields
// an identical signal, so it is safe to call concurrently.
func Compute(symbol string, candles []types.Candle, cfg *store.Config) (types.TechnicalSignal, error) {
	// The series must cover the analysis period and the longest indicator
	// window; RSI needs period+1 samples or it has no delta to smooth.
	need := cfg.Analysis.PeriodDays
	if m := cfg.Analysis.RSIPeriod + 1; m > need {
		need = m
	}
	if len(candles) < need {
		return types.TechnicalSignal{}, fmt.Errorf("%w: %s has %d candles, need %d",
			ErrInsufficientData, symbol, len(candles), need)
	}

	closes := make([]float64, len(candles))
	highs := make([]float64, len(candles))
	lows := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
		highs[i] = c.High
		lows[i] = c.Low
	}

	rsi := ta.RSI(closes, cfg.Analysis.RSIPeriod)
	macdLine, sigLine, hist := ta.MACDSeries(closes, cfg.Analysis.MACDFast, cfg.Analysis.MACDSlow, cfg.Analysis.MACDSignal)

	last := len(closes) - 1
	m := types.MACD{
		Value:      macdLine[last],
		SignalLine: sigLine[last],
		Histogram:  hist[last],
	}
	if last > 0 {
		m.PrevHistogram = hist[last-1]
	}

	sig := types.TechnicalSignal{
		Symbol:      symbol,
		RSI:         rsi,
		MACD:        m,
		Support:     ta.Support(lows, cfg.Analysis.SRLookback),
		Resistance:  ta.Resistance(highs, cfg.Analysis.SRLookback),
		EntryPrice:  closes[last],
		GeneratedAt: time.Unix(candles[last].Ts, 0).UTC(),
	}
	sig.Direction = direction(sig, cfg)
	return sig, nil
}

// direction applies the threshold rule: BUY on oversold RSI with the
// histogram crossing up through zero, SELL on overbought RSI with the
// histogram crossing down. Comparisons are strict.
func direction(s types.TechnicalSignal, cfg *store.Config) types.Direction {
	turnedUp := s.MACD.PrevHistogram <= 0 && s.MACD.Histogram > 0
	turnedDown := s.MACD.PrevHistogram >= 0 && s.MACD.Histogram < 0

	switch {
	case s.RSI < cfg.Analysis.RSIOversold && turnedUp:
		return types.DirectionBuy
	case s.RSI > cfg.Analysis.RSIOverbought && turnedDown:
		return types.DirectionSell
	default:
		return types.DirectionHold
	}
}
