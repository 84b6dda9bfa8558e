package ta

import "math"

func SMA(closes []float64, n int) float64 {
	if len(closes) < n || n <= 0 {
		return math.NaN()
	}
	sum := 0.0
	for i := len(closes) - n; i < len(closes); i++ {
		sum += closes[i]
	}
	return sum / float64(n)
}

// EMASeries returns the exponential moving average at every index,
// seeded with the first value.
func EMASeries(vals []float64, n int) []float64 {
	if len(vals) == 0 || n <= 0 {
		return nil
	}
	out := make([]float64, len(vals))
	k := 2.0 / float64(n+1)
	out[0] = vals[0]
	for i := 1; i < len(vals); i++ {
		out[i] = (vals[i]-out[i-1])*k + out[i-1]
	}
	return out
}

// RSI computes the Wilder-smoothed relative strength index at the last bar
// of the series. Result is always in [0,100]; a zero-loss window yields 100.
func RSI(closes []float64, period int) float64 {
	if len(closes) < period+1 || period <= 0 {
		return math.NaN()
	}
	avgGain, avgLoss := 0.0, 0.0
	for i := 1; i <= period; i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			avgGain += d
		} else {
			avgLoss -= d
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	for i := period + 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if d > 0 {
			gain = d
		} else {
			loss = -d
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	rsi := 100.0 - (100.0 / (1.0 + rs))
	if rsi < 0 {
		return 0
	}
	if rsi > 100 {
		return 100
	}
	return rsi
}

// MACDSeries returns the MACD line, its signal line and the histogram for
// every index. fast/slow/signal are EMA periods (12/26/9 classically).
func MACDSeries(closes []float64, fast, slow, signal int) (macd, sig, hist []float64) {
	if len(closes) == 0 || fast <= 0 || slow <= 0 || signal <= 0 {
		return nil, nil, nil
	}
	fastEMA := EMASeries(closes, fast)
	slowEMA := EMASeries(closes, slow)
	macd = make([]float64, len(closes))
	for i := range closes {
		macd[i] = fastEMA[i] - slowEMA[i]
	}
	sig = EMASeries(macd, signal)
	hist = make([]float64, len(closes))
	for i := range closes {
		hist[i] = macd[i] - sig[i]
	}
	return macd, sig, hist
}

// Support returns the lowest low over the trailing window. Ties favor the
// most recent bar.
func Support(lows []float64, window int) float64 {
	if len(lows) == 0 || window <= 0 {
		return math.NaN()
	}
	start := len(lows) - window
	if start < 0 {
		start = 0
	}
	v := lows[start]
	for i := start + 1; i < len(lows); i++ {
		if lows[i] <= v {
			v = lows[i]
		}
	}
	return v
}

// Resistance returns the highest high over the trailing window. Ties favor
// the most recent bar.
func Resistance(highs []float64, window int) float64 {
	if len(highs) == 0 || window <= 0 {
		return math.NaN()
	}
	start := len(highs) - window
	if start < 0 {
		start = 0
	}
	v := highs[start]
	for i := start + 1; i < len(highs); i++ {
		if highs[i] >= v {
			v = highs[i]
		}
	}
	return v
}
