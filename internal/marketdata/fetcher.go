// Package marketdata supplies historical price series. The HTTP fetcher
// talks to a time-series API; the static fetcher generates deterministic
// offline data for dry runs and tests.
package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"fin-agent/internal/interfaces"
	"fin-agent/internal/logger"
	"fin-agent/internal/store"
	"fin-agent/internal/types"
)

// ErrNotFound is returned when the provider has no history for a symbol.
var ErrNotFound = errors.New("no price history for symbol")

// HTTPFetcher pulls daily candles from a time-series REST API with
// client-side rate limiting and retry on transient failures.
type HTTPFetcher struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	apiKey     string
	cache      *seriesCache
}

var _ interfaces.Fetcher = (*HTTPFetcher)(nil)

func NewHTTPFetcher(cfg *store.Config) *HTTPFetcher {
	return &HTTPFetcher{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Retry.AttemptTimeoutSec) * time.Second,
		},
		limiter: rate.NewLimiter(rate.Every(time.Second), 5), // 5 requests per second
		baseURL: cfg.Data.BaseURL,
		apiKey:  os.Getenv(cfg.Data.APIKeyEnv),
		cache:   newSeriesCache(time.Duration(cfg.Data.CacheTTLSec) * time.Second),
	}
}

type seriesResponse struct {
	Status string `json:"status"`
	Values []struct {
		Datetime string `json:"datetime"`
		Open     string `json:"open"`
		High     string `json:"high"`
		Low      string `json:"low"`
		Close    string `json:"close"`
		Volume   string `json:"volume"`
	} `json:"values"`
}

func (f *HTTPFetcher) FetchHistory(ctx context.Context, symbol string, days int) ([]types.Candle, error) {
	if cs, ok := f.cache.get(symbol, days); ok {
		return cs, nil
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	u := fmt.Sprintf("%s/time_series?symbol=%s&interval=1day&outputsize=%d&apikey=%s",
		f.baseURL, url.QueryEscape(symbol), days, f.apiKey)

	logger.Debug(ctx, "Fetching price history", "symbol", symbol, "days", days)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	var body []byte
	operation := func() error {
		resp, err := f.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("HTTP request failed: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode == http.StatusNotFound {
			return backoff.Permanent(fmt.Errorf("%w: %s", ErrNotFound, symbol))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("non-200 status code: %d", resp.StatusCode)
		}
		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading response body: %w", err)
		}
		return nil
	}

	backoffStrategy := backoff.NewExponentialBackOff()
	backoffStrategy.MaxElapsedTime = 30 * time.Second

	if err := backoff.Retry(operation, backoff.WithContext(backoffStrategy, ctx)); err != nil {
		return nil, fmt.Errorf("after retries: %w", err)
	}

	var data seriesResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	if data.Status == "error" || len(data.Values) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, symbol)
	}

	// The provider returns newest first; calculations need oldest first.
	sort.Slice(data.Values, func(i, j int) bool {
		return data.Values[i].Datetime < data.Values[j].Datetime
	})

	candles := make([]types.Candle, 0, len(data.Values))
	for _, v := range data.Values {
		t, err := time.Parse("2006-01-02", v.Datetime)
		if err != nil {
			continue
		}
		candles = append(candles, types.Candle{
			Ts:    t.Unix(),
			Open:  parseF(v.Open),
			High:  parseF(v.High),
			Low:   parseF(v.Low),
			Close: parseF(v.Close),
			Vol:   parseF(v.Volume),
		})
	}

	logger.Debug(ctx, "Price history fetched", "symbol", symbol, "count", len(candles))
	f.cache.set(symbol, days, candles)
	return candles, nil
}

func parseF(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
