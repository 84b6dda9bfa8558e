package marketdata

import (
	"fmt"
	"sync"
	"time"

	"fin-agent/internal/types"
)

// seriesCache keeps fetched series briefly so a batch re-run does not
// hammer the provider.
type seriesCache struct {
	mu   sync.RWMutex
	data map[string]*seriesEntry
	ttl  time.Duration
}

type seriesEntry struct {
	candles   []types.Candle
	timestamp time.Time
}

func newSeriesCache(ttl time.Duration) *seriesCache {
	return &seriesCache{
		data: make(map[string]*seriesEntry),
		ttl:  ttl,
	}
}

func cacheKey(symbol string, days int) string {
	return fmt.Sprintf("%s/%d", symbol, days)
}

func (c *seriesCache) get(symbol string, days int) ([]types.Candle, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.data[cacheKey(symbol, days)]
	if !ok || time.Since(e.timestamp) > c.ttl {
		return nil, false
	}
	return e.candles, true
}

func (c *seriesCache) set(symbol string, days int, candles []types.Candle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[cacheKey(symbol, days)] = &seriesEntry{candles: candles, timestamp: time.Now()}
}
