package news

import (
	"context"
	"sync"
	"time"

	"fin-agent/internal/logger"
	"fin-agent/internal/store"
	"fin-agent/internal/types"
)

// Service provides cached market-context assessment per symbol
type Service struct {
	scraper  *Scraper
	analyzer *SentimentAnalyzer
	cache    *contextCache
	cfg      *store.Config
}

func NewService(cfg *store.Config) *Service {
	return &Service{
		scraper:  NewScraper(time.Duration(cfg.News.TimeoutSec) * time.Second),
		analyzer: NewSentimentAnalyzer(cfg),
		cache:    newContextCache(time.Duration(cfg.News.CacheTTLMin) * time.Minute),
		cfg:      cfg,
	}
}

// GetMarketContext returns the aggregated sentiment for a symbol, scraping
// and analyzing on cache miss. When the feature is disabled or analysis
// fails it returns nil so callers simply omit the context block.
func (s *Service) GetMarketContext(ctx context.Context, symbol string) *types.MarketContext {
	if !s.cfg.News.Enabled {
		return nil
	}

	if mc, found := s.cache.get(symbol); found {
		logger.Debug(ctx, "Market context cache hit", "symbol", symbol)
		return &mc
	}

	articles, err := s.scraper.ScrapeNews(ctx, symbol, s.cfg.News.MaxArticles)
	if err != nil {
		logger.Warn(ctx, "News scraping failed, continuing without market context", "symbol", symbol, "error", err)
		return nil
	}

	mc, err := s.analyzer.Analyze(ctx, symbol, articles)
	if err != nil {
		logger.Warn(ctx, "Market context analysis failed, continuing without it", "symbol", symbol, "error", err)
		return nil
	}

	mc.Timestamp = time.Now().Unix()
	s.cache.set(symbol, mc)
	return &mc
}

// ClearCache drops every cached context
func (s *Service) ClearCache() {
	s.cache.clear()
}

// GetCachedSymbols lists symbols with a live cache entry
func (s *Service) GetCachedSymbols() []string {
	return s.cache.symbols()
}

// contextCache stores recent market-context results
type contextCache struct {
	mu   sync.RWMutex
	data map[string]*contextEntry
	ttl  time.Duration
}

type contextEntry struct {
	mc        types.MarketContext
	timestamp time.Time
}

func newContextCache(ttl time.Duration) *contextCache {
	return &contextCache{
		data: make(map[string]*contextEntry),
		ttl:  ttl,
	}
}

func (c *contextCache) get(symbol string) (types.MarketContext, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.data[symbol]
	if !ok || time.Since(e.timestamp) > c.ttl {
		return types.MarketContext{}, false
	}
	return e.mc, true
}

func (c *contextCache) set(symbol string, mc types.MarketContext) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[symbol] = &contextEntry{mc: mc, timestamp: time.Now()}
}

func (c *contextCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]*contextEntry)
}

func (c *contextCache) symbols() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.data))
	for sym, e := range c.data {
		if time.Since(e.timestamp) <= c.ttl {
			out = append(out, sym)
		}
	}
	return out
}
