package marketdata

import (
	"context"
	"testing"
	"time"
)

func TestStaticFetcherDeterminism(t *testing.T) {
	f := NewStaticFetcher()
	f.now = func() time.Time { return time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC) }

	a, err := f.FetchHistory(context.Background(), "AAPL", 60)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	b, err := f.FetchHistory(context.Background(), "AAPL", 60)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(a) != 60 {
		t.Fatalf("Expected 60 candles, got %d", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("Expected identical series on repeated fetch, diverged at index %d", i)
		}
	}
}

func TestStaticFetcherSymbolsDiffer(t *testing.T) {
	f := NewStaticFetcher()
	f.now = func() time.Time { return time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC) }

	a, _ := f.FetchHistory(context.Background(), "AAPL", 30)
	m, _ := f.FetchHistory(context.Background(), "MSFT", 30)

	same := true
	for i := range a {
		if a[i].Close != m[i].Close {
			same = false
			break
		}
	}
	if same {
		t.Error("Expected different symbols to produce different series")
	}
}

func TestStaticFetcherOrdering(t *testing.T) {
	f := NewStaticFetcher()
	f.now = func() time.Time { return time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC) }

	cs, err := f.FetchHistory(context.Background(), "GOOGL", 30)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	for i := 1; i < len(cs); i++ {
		if cs[i].Ts <= cs[i-1].Ts {
			t.Fatalf("Expected strictly increasing timestamps, got %d after %d", cs[i].Ts, cs[i-1].Ts)
		}
	}
	for i, c := range cs {
		if c.High < c.Close || c.Low > c.Close {
			t.Errorf("Candle %d: close %f outside [low %f, high %f]", i, c.Close, c.Low, c.High)
		}
		if c.Close <= 0 {
			t.Errorf("Candle %d: non-positive close %f", i, c.Close)
		}
	}
}

func TestSeriesCache(t *testing.T) {
	c := newSeriesCache(time.Hour)

	if _, found := c.get("AAPL", 60); found {
		t.Error("Expected miss on empty cache")
	}

	f := NewStaticFetcher()
	cs, _ := f.FetchHistory(context.Background(), "AAPL", 60)
	c.set("AAPL", 60, cs)

	got, found := c.get("AAPL", 60)
	if !found {
		t.Fatal("Expected hit after set")
	}
	if len(got) != 60 {
		t.Errorf("Expected 60 cached candles, got %d", len(got))
	}

	// Different day count is a different key.
	if _, found := c.get("AAPL", 30); found {
		t.Error("Expected miss for different day count")
	}
}

func TestSeriesCacheExpiry(t *testing.T) {
	c := newSeriesCache(10 * time.Millisecond)
	c.set("AAPL", 60, nil)
	time.Sleep(30 * time.Millisecond)
	if _, found := c.get("AAPL", 60); found {
		t.Error("Expected entry to expire")
	}
}
