package interfaces

import (
	"context"

	"fin-agent/internal/types"
)

// Fetcher supplies historical price data for one symbol, oldest candle
// first, no duplicate timestamps.
type Fetcher interface {
	FetchHistory(ctx context.Context, symbol string, days int) ([]types.Candle, error)
}
