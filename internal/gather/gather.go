// Package gather fetches historical candle data from upstream market-data
// providers and writes it into the local dataset store.
package gather

import (
	"context"
	"time"
)

// Fetcher is the interface for all dataset fetching processes.
type Fetcher interface {
	// Name returns the fetcher identifier.
	Name() string
	// Fetch downloads candles for the request and persists them as a
	// dataset. It returns the number of candles written.
	Fetch(ctx context.Context, req FetchRequest) (int, error)
}

// FetchRequest describes a single dataset download.
type FetchRequest struct {
	DatasetID string
	Symbol    string
	Timeframe string
	Start     time.Time
	End       time.Time
}
