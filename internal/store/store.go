// Package store defines the storage interfaces for candle datasets and
// persisted backtest results, with Parquet and SQLite implementations.
package store

import (
	"context"
	"errors"
	"time"

	"backlab/internal/backtest"
	"backlab/internal/domain"
)

// ErrDatasetNotFound is returned when a dataset identifier resolves to no
// stored candle data.
var ErrDatasetNotFound = errors.New("store: dataset not found")

// ErrResultNotFound is returned when a run identifier resolves to no
// stored backtest result.
var ErrResultNotFound = errors.New("store: result not found")

// CandleStore persists and retrieves candle datasets.
type CandleStore interface {
	// WriteDataset persists a candle dataset under the given identifier,
	// merging with and deduplicating against any existing data.
	WriteDataset(ctx context.Context, datasetID, symbol string, candles []domain.Candle) error

	// ReadDataset returns the symbol and time-ordered candles stored
	// under the identifier, or ErrDatasetNotFound.
	ReadDataset(ctx context.Context, datasetID string) (string, []domain.Candle, error)

	// ListDatasets returns all stored dataset identifiers, sorted.
	ListDatasets(ctx context.Context) ([]string, error)
}

// StoredResult is a persisted backtest run: the full result plus the
// storage metadata assigned when it was saved.
type StoredResult struct {
	RunID     string           `json:"runId"`
	CreatedAt time.Time        `json:"createdAt"`
	Result    *backtest.Result `json:"result"`
}

// ResultSummary is the listing view of a stored run, without the trade
// ledger and equity curve payloads.
type ResultSummary struct {
	RunID        string    `json:"runId"`
	CreatedAt    time.Time `json:"createdAt"`
	Strategy     string    `json:"strategy"`
	DatasetID    string    `json:"datasetId"`
	FinalBalance float64   `json:"finalBalance"`
	TotalTrades  int       `json:"totalTrades"`
	WinRate      float64   `json:"winRate"`
}

// ResultStore persists and retrieves backtest results.
type ResultStore interface {
	// SaveResult persists a completed run under the given run ID.
	SaveResult(ctx context.Context, runID string, createdAt time.Time, result *backtest.Result) error

	// GetResult retrieves a single stored run by its ID, or
	// ErrResultNotFound.
	GetResult(ctx context.Context, runID string) (*StoredResult, error)

	// ListResults returns the most recent runs, newest first, up to
	// limit.
	ListResults(ctx context.Context, limit int) ([]ResultSummary, error)
}
