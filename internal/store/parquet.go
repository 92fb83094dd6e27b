package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"backlab/internal/domain"
)

// Compile-time interface check.
var _ CandleStore = (*ParquetCandleStore)(nil)

// ParquetCandleStore implements CandleStore using one Parquet file per
// dataset on disk.
type ParquetCandleStore struct {
	DataDir string
}

// NewParquetCandleStore creates a candle store rooted at the given data
// directory.
func NewParquetCandleStore(dataDir string) *ParquetCandleStore {
	return &ParquetCandleStore{DataDir: dataDir}
}

// ---------------------------------------------------------------------------
// Parquet record type (on-disk schema)
// ---------------------------------------------------------------------------

// CandleRecord is the Parquet schema for candle data.
type CandleRecord struct {
	Symbol    string  `parquet:"symbol"`
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Open      float64 `parquet:"open"`
	High      float64 `parquet:"high"`
	Low       float64 `parquet:"low"`
	Close     float64 `parquet:"close"`
	Volume    float64 `parquet:"volume"`
}

// ---------------------------------------------------------------------------
// CandleStore implementation
// ---------------------------------------------------------------------------

// WriteDataset writes candles to the dataset's Parquet file at:
//
//	<DataDir>/datasets/<datasetID>.parquet
//
// Existing records are merged in and deduplicated by timestamp, preferring
// the incoming candle.
func (s *ParquetCandleStore) WriteDataset(_ context.Context, datasetID, symbol string, candles []domain.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	records := make([]CandleRecord, len(candles))
	for i, c := range candles {
		records[i] = CandleRecord{
			Symbol:    symbol,
			Timestamp: c.Timestamp.UnixMilli(),
			Open:      c.Open,
			High:      c.High,
			Low:       c.Low,
			Close:     c.Close,
			Volume:    c.Volume,
		}
	}

	path := s.datasetPath(datasetID)
	existing, _ := readParquetFile[CandleRecord](path)
	merged := mergeCandleRecords(existing, records)

	if err := writeParquetFile(path, merged); err != nil {
		return fmt.Errorf("writing dataset %s: %w", datasetID, err)
	}
	return nil
}

// ReadDataset reads the symbol and candles stored under the identifier.
func (s *ParquetCandleStore) ReadDataset(_ context.Context, datasetID string) (string, []domain.Candle, error) {
	path := s.datasetPath(datasetID)
	if _, err := os.Stat(path); err != nil {
		return "", nil, fmt.Errorf("%w: %q", ErrDatasetNotFound, datasetID)
	}
	records, err := readParquetFile[CandleRecord](path)
	if err != nil {
		return "", nil, fmt.Errorf("reading dataset %s: %w", datasetID, err)
	}
	if len(records) == 0 {
		return "", nil, fmt.Errorf("%w: %q is empty", ErrDatasetNotFound, datasetID)
	}

	symbol := records[0].Symbol
	candles := make([]domain.Candle, len(records))
	for i, r := range records {
		candles[i] = domain.Candle{
			Timestamp: time.UnixMilli(r.Timestamp).UTC(),
			Open:      r.Open,
			High:      r.High,
			Low:       r.Low,
			Close:     r.Close,
			Volume:    r.Volume,
		}
	}
	return symbol, candles, nil
}

// ListDatasets lists all dataset identifiers with stored candle data.
func (s *ParquetCandleStore) ListDatasets(_ context.Context) ([]string, error) {
	dir := filepath.Join(s.DataDir, "datasets")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if id, ok := strings.CutSuffix(e.Name(), ".parquet"); ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// datasetPath returns the filesystem path for a dataset Parquet file.
func (s *ParquetCandleStore) datasetPath(datasetID string) string {
	return filepath.Join(s.DataDir, "datasets", datasetID+".parquet")
}

// ---------------------------------------------------------------------------
// Parquet file helpers
// ---------------------------------------------------------------------------

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// mergeCandleRecords deduplicates candle records by timestamp, preferring
// new records over existing ones. Results are sorted by timestamp.
func mergeCandleRecords(existing, incoming []CandleRecord) []CandleRecord {
	seen := make(map[int64]CandleRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[r.Timestamp] = r
	}
	for _, r := range incoming {
		seen[r.Timestamp] = r
	}

	merged := make([]CandleRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Timestamp < merged[j].Timestamp
	})
	return merged
}
