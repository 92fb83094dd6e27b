// Package dataset provides the CandleSeries container: an ordered, gap-free
// sequence of historical price bars consumed by the backtest engine.
package dataset

import (
	"errors"
	"fmt"

	"backlab/internal/domain"
)

// Series validation errors.
var (
	ErrEmptySeries = errors.New("dataset: series contains no candles")
	ErrOutOfOrder  = errors.New("dataset: candle timestamps must be strictly increasing")
)

// CandleSeries is an immutable, validated sequence of candles with strictly
// increasing timestamps. Construct one with NewCandleSeries; direct slice
// access is deliberately not exposed so callers cannot peek past a window.
type CandleSeries struct {
	id      string
	symbol  string
	candles []domain.Candle
}

// NewCandleSeries validates and wraps a candle slice. It rejects empty
// input and any duplicate or out-of-order timestamps.
func NewCandleSeries(id, symbol string, candles []domain.Candle) (*CandleSeries, error) {
	if len(candles) == 0 {
		return nil, ErrEmptySeries
	}
	for i := 1; i < len(candles); i++ {
		if !candles[i].Timestamp.After(candles[i-1].Timestamp) {
			return nil, fmt.Errorf("%w: candle %d (%s) not after candle %d (%s)",
				ErrOutOfOrder, i, candles[i].Timestamp, i-1, candles[i-1].Timestamp)
		}
	}

	owned := make([]domain.Candle, len(candles))
	copy(owned, candles)

	return &CandleSeries{id: id, symbol: symbol, candles: owned}, nil
}

// ID returns the dataset identifier this series was loaded from.
func (s *CandleSeries) ID() string { return s.id }

// Symbol returns the instrument symbol for this series.
func (s *CandleSeries) Symbol() string { return s.symbol }

// Len returns the number of candles in the series.
func (s *CandleSeries) Len() int { return len(s.candles) }

// At returns the candle at index i.
func (s *CandleSeries) At(i int) domain.Candle { return s.candles[i] }

// Window returns the candles at indices [max(0, now+1-lookback), now],
// that is, up to lookback bars of history ending at and including the
// current bar. The returned slice never extends past now, so a strategy
// evaluating it structurally cannot observe future data. The slice is
// capacity-capped so an append cannot reach subsequent candles either.
func (s *CandleSeries) Window(now, lookback int) []domain.Candle {
	if now < 0 || now >= len(s.candles) {
		return nil
	}
	start := now + 1 - lookback
	if start < 0 {
		start = 0
	}
	return s.candles[start : now+1 : now+1]
}
