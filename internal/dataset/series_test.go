package dataset

import (
	"errors"
	"testing"
	"time"

	"backlab/internal/domain"
)

func testCandles(n int) []domain.Candle {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]domain.Candle, n)
	for i := range candles {
		candles[i] = domain.Candle{
			Timestamp: start.Add(time.Duration(i) * time.Hour),
			Open:      100,
			High:      101,
			Low:       99,
			Close:     100.5,
			Volume:    1000,
		}
	}
	return candles
}

func TestNewCandleSeries(t *testing.T) {
	s, err := NewCandleSeries("eurusd-h1-2024", "EURUSD", testCandles(10))
	if err != nil {
		t.Fatalf("NewCandleSeries returned error: %v", err)
	}
	if s.Len() != 10 {
		t.Errorf("Len() = %d, want 10", s.Len())
	}
	if s.ID() != "eurusd-h1-2024" {
		t.Errorf("ID() = %q, want %q", s.ID(), "eurusd-h1-2024")
	}
	if s.Symbol() != "EURUSD" {
		t.Errorf("Symbol() = %q, want %q", s.Symbol(), "EURUSD")
	}
}

func TestNewCandleSeries_Empty(t *testing.T) {
	_, err := NewCandleSeries("empty", "EURUSD", nil)
	if !errors.Is(err, ErrEmptySeries) {
		t.Errorf("expected ErrEmptySeries, got %v", err)
	}
}

func TestNewCandleSeries_OutOfOrder(t *testing.T) {
	candles := testCandles(5)
	candles[3].Timestamp = candles[1].Timestamp

	_, err := NewCandleSeries("bad", "EURUSD", candles)
	if !errors.Is(err, ErrOutOfOrder) {
		t.Errorf("expected ErrOutOfOrder, got %v", err)
	}
}

func TestNewCandleSeries_Duplicate(t *testing.T) {
	candles := testCandles(5)
	candles[2].Timestamp = candles[1].Timestamp

	_, err := NewCandleSeries("dup", "EURUSD", candles)
	if !errors.Is(err, ErrOutOfOrder) {
		t.Errorf("expected ErrOutOfOrder for duplicate timestamp, got %v", err)
	}
}

func TestNewCandleSeries_CopiesInput(t *testing.T) {
	candles := testCandles(3)
	s, err := NewCandleSeries("copy", "EURUSD", candles)
	if err != nil {
		t.Fatalf("NewCandleSeries returned error: %v", err)
	}

	// Mutating the caller's slice must not affect the series.
	candles[0].Close = 9999
	if s.At(0).Close == 9999 {
		t.Error("series shares backing array with caller slice")
	}
}

func TestWindow(t *testing.T) {
	s, err := NewCandleSeries("w", "EURUSD", testCandles(10))
	if err != nil {
		t.Fatalf("NewCandleSeries returned error: %v", err)
	}

	w := s.Window(5, 3)
	if len(w) != 3 {
		t.Fatalf("Window(5, 3) returned %d candles, want 3", len(w))
	}
	// Last element of the window is the current bar.
	if !w[2].Timestamp.Equal(s.At(5).Timestamp) {
		t.Error("window does not end at the current bar")
	}

	// Near the start of the series the window is truncated, not padded.
	w = s.Window(1, 5)
	if len(w) != 2 {
		t.Errorf("Window(1, 5) returned %d candles, want 2", len(w))
	}

	// Out-of-range indices yield nil.
	if s.Window(-1, 3) != nil || s.Window(10, 3) != nil {
		t.Error("out-of-range Window should return nil")
	}
}

func TestWindow_NoFutureViaAppend(t *testing.T) {
	s, err := NewCandleSeries("cap", "EURUSD", testCandles(10))
	if err != nil {
		t.Fatalf("NewCandleSeries returned error: %v", err)
	}

	w := s.Window(4, 3)
	if cap(w) != len(w) {
		t.Errorf("window capacity %d exceeds length %d; append could expose future candles", cap(w), len(w))
	}

	// An append must reallocate rather than overwrite candle 5.
	before := s.At(5)
	_ = append(w, domain.Candle{Close: -1})
	if s.At(5) != before {
		t.Error("append through window mutated the series")
	}
}
