package builtins

import (
	"github.com/thrasher-corp/gct-ta/indicators"

	"backlab/internal/domain"
	"backlab/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Strategy = (*RSIReversion)(nil)

// RSIReversion implements a mean-reversion strategy on the relative strength
// index. It goes long when the RSI recovers up through the oversold level
// and short when it falls down through the overbought level.
type RSIReversion struct {
	period int
	low    float64
	high   float64

	primed  bool
	prevRSI float64
}

// NewRSIReversion creates an RSIReversion strategy with the given RSI period
// and oversold/overbought thresholds.
func NewRSIReversion(period int, low, high float64) *RSIReversion {
	return &RSIReversion{
		period: period,
		low:    low,
		high:   high,
	}
}

// Name returns "rsi-reversion".
func (s *RSIReversion) Name() string {
	return "rsi-reversion"
}

// Warmup returns the trailing history required before signals are valid.
// RSI needs more than its period to converge past the seed average.
func (s *RSIReversion) Warmup() int {
	return s.period * 3
}

// Evaluate detects RSI threshold crossings on the window's close prices.
func (s *RSIReversion) Evaluate(window []domain.Candle) (*domain.TradeIntent, error) {
	if len(window) < s.period+1 {
		return nil, nil
	}

	rsi := indicators.RSI(closes(window), s.period)
	cur := rsi[len(rsi)-1]

	if !s.primed {
		s.primed = true
		s.prevRSI = cur
		return nil, nil
	}

	prev := s.prevRSI
	s.prevRSI = cur

	switch {
	case prev < s.low && cur >= s.low:
		return &domain.TradeIntent{
			Direction: domain.DirectionLong,
			Reason:    "rsi recovered from oversold",
		}, nil
	case prev > s.high && cur <= s.high:
		return &domain.TradeIntent{
			Direction: domain.DirectionShort,
			Reason:    "rsi rolled over from overbought",
		}, nil
	}
	return nil, nil
}
