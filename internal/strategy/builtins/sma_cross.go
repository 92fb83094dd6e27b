package builtins

import (
	"github.com/thrasher-corp/gct-ta/indicators"

	"backlab/internal/domain"
	"backlab/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Strategy = (*SMACross)(nil)

// SMACross implements a simple moving average crossover strategy. It emits a
// long intent when the short-period SMA crosses above the long-period SMA,
// and a short intent when it crosses below.
type SMACross struct {
	shortPeriod int
	longPeriod  int

	primed    bool
	prevAbove bool
}

// NewSMACross creates a new SMACross strategy with the specified short and
// long moving average periods.
func NewSMACross(short, long int) *SMACross {
	return &SMACross{
		shortPeriod: short,
		longPeriod:  long,
	}
}

// Name returns "sma-cross".
func (s *SMACross) Name() string {
	return "sma-cross"
}

// Warmup returns the trailing history required before signals are valid.
func (s *SMACross) Warmup() int {
	return s.longPeriod + 5
}

// Evaluate detects SMA crossovers on the window's close prices.
func (s *SMACross) Evaluate(window []domain.Candle) (*domain.TradeIntent, error) {
	if len(window) < s.longPeriod+1 {
		return nil, nil
	}

	closeVals := closes(window)
	short := indicators.SMA(closeVals, s.shortPeriod)
	long := indicators.SMA(closeVals, s.longPeriod)
	above := short[len(short)-1] > long[len(long)-1]

	// The first evaluated bar only seeds the relationship; a cross needs a
	// previous bar to compare against.
	if !s.primed {
		s.primed = true
		s.prevAbove = above
		return nil, nil
	}

	crossedUp := above && !s.prevAbove
	crossedDown := !above && s.prevAbove
	s.prevAbove = above

	switch {
	case crossedUp:
		return &domain.TradeIntent{
			Direction: domain.DirectionLong,
			Reason:    "sma short crossed above long",
		}, nil
	case crossedDown:
		return &domain.TradeIntent{
			Direction: domain.DirectionShort,
			Reason:    "sma short crossed below long",
		}, nil
	}
	return nil, nil
}
