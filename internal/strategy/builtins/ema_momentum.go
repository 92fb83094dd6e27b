package builtins

import (
	"github.com/thrasher-corp/gct-ta/indicators"

	"backlab/internal/domain"
	"backlab/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Strategy = (*EMAMomentum)(nil)

// EMAMomentum implements a trend-following strategy on an EMA pair. It goes
// long when the fast EMA crosses above the slow EMA and short on the
// opposite cross, sizing its stop from the average true range so stops
// widen with volatility.
type EMAMomentum struct {
	fastPeriod int
	slowPeriod int
	atrPeriod  int

	primed    bool
	prevAbove bool
}

// NewEMAMomentum creates an EMAMomentum strategy with the given fast/slow
// EMA periods and ATR period.
func NewEMAMomentum(fast, slow, atr int) *EMAMomentum {
	return &EMAMomentum{
		fastPeriod: fast,
		slowPeriod: slow,
		atrPeriod:  atr,
	}
}

// Name returns "ema-momentum".
func (s *EMAMomentum) Name() string {
	return "ema-momentum"
}

// Warmup returns the trailing history required before signals are valid.
// EMAs need roughly twice their period to wash out the seed value.
func (s *EMAMomentum) Warmup() int {
	return s.slowPeriod * 2
}

// Evaluate detects EMA crossovers and attaches an ATR-derived stop distance
// to the resulting intent.
func (s *EMAMomentum) Evaluate(window []domain.Candle) (*domain.TradeIntent, error) {
	need := s.slowPeriod
	if s.atrPeriod+1 > need {
		need = s.atrPeriod + 1
	}
	if len(window) < need {
		return nil, nil
	}

	highs, lows, closeVals := highsLowsCloses(window)
	fast := indicators.EMA(closeVals, s.fastPeriod)
	slow := indicators.EMA(closeVals, s.slowPeriod)
	above := fast[len(fast)-1] > slow[len(slow)-1]

	if !s.primed {
		s.primed = true
		s.prevAbove = above
		return nil, nil
	}

	crossedUp := above && !s.prevAbove
	crossedDown := !above && s.prevAbove
	s.prevAbove = above

	if !crossedUp && !crossedDown {
		return nil, nil
	}

	atr := indicators.ATR(highs, lows, closeVals, s.atrPeriod)
	stop := atr[len(atr)-1] * 1.5

	if crossedUp {
		return &domain.TradeIntent{
			Direction:    domain.DirectionLong,
			Reason:       "fast ema crossed above slow ema",
			StopDistance: stop,
		}, nil
	}
	return &domain.TradeIntent{
		Direction:    domain.DirectionShort,
		Reason:       "fast ema crossed below slow ema",
		StopDistance: stop,
	}, nil
}
