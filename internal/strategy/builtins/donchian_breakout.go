package builtins

import (
	"backlab/internal/domain"
	"backlab/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Strategy = (*DonchianBreakout)(nil)

// DonchianBreakout implements a channel breakout strategy. It goes long when
// the close breaks above the highest high of the previous channel-length
// bars and short when it breaks below the lowest low.
type DonchianBreakout struct {
	channel int
}

// NewDonchianBreakout creates a DonchianBreakout strategy with the given
// channel length.
func NewDonchianBreakout(channel int) *DonchianBreakout {
	return &DonchianBreakout{channel: channel}
}

// Name returns "donchian-breakout".
func (s *DonchianBreakout) Name() string {
	return "donchian-breakout"
}

// Warmup returns the trailing history required before signals are valid.
func (s *DonchianBreakout) Warmup() int {
	return s.channel + 1
}

// Evaluate checks the current close against the channel formed by the
// preceding bars. The current bar is excluded from the channel so the
// breakout is measured against settled history only.
func (s *DonchianBreakout) Evaluate(window []domain.Candle) (*domain.TradeIntent, error) {
	if len(window) < s.channel+1 {
		return nil, nil
	}

	cur := window[len(window)-1]
	prior := window[len(window)-1-s.channel : len(window)-1]

	highest := prior[0].High
	lowest := prior[0].Low
	for _, c := range prior[1:] {
		if c.High > highest {
			highest = c.High
		}
		if c.Low < lowest {
			lowest = c.Low
		}
	}

	switch {
	case cur.Close > highest:
		return &domain.TradeIntent{
			Direction: domain.DirectionLong,
			Reason:    "close broke above donchian channel",
			// Stop at the channel midline.
			StopDistance: cur.Close - (highest+lowest)/2,
		}, nil
	case cur.Close < lowest:
		return &domain.TradeIntent{
			Direction:    domain.DirectionShort,
			Reason:       "close broke below donchian channel",
			StopDistance: (highest+lowest)/2 - cur.Close,
		}, nil
	}
	return nil, nil
}
