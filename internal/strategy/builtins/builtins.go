// Package builtins provides the built-in strategy implementations that ship
// with the backlab platform. Indicator math is delegated to the gct-ta
// library; each strategy only keeps the cross-detection state it needs
// between bars.
package builtins

import (
	"backlab/internal/domain"
	"backlab/internal/strategy"
)

// RegisterAll adds every built-in strategy constructor to the factory.
func RegisterAll(f *strategy.Factory) {
	f.Register("sma-cross", func() strategy.Strategy { return NewSMACross(10, 30) })
	f.Register("rsi-reversion", func() strategy.Strategy { return NewRSIReversion(14, 30, 70) })
	f.Register("donchian-breakout", func() strategy.Strategy { return NewDonchianBreakout(20) })
	f.Register("ema-momentum", func() strategy.Strategy { return NewEMAMomentum(9, 21, 14) })
}

// DefaultFactory returns a factory pre-populated with all built-in
// strategies.
func DefaultFactory() *strategy.Factory {
	f := strategy.NewFactory()
	RegisterAll(f)
	return f
}

// closes extracts the close prices from a candle window.
func closes(window []domain.Candle) []float64 {
	out := make([]float64, len(window))
	for i := range window {
		out[i] = window[i].Close
	}
	return out
}

// highsLowsCloses extracts the high, low, and close series from a window.
func highsLowsCloses(window []domain.Candle) (highs, lows, closeVals []float64) {
	highs = make([]float64, len(window))
	lows = make([]float64, len(window))
	closeVals = make([]float64, len(window))
	for i := range window {
		highs[i] = window[i].High
		lows[i] = window[i].Low
		closeVals[i] = window[i].Close
	}
	return highs, lows, closeVals
}
