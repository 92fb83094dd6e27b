package backtest

import "backlab/internal/domain"

// profitFactorCap is the sentinel reported when there are profitable trades
// but no losing ones; reporting infinity would poison JSON output.
const profitFactorCap = 999.0

// summary holds the aggregate metrics reduced from a closed-trade ledger.
type summary struct {
	totalTrades        int
	winningTrades      int
	losingTrades       int
	winRate            float64
	profitFactor       float64
	totalReturn        float64
	totalReturnPercent float64
}

// summarize is a pure reduction over the ledger. It contains no randomness
// and no wall-clock reads, so identical inputs always produce identical
// numbers. Zero trades yields zeroed metrics, never NaN.
func summarize(trades []domain.ClosedTrade, initialBalance, finalBalance float64) summary {
	var grossProfit, grossLoss float64
	var wins int
	for i := range trades {
		net := trades[i].NetPnL()
		if net >= 0 {
			wins++
			grossProfit += net
		} else {
			grossLoss += -net
		}
	}

	s := summary{
		totalTrades:   len(trades),
		winningTrades: wins,
		losingTrades:  len(trades) - wins,
		totalReturn:   finalBalance - initialBalance,
	}
	if s.totalTrades > 0 {
		s.winRate = float64(wins) / float64(s.totalTrades) * 100
	}
	if initialBalance > 0 {
		s.totalReturnPercent = s.totalReturn / initialBalance * 100
	}
	switch {
	case grossLoss > 0:
		s.profitFactor = grossProfit / grossLoss
	case grossProfit > 0:
		s.profitFactor = profitFactorCap
	}
	return s
}
