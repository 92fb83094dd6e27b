package backtest

import (
	"fmt"
	"math"

	"backlab/internal/domain"
	"backlab/internal/propfirm"
)

// sizer converts a trade intent plus configured risk tolerance into a
// concrete order with volume, stop loss, and take profit.
type sizer struct {
	riskPct            float64
	minVolume          float64
	contractMultiplier float64
	defaultStopPct     float64
	rewardRisk         float64
}

// newSizer builds a sizer from the run config, clamping the per-trade risk
// to the prop-firm ruleset when one is in effect.
func newSizer(cfg Config, ruleset propfirm.Ruleset) *sizer {
	riskPct := cfg.RiskPerTradePct
	if ruleset.MaxRiskPerTradePct > 0 && riskPct > ruleset.MaxRiskPerTradePct {
		riskPct = ruleset.MaxRiskPerTradePct
	}
	return &sizer{
		riskPct:            riskPct,
		minVolume:          cfg.MinVolume,
		contractMultiplier: cfg.ContractMultiplier,
		defaultStopPct:     cfg.DefaultStopPct,
		rewardRisk:         cfg.RewardRisk,
	}
}

// size produces an order for the intent at the given entry price and
// account balance. It returns ErrDegenerateOrder when the price risk or
// computed volume is unusable; the caller skips the intent and continues.
func (s *sizer) size(intent *domain.TradeIntent, entryPrice, balance float64) (*domain.Order, error) {
	if entryPrice <= 0 || !isFinite(entryPrice) {
		return nil, fmt.Errorf("%w: entry price %v", ErrDegenerateOrder, entryPrice)
	}

	stopDist := intent.StopDistance
	if stopDist <= 0 {
		stopDist = entryPrice * s.defaultStopPct / 100
	}
	if stopDist <= 0 || !isFinite(stopDist) || stopDist >= entryPrice {
		return nil, fmt.Errorf("%w: price risk %v", ErrDegenerateOrder, stopDist)
	}

	riskAmount := balance * s.riskPct / 100
	if riskAmount <= 0 || !isFinite(riskAmount) {
		return nil, fmt.Errorf("%w: risk amount %v", ErrDegenerateOrder, riskAmount)
	}

	volume := riskAmount / (stopDist * s.contractMultiplier)
	if !isFinite(volume) || volume <= 0 {
		return nil, fmt.Errorf("%w: volume %v", ErrDegenerateOrder, volume)
	}
	if volume < s.minVolume {
		volume = s.minVolume
	}

	rr := intent.RewardRisk
	if rr <= 0 {
		rr = s.rewardRisk
	}

	order := &domain.Order{
		Direction:  intent.Direction,
		EntryPrice: entryPrice,
		Volume:     volume,
		Reason:     intent.Reason,
	}
	// Stop loss is always on the losing side of entry; take profit mirrors
	// it at the reward:risk multiple.
	switch intent.Direction {
	case domain.DirectionLong:
		order.StopLoss = entryPrice - stopDist
		order.TakeProfit = entryPrice + stopDist*rr
	case domain.DirectionShort:
		order.StopLoss = entryPrice + stopDist
		order.TakeProfit = entryPrice - stopDist*rr
	default:
		return nil, fmt.Errorf("%w: direction %q", ErrDegenerateOrder, intent.Direction)
	}
	return order, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
