// Package backtest implements the simulation core: it replays a candle
// series through a strategy, sizes orders from configured risk, tracks
// simulated positions and account equity, and reduces the closed-trade
// ledger into a performance report.
package backtest

import (
	"fmt"
	"math"
)

// Default configuration values.
const (
	DefaultInitialBalance     = 10000.0
	DefaultRiskPerTradePct    = 1.0
	DefaultWarmupBars         = 50
	DefaultMinVolume          = 0.01
	DefaultContractMultiplier = 1.0
	DefaultStopPct            = 0.5
	DefaultRewardRisk         = 2.0
)

// Config is the immutable input for a single backtest run.
type Config struct {
	// Strategy is the identifier resolved through the strategy factory.
	Strategy string `json:"strategy" yaml:"strategy"`

	// DatasetID names the candle series to replay.
	DatasetID string `json:"datasetId" yaml:"dataset_id"`

	// InitialBalance is the simulated starting account balance.
	InitialBalance float64 `json:"initialBalance" yaml:"initial_balance"`

	// RiskPerTradePct is the percentage of balance risked per trade.
	RiskPerTradePct float64 `json:"riskPerTrade" yaml:"risk_per_trade_pct"`

	// PropFirm optionally names a propfirm ruleset that further constrains
	// sizing and drawdown.
	PropFirm string `json:"propFirm,omitempty" yaml:"prop_firm"`

	// WarmupBars is the minimum warm-up window. The effective warm-up is
	// the larger of this and the strategy's own requirement.
	WarmupBars int `json:"warmupBars,omitempty" yaml:"warmup_bars"`

	// MaxConcurrentPositions bounds how many positions may be open at
	// once. The baseline is one.
	MaxConcurrentPositions int `json:"maxConcurrentPositions,omitempty" yaml:"max_concurrent_positions"`

	// AllowReversal closes an open position when an opposing signal
	// arrives instead of ignoring the signal.
	AllowReversal bool `json:"allowReversal,omitempty" yaml:"allow_reversal"`

	// CommissionPerTrade and SwapPerBar are fixed simulated trading costs
	// in account currency. Swap accrues per bar held.
	CommissionPerTrade float64 `json:"commissionPerTrade,omitempty" yaml:"commission_per_trade"`
	SwapPerBar         float64 `json:"swapPerBar,omitempty" yaml:"swap_per_bar"`

	// MinVolume is the smallest order volume the sizer will emit.
	MinVolume float64 `json:"minVolume,omitempty" yaml:"min_volume"`

	// ContractMultiplier converts (price distance × volume) into account
	// currency.
	ContractMultiplier float64 `json:"contractMultiplier,omitempty" yaml:"contract_multiplier"`

	// DefaultStopPct is the stop-loss distance as a percentage of entry
	// price, used when a strategy does not supply its own distance.
	DefaultStopPct float64 `json:"defaultStopPct,omitempty" yaml:"default_stop_pct"`

	// RewardRisk is the take-profit multiple of the stop distance, used
	// when a strategy does not override it.
	RewardRisk float64 `json:"rewardRisk,omitempty" yaml:"reward_risk"`
}

// withDefaults returns a copy of the config with unset fields replaced by
// defaults. The receiver is not modified.
func (c Config) withDefaults() Config {
	if c.InitialBalance <= 0 {
		c.InitialBalance = DefaultInitialBalance
	}
	if c.RiskPerTradePct <= 0 {
		c.RiskPerTradePct = DefaultRiskPerTradePct
	}
	if c.WarmupBars <= 0 {
		c.WarmupBars = DefaultWarmupBars
	}
	if c.MaxConcurrentPositions <= 0 {
		c.MaxConcurrentPositions = 1
	}
	if c.MinVolume <= 0 {
		c.MinVolume = DefaultMinVolume
	}
	if c.ContractMultiplier <= 0 {
		c.ContractMultiplier = DefaultContractMultiplier
	}
	if c.DefaultStopPct <= 0 {
		c.DefaultStopPct = DefaultStopPct
	}
	if c.RewardRisk <= 0 {
		c.RewardRisk = DefaultRewardRisk
	}
	return c
}

// validate rejects configurations that cannot produce a meaningful run.
// Strategy and dataset resolution happen at the caller boundary, so only
// the numeric inputs are checked here.
func (c Config) validate() error {
	if c.RiskPerTradePct > 100 {
		return fmt.Errorf("%w: riskPerTrade %v exceeds 100%%", ErrInvalidConfig, c.RiskPerTradePct)
	}
	for name, v := range map[string]float64{
		"initialBalance": c.InitialBalance,
		"riskPerTrade":   c.RiskPerTradePct,
		"commission":     c.CommissionPerTrade,
		"swap":           c.SwapPerBar,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidConfig, name)
		}
	}
	return nil
}
