// Package propfirm defines prop-firm risk rulesets: named constraint
// profiles that further restrict position sizing and drawdown during a
// backtest. Rulesets are configuration data, not engine logic.
package propfirm

import (
	"fmt"
	"sort"
)

// Ruleset is a risk-constraint profile. Zero values mean "no constraint".
type Ruleset struct {
	Name string `json:"name" yaml:"name"`

	// MaxRiskPerTradePct caps the per-trade risk percentage the sizer may
	// use, regardless of the configured riskPerTrade.
	MaxRiskPerTradePct float64 `json:"maxRiskPerTradePct" yaml:"max_risk_per_trade_pct"`

	// MaxTotalDrawdownPct stops the engine from opening new positions once
	// balance drawdown from peak exceeds this percentage.
	MaxTotalDrawdownPct float64 `json:"maxTotalDrawdownPct" yaml:"max_total_drawdown_pct"`
}

// Built-in profiles modeled on common evaluation-account terms.
var rulesets = map[string]Ruleset{
	"eval-standard": {
		Name:                "eval-standard",
		MaxRiskPerTradePct:  1.0,
		MaxTotalDrawdownPct: 10.0,
	},
	"eval-aggressive": {
		Name:                "eval-aggressive",
		MaxRiskPerTradePct:  2.0,
		MaxTotalDrawdownPct: 12.0,
	},
	"funded-conservative": {
		Name:                "funded-conservative",
		MaxRiskPerTradePct:  0.5,
		MaxTotalDrawdownPct: 6.0,
	},
}

// Lookup returns the named ruleset.
func Lookup(name string) (Ruleset, error) {
	rs, ok := rulesets[name]
	if !ok {
		return Ruleset{}, fmt.Errorf("propfirm: unknown ruleset %q", name)
	}
	return rs, nil
}

// List returns the sorted names of all built-in rulesets.
func List() []string {
	names := make([]string, 0, len(rulesets))
	for name := range rulesets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
