package backtest

import "backlab/internal/domain"

// Result is the complete output of a backtest run.
//
// Every metric field is deterministic for a given (dataset, strategy,
// config) triple; ExecutionTime is the only wall-clock dependent field and
// is measured outside the simulation loop.
type Result struct {
	Strategy           string               `json:"strategy"`
	Symbol             string               `json:"symbol"`
	DatasetID          string               `json:"datasetId"`
	InitialBalance     float64              `json:"initialBalance"`
	FinalBalance       float64              `json:"finalBalance"`
	TotalReturn        float64              `json:"totalReturn"`
	TotalReturnPercent float64              `json:"totalReturnPercent"`
	WinRate            float64              `json:"winRate"`
	TotalTrades        int                  `json:"totalTrades"`
	WinningTrades      int                  `json:"winningTrades"`
	LosingTrades       int                  `json:"losingTrades"`
	MaxDrawdown        float64              `json:"maxDrawdown"`
	MaxDrawdownPercent float64              `json:"maxDrawdownPercent"`
	ProfitFactor       float64              `json:"profitFactor"`
	Trades             []domain.ClosedTrade `json:"trades"`
	EquityData         []domain.EquityPoint `json:"equityData"`

	// RiskLimitBreached reports that a prop-firm total drawdown limit was
	// hit during the run: the account was flattened at the breach bar
	// (exit reason risk_limit) and no further positions opened.
	RiskLimitBreached bool `json:"riskLimitBreached,omitempty"`
	ExecutionTime      int64                `json:"executionTime"`
	DataPoints         int                  `json:"dataPoints"`
	IsRealBacktest     bool                 `json:"isRealBacktest"`
}
