// Package httpapi provides the HTTP REST API for running backtests and
// browsing datasets, strategies, and stored results.
package httpapi

import (
	"time"

	"backlab/internal/backtest"
	"backlab/internal/propfirm"
)

// BacktestResponse is the JSON payload for a completed backtest run: the
// full result plus the ID it was stored under.
type BacktestResponse struct {
	RunID string `json:"runId"`
	*backtest.Result
}

// StrategiesResponse lists the registered strategy identifiers.
type StrategiesResponse struct {
	Strategies []string `json:"strategies"`
}

// DatasetsResponse lists the stored dataset identifiers.
type DatasetsResponse struct {
	Datasets []string `json:"datasets"`
}

// PropFirmsResponse lists the built-in prop-firm rulesets.
type PropFirmsResponse struct {
	PropFirms []propfirm.Ruleset `json:"propFirms"`
}

// ResultSummaryJSON is one row in the stored-results listing.
type ResultSummaryJSON struct {
	RunID        string    `json:"runId"`
	CreatedAt    time.Time `json:"createdAt"`
	Strategy     string    `json:"strategy"`
	DatasetID    string    `json:"datasetId"`
	FinalBalance float64   `json:"finalBalance"`
	TotalTrades  int       `json:"totalTrades"`
	WinRate      float64   `json:"winRate"`
}

// ResultsResponse lists summaries of stored runs, newest first.
type ResultsResponse struct {
	Results []ResultSummaryJSON `json:"results"`
}

// StoredResultResponse is a stored run with its full trade ledger and
// equity curve.
type StoredResultResponse struct {
	RunID     string    `json:"runId"`
	CreatedAt time.Time `json:"createdAt"`
	*backtest.Result
}

// ErrorBody is the structured error object returned on failures.
type ErrorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// ErrorResponse wraps an ErrorBody.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}
