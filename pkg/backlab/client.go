// Package backlab provides a Go SDK for the backlab-server HTTP API.
package backlab

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client talks to a running backlab-server instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new backlab API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// BacktestParams are the request parameters for RunBacktest. Strategy and
// DatasetID are required; zero values elsewhere use server defaults.
type BacktestParams struct {
	Strategy       string
	DatasetID      string
	InitialBalance float64
	RiskPerTrade   float64
	PropFirm       string
	MaxPositions   int
}

// BacktestReport is the decoded response of a backtest run.
type BacktestReport struct {
	RunID              string          `json:"runId"`
	Strategy           string          `json:"strategy"`
	Symbol             string          `json:"symbol"`
	DatasetID          string          `json:"datasetId"`
	InitialBalance     float64         `json:"initialBalance"`
	FinalBalance       float64         `json:"finalBalance"`
	TotalReturn        float64         `json:"totalReturn"`
	TotalReturnPercent float64         `json:"totalReturnPercent"`
	WinRate            float64         `json:"winRate"`
	TotalTrades        int             `json:"totalTrades"`
	WinningTrades      int             `json:"winningTrades"`
	LosingTrades       int             `json:"losingTrades"`
	MaxDrawdown        float64         `json:"maxDrawdown"`
	MaxDrawdownPercent float64         `json:"maxDrawdownPercent"`
	ProfitFactor       float64         `json:"profitFactor"`
	Trades             json.RawMessage `json:"trades"`
	EquityData         json.RawMessage `json:"equityData"`
	ExecutionTime      int64           `json:"executionTime"`
	DataPoints         int             `json:"dataPoints"`
	IsRealBacktest     bool            `json:"isRealBacktest"`
}

// RunSummary is one row in the stored-results listing.
type RunSummary struct {
	RunID        string    `json:"runId"`
	CreatedAt    time.Time `json:"createdAt"`
	Strategy     string    `json:"strategy"`
	DatasetID    string    `json:"datasetId"`
	FinalBalance float64   `json:"finalBalance"`
	TotalTrades  int       `json:"totalTrades"`
	WinRate      float64   `json:"winRate"`
}

// APIError is a non-2xx response decoded from the server's error body.
type APIError struct {
	StatusCode int
	Kind       string
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("backlab: %d %s: %s", e.StatusCode, e.Kind, e.Message)
}

// RunBacktest executes a backtest on the server and returns the report.
func (c *Client) RunBacktest(ctx context.Context, params BacktestParams) (*BacktestReport, error) {
	q := url.Values{}
	q.Set("strategy", params.Strategy)
	q.Set("datasetId", params.DatasetID)
	if params.InitialBalance > 0 {
		q.Set("initialBalance", strconv.FormatFloat(params.InitialBalance, 'f', -1, 64))
	}
	if params.RiskPerTrade > 0 {
		q.Set("riskPerTrade", strconv.FormatFloat(params.RiskPerTrade, 'f', -1, 64))
	}
	if params.PropFirm != "" {
		q.Set("propFirm", params.PropFirm)
	}
	if params.MaxPositions > 0 {
		q.Set("maxPositions", strconv.Itoa(params.MaxPositions))
	}

	var report BacktestReport
	if err := c.get(ctx, "/api/backtest?"+q.Encode(), &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// ListStrategies returns the strategy identifiers registered on the server.
func (c *Client) ListStrategies(ctx context.Context) ([]string, error) {
	var resp struct {
		Strategies []string `json:"strategies"`
	}
	if err := c.get(ctx, "/api/strategies", &resp); err != nil {
		return nil, err
	}
	return resp.Strategies, nil
}

// ListDatasets returns the dataset identifiers stored on the server.
func (c *Client) ListDatasets(ctx context.Context) ([]string, error) {
	var resp struct {
		Datasets []string `json:"datasets"`
	}
	if err := c.get(ctx, "/api/datasets", &resp); err != nil {
		return nil, err
	}
	return resp.Datasets, nil
}

// ListResults returns summaries of stored runs, newest first. A limit of 0
// uses the server default.
func (c *Client) ListResults(ctx context.Context, limit int) ([]RunSummary, error) {
	path := "/api/results"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var resp struct {
		Results []RunSummary `json:"results"`
	}
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// GetResult retrieves a stored run by ID with its full ledger.
func (c *Client) GetResult(ctx context.Context, runID string) (*BacktestReport, error) {
	var report BacktestReport
	if err := c.get(ctx, "/api/results/"+url.PathEscape(runID), &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Kind: "internal"}
		var wrapper struct {
			Error struct {
				Kind    string `json:"kind"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(body, &wrapper) == nil && wrapper.Error.Message != "" {
			apiErr.Kind = wrapper.Error.Kind
			apiErr.Message = wrapper.Error.Message
		} else {
			apiErr.Message = string(body)
		}
		return apiErr
	}

	return json.Unmarshal(body, out)
}
