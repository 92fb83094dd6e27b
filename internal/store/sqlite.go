package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"backlab/internal/backtest"
	"backlab/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ ResultStore = (*SQLiteResultStore)(nil)

// SQLiteResultStore persists backtest results in a SQLite database. Summary
// fields land in dedicated columns so listing stays cheap; the trade ledger
// and equity curve are stored as JSON payloads alongside them.
type SQLiteResultStore struct {
	db *sql.DB
}

const resultsSchema = `
CREATE TABLE IF NOT EXISTS results (
	run_id             TEXT PRIMARY KEY,
	created_at         INTEGER NOT NULL,
	strategy           TEXT NOT NULL,
	symbol             TEXT NOT NULL,
	dataset_id         TEXT NOT NULL,
	initial_balance    REAL NOT NULL,
	final_balance      REAL NOT NULL,
	total_return       REAL NOT NULL,
	total_return_pct   REAL NOT NULL,
	win_rate           REAL NOT NULL,
	total_trades       INTEGER NOT NULL,
	winning_trades     INTEGER NOT NULL,
	losing_trades      INTEGER NOT NULL,
	max_drawdown       REAL NOT NULL,
	max_drawdown_pct   REAL NOT NULL,
	profit_factor      REAL NOT NULL,
	risk_limit_breached INTEGER NOT NULL DEFAULT 0,
	execution_time_ms  INTEGER NOT NULL,
	data_points        INTEGER NOT NULL,
	trades_json        TEXT NOT NULL,
	equity_json        TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_results_created_at ON results (created_at DESC);
`

// NewSQLiteResultStore opens (or creates) a SQLite database at dbPath and
// creates the results schema if it does not exist yet.
func NewSQLiteResultStore(dbPath string) (*SQLiteResultStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db %s: %w", dbPath, err)
	}
	if _, err := db.Exec(resultsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating results schema: %w", err)
	}
	return &SQLiteResultStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteResultStore) Close() error {
	return s.db.Close()
}

// SaveResult inserts a completed backtest run under runID.
func (s *SQLiteResultStore) SaveResult(ctx context.Context, runID string, createdAt time.Time, result *backtest.Result) error {
	tradesJSON, err := json.Marshal(result.Trades)
	if err != nil {
		return fmt.Errorf("encoding trades for run %s: %w", runID, err)
	}
	equityJSON, err := json.Marshal(result.EquityData)
	if err != nil {
		return fmt.Errorf("encoding equity curve for run %s: %w", runID, err)
	}

	const q = `
INSERT INTO results (
	run_id, created_at, strategy, symbol, dataset_id,
	initial_balance, final_balance, total_return, total_return_pct,
	win_rate, total_trades, winning_trades, losing_trades,
	max_drawdown, max_drawdown_pct, profit_factor, risk_limit_breached,
	execution_time_ms, data_points, trades_json, equity_json
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, q,
		runID, createdAt.UnixMilli(), result.Strategy, result.Symbol, result.DatasetID,
		result.InitialBalance, result.FinalBalance, result.TotalReturn, result.TotalReturnPercent,
		result.WinRate, result.TotalTrades, result.WinningTrades, result.LosingTrades,
		result.MaxDrawdown, result.MaxDrawdownPercent, result.ProfitFactor, result.RiskLimitBreached,
		result.ExecutionTime, result.DataPoints, string(tradesJSON), string(equityJSON),
	)
	if err != nil {
		return fmt.Errorf("inserting result %s: %w", runID, err)
	}
	return nil
}

// GetResult retrieves a stored run by its ID, including the full trade
// ledger and equity curve.
func (s *SQLiteResultStore) GetResult(ctx context.Context, runID string) (*StoredResult, error) {
	const q = `
SELECT created_at, strategy, symbol, dataset_id,
       initial_balance, final_balance, total_return, total_return_pct,
       win_rate, total_trades, winning_trades, losing_trades,
       max_drawdown, max_drawdown_pct, profit_factor, risk_limit_breached,
       execution_time_ms, data_points, trades_json, equity_json
FROM results WHERE run_id = ?`

	var (
		createdAtMs            int64
		res                    backtest.Result
		tradesJSON, equityJSON string
	)
	err := s.db.QueryRowContext(ctx, q, runID).Scan(
		&createdAtMs, &res.Strategy, &res.Symbol, &res.DatasetID,
		&res.InitialBalance, &res.FinalBalance, &res.TotalReturn, &res.TotalReturnPercent,
		&res.WinRate, &res.TotalTrades, &res.WinningTrades, &res.LosingTrades,
		&res.MaxDrawdown, &res.MaxDrawdownPercent, &res.ProfitFactor, &res.RiskLimitBreached,
		&res.ExecutionTime, &res.DataPoints, &tradesJSON, &equityJSON,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrResultNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("querying result %s: %w", runID, err)
	}

	if err := json.Unmarshal([]byte(tradesJSON), &res.Trades); err != nil {
		return nil, fmt.Errorf("decoding trades for run %s: %w", runID, err)
	}
	if err := json.Unmarshal([]byte(equityJSON), &res.EquityData); err != nil {
		return nil, fmt.Errorf("decoding equity curve for run %s: %w", runID, err)
	}
	if res.Trades == nil {
		res.Trades = []domain.ClosedTrade{}
	}
	if res.EquityData == nil {
		res.EquityData = []domain.EquityPoint{}
	}
	res.IsRealBacktest = true

	return &StoredResult{
		RunID:     runID,
		CreatedAt: time.UnixMilli(createdAtMs).UTC(),
		Result:    &res,
	}, nil
}

// ListResults returns summaries of the most recent runs, newest first.
// A limit <= 0 returns all runs.
func (s *SQLiteResultStore) ListResults(ctx context.Context, limit int) ([]ResultSummary, error) {
	q := `
SELECT run_id, created_at, strategy, dataset_id, final_balance, total_trades, win_rate
FROM results ORDER BY created_at DESC, run_id DESC`
	args := []any{}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing results: %w", err)
	}
	defer rows.Close()

	summaries := []ResultSummary{}
	for rows.Next() {
		var (
			sum         ResultSummary
			createdAtMs int64
		)
		if err := rows.Scan(&sum.RunID, &createdAtMs, &sum.Strategy, &sum.DatasetID,
			&sum.FinalBalance, &sum.TotalTrades, &sum.WinRate); err != nil {
			return nil, fmt.Errorf("scanning result row: %w", err)
		}
		sum.CreatedAt = time.UnixMilli(createdAtMs).UTC()
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating result rows: %w", err)
	}
	return summaries, nil
}
