package backtest

import (
	"fmt"
	"log/slog"
	"time"

	"backlab/internal/dataset"
	"backlab/internal/domain"
	"backlab/internal/propfirm"
	"backlab/internal/strategy"
)

// Engine is the simulation driver: it advances a cursor across a candle
// series one bar at a time, wires the strategy, sizer, position book, and
// equity tracker together, and assembles the final result.
//
// A single Run owns its series, strategy instance, and ledger exclusively;
// the loop is synchronous and strictly sequential, so a run is
// deterministic for identical inputs. Parallelism belongs across runs (see
// Runner), never inside one.
type Engine struct {
	log *slog.Logger
}

// NewEngine creates an Engine that logs through the given logger.
func NewEngine(log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{log: log}
}

// Run executes one backtest of strat over series. The returned result is
// fully realized: any position still open at series end is force-closed at
// the final candle's close price.
func (e *Engine) Run(series *dataset.CandleSeries, strat strategy.Strategy, cfg Config) (*Result, error) {
	started := time.Now()

	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	var ruleset propfirm.Ruleset
	if cfg.PropFirm != "" {
		var err error
		ruleset, err = propfirm.Lookup(cfg.PropFirm)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}

	warmup := cfg.WarmupBars
	if sw := strat.Warmup(); sw > warmup {
		warmup = sw
	}
	if series.Len() <= warmup {
		return nil, fmt.Errorf("%w: %d candles, need more than %d", ErrInsufficientData, series.Len(), warmup)
	}

	siz := newSizer(cfg, ruleset)
	book := newPositionBook(series.Symbol(), cfg)
	equity := newEquityTracker(cfg.InitialBalance, series.At(0).Timestamp)

	// Once a prop-firm total drawdown limit is breached, the account is
	// flattened at the breach bar and no new positions open.
	riskLockout := false
	rejected := 0

	for i := warmup; i < series.Len(); i++ {
		c := series.At(i)

		// Exits first: positions opened on earlier bars are tested
		// against this bar's range before any new decision is made.
		for _, trade := range book.update(c) {
			equity.onTradeClosed(trade, book.unrealized(c))
		}

		if !riskLockout && ruleset.MaxTotalDrawdownPct > 0 && equity.maxDrawdownPct >= ruleset.MaxTotalDrawdownPct {
			riskLockout = true
			for _, trade := range book.closeAll(c.Close, c.Timestamp, domain.ExitReasonRiskLimit) {
				equity.onTradeClosed(trade, 0)
			}
			e.log.Warn("total drawdown limit breached",
				"ruleset", ruleset.Name,
				"maxDrawdownPct", equity.maxDrawdownPct,
				"bar", i,
			)
		}

		intent, err := strat.Evaluate(series.Window(i, warmup+1))
		if err != nil {
			return nil, &EngineError{
				Kind:    KindUpstream,
				Message: fmt.Sprintf("strategy %s failed at bar %d: %v", strat.Name(), i, err),
				err:     err,
			}
		}
		if intent == nil || riskLockout {
			continue
		}

		if book.openCount() > 0 {
			if !cfg.AllowReversal || intent.Direction == book.openDirection() {
				if book.openCount() >= cfg.MaxConcurrentPositions {
					continue
				}
			} else {
				// Opposing signal with reversal enabled: close out, then
				// let the new order open below.
				for _, trade := range book.closeAll(c.Close, c.Timestamp, domain.ExitReasonReversal) {
					equity.onTradeClosed(trade, 0)
				}
			}
		}

		order, err := siz.size(intent, c.Close, equity.Balance())
		if err != nil {
			// Local recovery: one degenerate signal must not abort an
			// otherwise valid run.
			rejected++
			e.log.Debug("order rejected", "strategy", strat.Name(), "bar", i, "error", err)
			continue
		}
		book.openOrder(*order, c.Timestamp)
	}

	last := series.At(series.Len() - 1)
	for _, trade := range book.closeAll(last.Close, last.Timestamp, domain.ExitReasonEndOfSeries) {
		equity.onTradeClosed(trade, 0)
	}
	equity.finish(last.Timestamp)

	trades := book.trades()
	sum := summarize(trades, cfg.InitialBalance, equity.Balance())

	result := &Result{
		Strategy:           strat.Name(),
		Symbol:             series.Symbol(),
		DatasetID:          series.ID(),
		InitialBalance:     cfg.InitialBalance,
		FinalBalance:       equity.Balance(),
		TotalReturn:        sum.totalReturn,
		TotalReturnPercent: sum.totalReturnPercent,
		WinRate:            sum.winRate,
		TotalTrades:        sum.totalTrades,
		WinningTrades:      sum.winningTrades,
		LosingTrades:       sum.losingTrades,
		MaxDrawdown:        equity.maxDrawdown,
		MaxDrawdownPercent: equity.maxDrawdownPct,
		ProfitFactor:       sum.profitFactor,
		Trades:             trades,
		EquityData:         equity.points,
		RiskLimitBreached:  riskLockout,
		ExecutionTime:      time.Since(started).Milliseconds(),
		DataPoints:         series.Len(),
		IsRealBacktest:     true,
	}

	e.log.Info("backtest complete",
		"strategy", strat.Name(),
		"dataset", series.ID(),
		"trades", result.TotalTrades,
		"rejectedOrders", rejected,
		"finalBalance", result.FinalBalance,
		"executionTimeMs", result.ExecutionTime,
	)
	return result, nil
}
