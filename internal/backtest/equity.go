package backtest

import (
	"time"

	"backlab/internal/domain"
)

// equityTracker maintains the running account balance, peak balance, and
// peak-to-trough drawdown, and accumulates the equity curve. Balance
// accumulation uses Kahan compensated summation so long ledgers do not
// drift.
type equityTracker struct {
	balance      float64
	compensation float64

	peak           float64
	maxDrawdown    float64
	maxDrawdownPct float64

	points []domain.EquityPoint
}

// newEquityTracker seeds the curve with the initial balance before any
// trade.
func newEquityTracker(initialBalance float64, t time.Time) *equityTracker {
	et := &equityTracker{
		balance: initialBalance,
		peak:    initialBalance,
	}
	et.points = append(et.points, domain.EquityPoint{
		Timestamp: t,
		Balance:   initialBalance,
		Equity:    initialBalance,
	})
	return et
}

// add applies one compensated-summation step to the balance.
func (et *equityTracker) add(v float64) {
	y := v - et.compensation
	t := et.balance + y
	et.compensation = (t - et.balance) - y
	et.balance = t
}

// onTradeClosed books the trade's net profit, updates the running peak and
// drawdown, and appends an equity point. unrealized is the mark-to-market
// profit of positions still open at this time.
func (et *equityTracker) onTradeClosed(trade domain.ClosedTrade, unrealized float64) {
	et.add(trade.NetPnL())

	if et.balance > et.peak {
		et.peak = et.balance
	}
	drawdown := et.peak - et.balance
	if drawdown < 0 {
		drawdown = 0
	}
	if drawdown > et.maxDrawdown {
		et.maxDrawdown = drawdown
		if et.peak > 0 {
			et.maxDrawdownPct = drawdown / et.peak * 100
		}
	}

	et.points = append(et.points, domain.EquityPoint{
		Timestamp: trade.ExitTime,
		Balance:   et.balance,
		Equity:    et.balance + unrealized,
		Drawdown:  drawdown,
	})
}

// finish appends the final equity point at series end, guaranteeing the
// curve always holds at least two points.
func (et *equityTracker) finish(t time.Time) {
	drawdown := et.peak - et.balance
	if drawdown < 0 {
		drawdown = 0
	}
	et.points = append(et.points, domain.EquityPoint{
		Timestamp: t,
		Balance:   et.balance,
		Equity:    et.balance,
		Drawdown:  drawdown,
	})
}

// Balance returns the current realized balance.
func (et *equityTracker) Balance() float64 { return et.balance }
