package backtest

import (
	"math"
	"testing"
	"time"

	"backlab/internal/domain"
)

func closedTrade(pnl, commission, swap float64, exit time.Time) domain.ClosedTrade {
	return domain.ClosedTrade{PnL: pnl, Commission: commission, Swap: swap, ExitTime: exit}
}

func TestEquityTracker_SeedAndFinish(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	et := newEquityTracker(10000, t0)
	et.finish(t0.Add(time.Hour))

	if len(et.points) != 2 {
		t.Fatalf("curve has %d points, want 2 even with zero trades", len(et.points))
	}
	if et.points[0].Balance != 10000 || et.points[0].Drawdown != 0 {
		t.Errorf("seed point = %+v, want balance 10000 drawdown 0", et.points[0])
	}
	if et.Balance() != 10000 {
		t.Errorf("Balance() = %v, want 10000", et.Balance())
	}
}

func TestEquityTracker_DrawdownClampAndPeak(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	et := newEquityTracker(1000, t0)

	et.onTradeClosed(closedTrade(200, 0, 0, t0.Add(1*time.Hour)), 0) // 1200, new peak
	et.onTradeClosed(closedTrade(-300, 0, 0, t0.Add(2*time.Hour)), 0) // 900, dd 300
	et.onTradeClosed(closedTrade(500, 0, 0, t0.Add(3*time.Hour)), 0) // 1400, new peak

	if et.peak != 1400 {
		t.Errorf("peak = %v, want 1400", et.peak)
	}
	if et.maxDrawdown != 300 {
		t.Errorf("maxDrawdown = %v, want 300", et.maxDrawdown)
	}
	wantPct := 300.0 / 1200.0 * 100
	if math.Abs(et.maxDrawdownPct-wantPct) > 1e-9 {
		t.Errorf("maxDrawdownPct = %v, want %v", et.maxDrawdownPct, wantPct)
	}

	for i, p := range et.points {
		if p.Drawdown < 0 {
			t.Errorf("point %d drawdown = %v, want >= 0", i, p.Drawdown)
		}
	}
}

func TestEquityTracker_NetCosts(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	et := newEquityTracker(1000, t0)

	et.onTradeClosed(closedTrade(100, 5, 2.5, t0.Add(time.Hour)), 0)
	if got, want := et.Balance(), 1000+100-5-2.5; got != want {
		t.Errorf("Balance() = %v, want %v", got, want)
	}
}

func TestEquityTracker_UnrealizedInEquity(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	et := newEquityTracker(1000, t0)

	et.onTradeClosed(closedTrade(50, 0, 0, t0.Add(time.Hour)), 25)
	last := et.points[len(et.points)-1]
	if last.Balance != 1050 {
		t.Errorf("Balance = %v, want 1050", last.Balance)
	}
	if last.Equity != 1075 {
		t.Errorf("Equity = %v, want balance + unrealized = 1075", last.Equity)
	}
}

func TestEquityTracker_CompensatedSum(t *testing.T) {
	// Many tiny increments that a naive float64 sum would drift on.
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	et := newEquityTracker(1e9, t0)

	const n = 100000
	for i := 0; i < n; i++ {
		et.onTradeClosed(closedTrade(0.001, 0, 0, t0.Add(time.Duration(i)*time.Second)), 0)
	}

	want := 1e9 + float64(n)*0.001
	if math.Abs(et.Balance()-want) > 1e-4 {
		t.Errorf("Balance() = %.8f, want %.8f within 1e-4", et.Balance(), want)
	}
}
