package backtest

import (
	"context"
	"errors"
	"testing"

	"backlab/internal/strategy"
)

func sweepFactory() *strategy.Factory {
	f := strategy.NewFactory()
	f.Register("scripted", func() strategy.Strategy {
		return &scriptedStrategy{warmup: 10, every: 5}
	})
	return f
}

func TestRunner_RiskSweep(t *testing.T) {
	series := flatSeries(t, "sweep", 100, 100, 0.2)
	runner := NewRunner(NewEngine(nil), sweepFactory(), 3)

	base := Config{Strategy: "scripted", WarmupBars: 10, InitialBalance: 10000}
	configs := RiskSweep(base, []float64{0.5, 1, 2})

	outcomes := runner.RunAll(context.Background(), series, configs)
	if len(outcomes) != 3 {
		t.Fatalf("got %d outcomes, want 3", len(outcomes))
	}
	for i, out := range outcomes {
		if out.Err != nil {
			t.Fatalf("outcome %d errored: %v", i, out.Err)
		}
		if out.Config.RiskPerTradePct != configs[i].RiskPerTradePct {
			t.Errorf("outcome %d out of order: risk %v, want %v", i, out.Config.RiskPerTradePct, configs[i].RiskPerTradePct)
		}
		if out.Result.TotalTrades == 0 {
			t.Errorf("outcome %d produced no trades", i)
		}
	}
}

func TestRunner_IsolatedRuns(t *testing.T) {
	// Identical configs across parallel runs must produce identical
	// results: no shared strategy or ledger state.
	series := flatSeries(t, "iso", 100, 100, 0.2)
	runner := NewRunner(NewEngine(nil), sweepFactory(), 4)

	cfg := Config{Strategy: "scripted", WarmupBars: 10}
	outcomes := runner.RunAll(context.Background(), series, []Config{cfg, cfg, cfg, cfg})

	first := outcomes[0].Result
	for i, out := range outcomes[1:] {
		if out.Err != nil {
			t.Fatalf("outcome %d errored: %v", i+1, out.Err)
		}
		if out.Result.TotalTrades != first.TotalTrades ||
			out.Result.FinalBalance != first.FinalBalance {
			t.Errorf("parallel run %d diverged from run 0", i+1)
		}
	}
}

func TestRunner_UnknownStrategyOutcome(t *testing.T) {
	series := flatSeries(t, "unk", 100, 100, 0.2)
	runner := NewRunner(NewEngine(nil), sweepFactory(), 2)

	outcomes := runner.RunAll(context.Background(), series, []Config{
		{Strategy: "scripted", WarmupBars: 10},
		{Strategy: "missing", WarmupBars: 10},
	})

	if outcomes[0].Err != nil {
		t.Errorf("valid run errored: %v", outcomes[0].Err)
	}
	if !errors.Is(outcomes[1].Err, strategy.ErrUnknownStrategy) {
		t.Errorf("expected ErrUnknownStrategy, got %v", outcomes[1].Err)
	}
}

func TestRunner_ContextCancelled(t *testing.T) {
	series := flatSeries(t, "cancel", 100, 100, 0.2)
	runner := NewRunner(NewEngine(nil), sweepFactory(), 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := Config{Strategy: "scripted", WarmupBars: 10}
	outcomes := runner.RunAll(ctx, series, []Config{cfg, cfg})

	var cancelled int
	for _, out := range outcomes {
		if errors.Is(out.Err, context.Canceled) {
			cancelled++
		}
	}
	if cancelled == 0 {
		t.Error("expected at least one run to report context cancellation")
	}
}

// Ensure the scripted fixture satisfies the real Strategy interface.
var _ strategy.Strategy = (*scriptedStrategy)(nil)
