package backtest

import (
	"context"
	"sync"

	"backlab/internal/dataset"
	"backlab/internal/strategy"
)

// RunOutcome pairs one sweep configuration with its result or error.
type RunOutcome struct {
	Config Config
	Result *Result
	Err    error
}

// Runner executes independent backtest runs in parallel. Each run receives
// its own strategy instance from the factory and its own ledger, so runs
// never share mutable state and need no synchronization.
type Runner struct {
	engine     *Engine
	factory    *strategy.Factory
	maxWorkers int
}

// NewRunner creates a Runner executing at most maxWorkers runs at once.
func NewRunner(engine *Engine, factory *strategy.Factory, maxWorkers int) *Runner {
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	return &Runner{
		engine:     engine,
		factory:    factory,
		maxWorkers: maxWorkers,
	}
}

// RunAll executes every configuration against the series and returns the
// outcomes in input order. A failed run records its error in the outcome;
// it does not stop the sweep. Cancelling ctx stops dispatching new runs;
// in-flight runs complete (the engine itself has no mid-run cancellation).
func (r *Runner) RunAll(ctx context.Context, series *dataset.CandleSeries, configs []Config) []RunOutcome {
	outcomes := make([]RunOutcome, len(configs))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < r.maxWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = r.runOne(series, configs[i])
			}
		}()
	}

	for i := range configs {
		select {
		case <-ctx.Done():
			for j := i; j < len(configs); j++ {
				outcomes[j] = RunOutcome{Config: configs[j], Err: ctx.Err()}
			}
			close(jobs)
			wg.Wait()
			return outcomes
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
	return outcomes
}

func (r *Runner) runOne(series *dataset.CandleSeries, cfg Config) RunOutcome {
	strat, err := r.factory.New(cfg.Strategy)
	if err != nil {
		return RunOutcome{Config: cfg, Err: err}
	}
	result, err := r.engine.Run(series, strat, cfg)
	return RunOutcome{Config: cfg, Result: result, Err: err}
}

// RiskSweep builds one config per risk value, all other fields copied from
// base.
func RiskSweep(base Config, riskValues []float64) []Config {
	configs := make([]Config, len(riskValues))
	for i, risk := range riskValues {
		cfg := base
		cfg.RiskPerTradePct = risk
		configs[i] = cfg
	}
	return configs
}
