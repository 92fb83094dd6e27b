package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"backlab/internal/backtest"
	"backlab/internal/config"
	"backlab/internal/dataset"
	"backlab/internal/gather"
	"backlab/internal/store"
	"backlab/internal/strategy/builtins"
	"backlab/internal/util"
)

const version = "0.1.0"

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: backlab <command> [options]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  version     Print the CLI version\n")
		fmt.Fprintf(os.Stderr, "  backtest    Run one backtest against a stored dataset\n")
		fmt.Fprintf(os.Stderr, "  sweep       Run one backtest per risk value\n")
		fmt.Fprintf(os.Stderr, "  fetch       Download candles into a dataset\n")
		fmt.Fprintf(os.Stderr, "  datasets    List stored datasets\n")
		fmt.Fprintf(os.Stderr, "  strategies  List built-in strategies\n")
		fmt.Fprintf(os.Stderr, "\n")
	}

	if len(os.Args) < 2 {
		flag.Usage()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "version":
		fmt.Printf("backlab %s\n", version)

	case "backtest":
		err = cmdBacktest(ctx, os.Args[2:])

	case "sweep":
		err = cmdSweep(ctx, os.Args[2:])

	case "fetch":
		err = cmdFetch(ctx, os.Args[2:])

	case "datasets":
		err = cmdDatasets(ctx)

	case "strategies":
		err = cmdStrategies()

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		flag.Usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfgPath := "config/backlab.yaml"
	if p := os.Getenv("BACKLAB_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	util.SetDefault(util.NewLogger(cfg.Logging.Level))
	return cfg, nil
}

func loadSeries(ctx context.Context, cfg *config.Config, datasetID string) (*dataset.CandleSeries, error) {
	candles := &store.ParquetCandleStore{DataDir: cfg.Storage.DataDir}
	symbol, bars, err := candles.ReadDataset(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	return dataset.NewCandleSeries(datasetID, symbol, bars)
}

func baseConfig(cfg *config.Config, strategyName, datasetID, propFirm string, balance, risk float64) backtest.Config {
	run := backtest.Config{
		Strategy:           strategyName,
		DatasetID:          datasetID,
		PropFirm:           propFirm,
		InitialBalance:     cfg.Backtest.InitialBalance,
		RiskPerTradePct:    cfg.Backtest.RiskPerTradePct,
		CommissionPerTrade: cfg.Backtest.CommissionPerTrade,
		SwapPerBar:         cfg.Backtest.SwapPerBar,
		WarmupBars:         cfg.Backtest.WarmupBars,
	}
	if balance > 0 {
		run.InitialBalance = balance
	}
	if risk > 0 {
		run.RiskPerTradePct = risk
	}
	return run
}

func printResult(res *backtest.Result) {
	fmt.Printf("strategy:      %s\n", res.Strategy)
	fmt.Printf("dataset:       %s (%s, %d bars)\n", res.DatasetID, res.Symbol, res.DataPoints)
	fmt.Printf("balance:       %.2f -> %.2f (%+.2f%%)\n", res.InitialBalance, res.FinalBalance, res.TotalReturnPercent)
	fmt.Printf("trades:        %d (%d won, %d lost, win rate %.1f%%)\n",
		res.TotalTrades, res.WinningTrades, res.LosingTrades, res.WinRate)
	fmt.Printf("max drawdown:  %.2f (%.2f%%)\n", res.MaxDrawdown, res.MaxDrawdownPercent)
	fmt.Printf("profit factor: %.2f\n", res.ProfitFactor)
	fmt.Printf("elapsed:       %dms\n", res.ExecutionTime)
}

func cmdBacktest(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("backtest", flag.ExitOnError)
	strategyName := fs.String("strategy", "", "strategy identifier")
	datasetID := fs.String("dataset", "", "dataset identifier")
	balance := fs.Float64("balance", 0, "initial balance (0 = config default)")
	risk := fs.Float64("risk", 0, "risk per trade in percent (0 = config default)")
	propFirm := fs.String("propfirm", "", "prop-firm ruleset name")
	save := fs.Bool("save", false, "persist the result to the result store")
	fs.Parse(args)

	if *strategyName == "" || *datasetID == "" {
		return fmt.Errorf("-strategy and -dataset are required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	series, err := loadSeries(ctx, cfg, *datasetID)
	if err != nil {
		return err
	}

	factory := builtins.DefaultFactory()
	strat, err := factory.New(*strategyName)
	if err != nil {
		return err
	}

	run := baseConfig(cfg, *strategyName, *datasetID, *propFirm, *balance, *risk)
	result, err := backtest.NewEngine(nil).Run(series, strat, run)
	if err != nil {
		return err
	}

	printResult(result)

	if *save {
		results, err := store.NewSQLiteResultStore(cfg.Storage.SQLitePath)
		if err != nil {
			return err
		}
		defer results.Close()
		runID := uuid.NewString()
		if err := results.SaveResult(ctx, runID, time.Now().UTC(), result); err != nil {
			return err
		}
		fmt.Printf("saved:         %s\n", runID)
	}
	return nil
}

func cmdSweep(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("sweep", flag.ExitOnError)
	strategyName := fs.String("strategy", "", "strategy identifier")
	datasetID := fs.String("dataset", "", "dataset identifier")
	balance := fs.Float64("balance", 0, "initial balance (0 = config default)")
	propFirm := fs.String("propfirm", "", "prop-firm ruleset name")
	risks := fs.String("risks", "0.5,1,2", "comma-separated risk percentages")
	fs.Parse(args)

	if *strategyName == "" || *datasetID == "" {
		return fmt.Errorf("-strategy and -dataset are required")
	}

	var riskValues []float64
	for _, part := range strings.Split(*risks, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil || v <= 0 {
			return fmt.Errorf("bad risk value %q", part)
		}
		riskValues = append(riskValues, v)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	series, err := loadSeries(ctx, cfg, *datasetID)
	if err != nil {
		return err
	}

	base := baseConfig(cfg, *strategyName, *datasetID, *propFirm, *balance, 0)
	runner := backtest.NewRunner(backtest.NewEngine(nil), builtins.DefaultFactory(), cfg.Backtest.MaxWorkers)
	outcomes := runner.RunAll(ctx, series, backtest.RiskSweep(base, riskValues))

	fmt.Printf("%-8s %-12s %-8s %-10s %-8s\n", "risk%", "final", "trades", "maxDD%", "PF")
	for _, o := range outcomes {
		if o.Err != nil {
			fmt.Printf("%-8.2f error: %v\n", o.Config.RiskPerTradePct, o.Err)
			continue
		}
		fmt.Printf("%-8.2f %-12.2f %-8d %-10.2f %-8.2f\n",
			o.Config.RiskPerTradePct, o.Result.FinalBalance, o.Result.TotalTrades,
			o.Result.MaxDrawdownPercent, o.Result.ProfitFactor)
	}
	return nil
}

func cmdFetch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)
	datasetID := fs.String("dataset", "", "dataset identifier to write")
	symbol := fs.String("symbol", "", "instrument symbol")
	timeframe := fs.String("timeframe", "1Day", "bar timeframe (1Min, 5Min, 15Min, 1Hour, 1Day)")
	start := fs.String("start", "", "start date YYYY-MM-DD (default: config fetch.start_date)")
	end := fs.String("end", "", "end date YYYY-MM-DD (default: now)")
	fs.Parse(args)

	if *datasetID == "" || *symbol == "" {
		return fmt.Errorf("-dataset and -symbol are required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	startStr := *start
	if startStr == "" {
		startStr = cfg.Fetch.StartDate
	}
	startTime, err := time.Parse("2006-01-02", startStr)
	if err != nil {
		return fmt.Errorf("parsing start date %q: %w", startStr, err)
	}
	endTime := time.Now().UTC()
	if *end != "" {
		endTime, err = time.Parse("2006-01-02", *end)
		if err != nil {
			return fmt.Errorf("parsing end date %q: %w", *end, err)
		}
	}

	if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
		return err
	}

	candles := &store.ParquetCandleStore{DataDir: cfg.Storage.DataDir}
	fetcher := gather.NewAlpacaFetcher(
		cfg.Alpaca.APIKey,
		cfg.Alpaca.APISecret,
		cfg.Alpaca.DataURL,
		candles,
		cfg.Fetch.RateLimitPerMin,
	)

	n, err := fetcher.Fetch(ctx, gather.FetchRequest{
		DatasetID: *datasetID,
		Symbol:    *symbol,
		Timeframe: *timeframe,
		Start:     startTime,
		End:       endTime,
	})
	if err != nil {
		return err
	}
	fmt.Printf("wrote %d candles to dataset %s\n", n, *datasetID)
	return nil
}

func cmdDatasets(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	candles := &store.ParquetCandleStore{DataDir: cfg.Storage.DataDir}
	ids, err := candles.ListDatasets(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Println("no datasets")
		return nil
	}
	for _, id := range ids {
		fmt.Println(id)
	}
	return nil
}

func cmdStrategies() error {
	for _, name := range builtins.DefaultFactory().List() {
		fmt.Println(name)
	}
	return nil
}
