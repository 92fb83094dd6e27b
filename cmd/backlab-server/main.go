package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"backlab/internal/backtest"
	"backlab/internal/config"
	"backlab/internal/httpapi"
	"backlab/internal/store"
	"backlab/internal/strategy/builtins"
	"backlab/internal/util"
)

func main() {
	cfgPath := "config/backlab.yaml"
	if p := os.Getenv("BACKLAB_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level)
	util.SetDefault(logger)

	if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
		log.Fatalf("creating data dir: %v", err)
	}
	if dir := filepath.Dir(cfg.Storage.SQLitePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("creating sqlite dir: %v", err)
		}
	}

	candles := &store.ParquetCandleStore{DataDir: cfg.Storage.DataDir}
	results, err := store.NewSQLiteResultStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("opening result store: %v", err)
	}
	defer results.Close()

	defaults := backtest.Config{
		InitialBalance:     cfg.Backtest.InitialBalance,
		RiskPerTradePct:    cfg.Backtest.RiskPerTradePct,
		CommissionPerTrade: cfg.Backtest.CommissionPerTrade,
		SwapPerBar:         cfg.Backtest.SwapPerBar,
		WarmupBars:         cfg.Backtest.WarmupBars,
	}

	api := httpapi.NewServer(
		backtest.NewEngine(logger),
		builtins.DefaultFactory(),
		candles,
		results,
		defaults,
		logger,
	)

	addr := cfg.Server.Host + ":" + strconv.Itoa(cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: api.Handler(),
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		logger.Info("backlab-server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	logger.Info("backlab-server stopped")
}
