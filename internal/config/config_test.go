package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromFile(t *testing.T) {
	// Create a temporary YAML config file.
	yamlContent := []byte(`
storage:
  data_dir: "/tmp/backlab/data"
  sqlite_path: "/tmp/backlab/backlab.db"
server:
  host: "0.0.0.0"
  port: 8090
alpaca:
  api_key: "test-key"
  api_secret: "test-secret"
  base_url: "https://paper-api.alpaca.markets"
  data_url: "https://data.alpaca.markets"
logging:
  level: "info"
  format: "json"
fetch:
  start_date: "2020-01-01"
  batch_size: 500
  max_workers: 8
  rate_limit_per_min: 200
backtest:
  initial_balance: 25000
  risk_per_trade_pct: 0.5
  commission_per_trade: 2.5
  warmup_bars: 100
  max_workers: 2
`)

	tmpFile, err := os.CreateTemp("", "backlab-config-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(yamlContent); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	if err := tmpFile.Close(); err != nil {
		t.Fatalf("failed to close temp file: %v", err)
	}

	// Clear any environment overrides that might interfere.
	os.Unsetenv("ALPACA_API_KEY")
	os.Unsetenv("ALPACA_API_SECRET")
	os.Unsetenv("APCA_API_KEY_ID")
	os.Unsetenv("APCA_API_SECRET_KEY")
	os.Unsetenv("DATA_DIR")
	os.Unsetenv("SQLITE_PATH")
	os.Unsetenv("SERVER_PORT")
	os.Unsetenv("LOG_LEVEL")

	cfg, err := Load(tmpFile.Name())
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	// -- Storage --
	if cfg.Storage.DataDir != "/tmp/backlab/data" {
		t.Errorf("Storage.DataDir = %q, want %q", cfg.Storage.DataDir, "/tmp/backlab/data")
	}
	if cfg.Storage.SQLitePath != "/tmp/backlab/backlab.db" {
		t.Errorf("Storage.SQLitePath = %q, want %q", cfg.Storage.SQLitePath, "/tmp/backlab/backlab.db")
	}

	// -- Server --
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 8090 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8090)
	}

	// -- Alpaca --
	if cfg.Alpaca.APIKey != "test-key" {
		t.Errorf("Alpaca.APIKey = %q, want %q", cfg.Alpaca.APIKey, "test-key")
	}
	if cfg.Alpaca.APISecret != "test-secret" {
		t.Errorf("Alpaca.APISecret = %q, want %q", cfg.Alpaca.APISecret, "test-secret")
	}
	if cfg.Alpaca.BaseURL != "https://paper-api.alpaca.markets" {
		t.Errorf("Alpaca.BaseURL = %q, want %q", cfg.Alpaca.BaseURL, "https://paper-api.alpaca.markets")
	}

	// -- Logging --
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want %q", cfg.Logging.Format, "json")
	}

	// -- Fetch --
	if cfg.Fetch.BatchSize != 500 {
		t.Errorf("Fetch.BatchSize = %d, want %d", cfg.Fetch.BatchSize, 500)
	}
	if cfg.Fetch.MaxWorkers != 8 {
		t.Errorf("Fetch.MaxWorkers = %d, want %d", cfg.Fetch.MaxWorkers, 8)
	}

	// -- Backtest --
	if cfg.Backtest.InitialBalance != 25000 {
		t.Errorf("Backtest.InitialBalance = %f, want %f", cfg.Backtest.InitialBalance, 25000.0)
	}
	if cfg.Backtest.RiskPerTradePct != 0.5 {
		t.Errorf("Backtest.RiskPerTradePct = %f, want %f", cfg.Backtest.RiskPerTradePct, 0.5)
	}
	if cfg.Backtest.WarmupBars != 100 {
		t.Errorf("Backtest.WarmupBars = %d, want %d", cfg.Backtest.WarmupBars, 100)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	os.Unsetenv("DATA_DIR")
	os.Unsetenv("SQLITE_PATH")
	os.Unsetenv("SERVER_PORT")
	os.Unsetenv("LOG_LEVEL")

	cfg, err := Load(filepath.Join(t.TempDir(), "no-such-config.yaml"))
	if err != nil {
		t.Fatalf("Load() returned error for missing file: %v", err)
	}

	want := Default()
	if cfg.Storage.DataDir != want.Storage.DataDir {
		t.Errorf("Storage.DataDir = %q, want default %q", cfg.Storage.DataDir, want.Storage.DataDir)
	}
	if cfg.Server.Port != want.Server.Port {
		t.Errorf("Server.Port = %d, want default %d", cfg.Server.Port, want.Server.Port)
	}
	if cfg.Backtest.InitialBalance != want.Backtest.InitialBalance {
		t.Errorf("Backtest.InitialBalance = %f, want default %f", cfg.Backtest.InitialBalance, want.Backtest.InitialBalance)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	yamlContent := []byte(`
alpaca:
  api_key: "yaml-key"
  api_secret: "yaml-secret"
storage:
  data_dir: "/original/data"
`)

	tmpFile, err := os.CreateTemp("", "backlab-config-env-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(yamlContent); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	tmpFile.Close()

	// Set environment overrides.
	os.Setenv("ALPACA_API_KEY", "env-key")
	os.Setenv("DATA_DIR", "/env/data")
	os.Setenv("SERVER_PORT", "9999")
	os.Unsetenv("APCA_API_KEY_ID")
	os.Unsetenv("APCA_API_SECRET_KEY")
	defer os.Unsetenv("ALPACA_API_KEY")
	defer os.Unsetenv("DATA_DIR")
	defer os.Unsetenv("SERVER_PORT")

	cfg, err := Load(tmpFile.Name())
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Alpaca.APIKey != "env-key" {
		t.Errorf("Alpaca.APIKey = %q, want %q (env override)", cfg.Alpaca.APIKey, "env-key")
	}
	// api_secret should remain from YAML since no env override was set.
	if cfg.Alpaca.APISecret != "yaml-secret" {
		t.Errorf("Alpaca.APISecret = %q, want %q (from YAML)", cfg.Alpaca.APISecret, "yaml-secret")
	}
	if cfg.Storage.DataDir != "/env/data" {
		t.Errorf("Storage.DataDir = %q, want %q (env override)", cfg.Storage.DataDir, "/env/data")
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want %d (env override)", cfg.Server.Port, 9999)
	}
}
