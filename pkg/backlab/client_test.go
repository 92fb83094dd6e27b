package backlab

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewClient(t *testing.T) {
	baseURL := "http://localhost:8090"
	c := NewClient(baseURL)

	if c == nil {
		t.Fatal("expected non-nil client")
	}

	if c.baseURL != baseURL {
		t.Errorf("expected baseURL %q, got %q", baseURL, c.baseURL)
	}

	if c.httpClient == nil {
		t.Fatal("expected non-nil httpClient")
	}
}

func TestRunBacktest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/backtest" {
			t.Errorf("path = %q, want /api/backtest", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("strategy") != "sma-cross" || q.Get("datasetId") != "eurusd-h1" {
			t.Errorf("unexpected query: %v", q)
		}
		if q.Get("initialBalance") != "20000" {
			t.Errorf("initialBalance = %q, want 20000", q.Get("initialBalance"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"runId": "abc-123",
			"strategy": "sma-cross",
			"datasetId": "eurusd-h1",
			"initialBalance": 20000,
			"finalBalance": 21000,
			"totalTrades": 5,
			"isRealBacktest": true
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	report, err := c.RunBacktest(context.Background(), BacktestParams{
		Strategy:       "sma-cross",
		DatasetID:      "eurusd-h1",
		InitialBalance: 20000,
	})
	if err != nil {
		t.Fatalf("RunBacktest: %v", err)
	}
	if report.RunID != "abc-123" {
		t.Errorf("RunID = %q, want abc-123", report.RunID)
	}
	if report.FinalBalance != 21000 {
		t.Errorf("FinalBalance = %v, want 21000", report.FinalBalance)
	}
	if !report.IsRealBacktest {
		t.Error("IsRealBacktest = false, want true")
	}
}

func TestRunBacktestAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":{"kind":"insufficient_data","message":"series shorter than warm-up window"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.RunBacktest(context.Background(), BacktestParams{Strategy: "sma-cross", DatasetID: "tiny"})
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err type = %T, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("StatusCode = %d, want 422", apiErr.StatusCode)
	}
	if apiErr.Kind != "insufficient_data" {
		t.Errorf("Kind = %q, want insufficient_data", apiErr.Kind)
	}
}

func TestListStrategies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"strategies":["ema-momentum","sma-cross"]}`))
	}))
	defer srv.Close()

	got, err := NewClient(srv.URL).ListStrategies(context.Background())
	if err != nil {
		t.Fatalf("ListStrategies: %v", err)
	}
	if len(got) != 2 || got[1] != "sma-cross" {
		t.Errorf("strategies = %v", got)
	}
}

func TestListResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("limit") != "10" {
			t.Errorf("limit = %q, want 10", r.URL.Query().Get("limit"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[{"runId":"r1","strategy":"sma-cross","totalTrades":3}]}`))
	}))
	defer srv.Close()

	got, err := NewClient(srv.URL).ListResults(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListResults: %v", err)
	}
	if len(got) != 1 || got[0].RunID != "r1" {
		t.Errorf("results = %+v", got)
	}
}
