package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"backlab/internal/backtest"
	"backlab/internal/dataset"
	"backlab/internal/propfirm"
	"backlab/internal/store"
	"backlab/internal/strategy"
)

// Server serves the backtest HTTP API.
type Server struct {
	engine   *backtest.Engine
	factory  *strategy.Factory
	candles  store.CandleStore
	results  store.ResultStore
	defaults backtest.Config
	log      *slog.Logger
}

// NewServer creates a backtest API server. defaults supplies the base run
// configuration; request parameters override it per run. results may be nil
// to disable persistence.
func NewServer(
	engine *backtest.Engine,
	factory *strategy.Factory,
	candles store.CandleStore,
	results store.ResultStore,
	defaults backtest.Config,
	log *slog.Logger,
) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		engine:   engine,
		factory:  factory,
		candles:  candles,
		results:  results,
		defaults: defaults,
		log:      log,
	}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/backtest", s.handleBacktest)
	mux.HandleFunc("GET /api/strategies", s.handleStrategies)
	mux.HandleFunc("GET /api/datasets", s.handleDatasets)
	mux.HandleFunc("GET /api/propfirms", s.handlePropFirms)
	mux.HandleFunc("GET /api/results", s.handleListResults)
	mux.HandleFunc("GET /api/results/{id}", s.handleGetResult)
}

// Handler returns an http.Handler with CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, kind, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: ErrorBody{Kind: kind, Message: msg}})
}

// parseFloatParam reads an optional positive float query parameter. The
// second return value reports whether the parameter was present and valid.
func parseFloatParam(r *http.Request, name string) (float64, bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, false, fmt.Errorf("%s must be a positive number, got %q", name, raw)
	}
	return v, true, nil
}

func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	strategyName := q.Get("strategy")
	if strategyName == "" {
		writeError(w, http.StatusBadRequest, "config", "strategy parameter is required")
		return
	}
	datasetID := q.Get("datasetId")
	if datasetID == "" {
		writeError(w, http.StatusBadRequest, "config", "datasetId parameter is required")
		return
	}

	cfg := s.defaults
	cfg.Strategy = strategyName
	cfg.DatasetID = datasetID

	if v, ok, err := parseFloatParam(r, "initialBalance"); err != nil {
		writeError(w, http.StatusBadRequest, "config", err.Error())
		return
	} else if ok {
		cfg.InitialBalance = v
	}
	if v, ok, err := parseFloatParam(r, "riskPerTrade"); err != nil {
		writeError(w, http.StatusBadRequest, "config", err.Error())
		return
	} else if ok {
		cfg.RiskPerTradePct = v
	}
	if pf := q.Get("propFirm"); pf != "" {
		if _, err := propfirm.Lookup(pf); err != nil {
			writeError(w, http.StatusBadRequest, "config", err.Error())
			return
		}
		cfg.PropFirm = pf
	}
	if raw := q.Get("maxPositions"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "config", fmt.Sprintf("maxPositions must be a positive integer, got %q", raw))
			return
		}
		cfg.MaxConcurrentPositions = n
	}

	strat, err := s.factory.New(strategyName)
	if err != nil {
		writeError(w, http.StatusNotFound, "config", err.Error())
		return
	}

	symbol, candles, err := s.candles.ReadDataset(r.Context(), datasetID)
	if err != nil {
		if errors.Is(err, store.ErrDatasetNotFound) {
			writeError(w, http.StatusNotFound, "config", err.Error())
			return
		}
		s.log.Error("reading dataset", "datasetId", datasetID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "failed to read dataset")
		return
	}

	series, err := dataset.NewCandleSeries(datasetID, symbol, candles)
	if err != nil {
		// The request was fine; the stored dataset failed validation.
		writeError(w, http.StatusUnprocessableEntity, "bad_dataset", err.Error())
		return
	}

	result, err := s.engine.Run(series, strat, cfg)
	if err != nil {
		ee := backtest.Classify(err)
		status := http.StatusInternalServerError
		switch ee.Kind {
		case backtest.KindConfig:
			status = http.StatusBadRequest
		case backtest.KindInsufficientData:
			status = http.StatusUnprocessableEntity
		case backtest.KindUpstream:
			status = http.StatusBadGateway
		}
		writeError(w, status, string(ee.Kind), ee.Message)
		return
	}

	runID := uuid.NewString()
	if s.results != nil {
		if err := s.results.SaveResult(r.Context(), runID, time.Now().UTC(), result); err != nil {
			// Persistence failure does not invalidate the run itself.
			s.log.Error("saving result", "runId", runID, "error", err)
		}
	}

	writeJSON(w, BacktestResponse{RunID: runID, Result: result})
}

func (s *Server) handleStrategies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, StrategiesResponse{Strategies: s.factory.List()})
}

func (s *Server) handleDatasets(w http.ResponseWriter, r *http.Request) {
	ids, err := s.candles.ListDatasets(r.Context())
	if err != nil {
		s.log.Error("listing datasets", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "failed to list datasets")
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, DatasetsResponse{Datasets: ids})
}

func (s *Server) handlePropFirms(w http.ResponseWriter, r *http.Request) {
	names := propfirm.List()
	rulesets := make([]propfirm.Ruleset, 0, len(names))
	for _, name := range names {
		rs, err := propfirm.Lookup(name)
		if err != nil {
			continue
		}
		rulesets = append(rulesets, rs)
	}
	writeJSON(w, PropFirmsResponse{PropFirms: rulesets})
}

func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	if s.results == nil {
		writeJSON(w, ResultsResponse{Results: []ResultSummaryJSON{}})
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "config", fmt.Sprintf("limit must be a positive integer, got %q", raw))
			return
		}
		limit = n
	}

	summaries, err := s.results.ListResults(r.Context(), limit)
	if err != nil {
		s.log.Error("listing results", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "failed to list results")
		return
	}

	rows := make([]ResultSummaryJSON, 0, len(summaries))
	for _, sum := range summaries {
		rows = append(rows, ResultSummaryJSON{
			RunID:        sum.RunID,
			CreatedAt:    sum.CreatedAt,
			Strategy:     sum.Strategy,
			DatasetID:    sum.DatasetID,
			FinalBalance: sum.FinalBalance,
			TotalTrades:  sum.TotalTrades,
			WinRate:      sum.WinRate,
		})
	}
	writeJSON(w, ResultsResponse{Results: rows})
}

func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	if s.results == nil {
		writeError(w, http.StatusNotFound, "config", "result persistence is disabled")
		return
	}

	runID := r.PathValue("id")
	stored, err := s.results.GetResult(r.Context(), runID)
	if err != nil {
		if errors.Is(err, store.ErrResultNotFound) {
			writeError(w, http.StatusNotFound, "config", err.Error())
			return
		}
		s.log.Error("getting result", "runId", runID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "failed to load result")
		return
	}

	writeJSON(w, StoredResultResponse{
		RunID:     stored.RunID,
		CreatedAt: stored.CreatedAt,
		Result:    stored.Result,
	})
}
