package gather

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"backlab/internal/domain"
	"backlab/internal/store"
	"backlab/internal/util"
)

// Compile-time interface check.
var _ Fetcher = (*AlpacaFetcher)(nil)

// AlpacaFetcher downloads OHLCV bars from the Alpaca market-data API and
// persists them as candle datasets.
type AlpacaFetcher struct {
	client  *marketdata.Client
	store   store.CandleStore
	limiter *util.RateLimiter
	log     *slog.Logger
}

// NewAlpacaFetcher creates an AlpacaFetcher configured with the given Alpaca
// credentials and target store. rateLimitPerMin bounds API calls per minute.
func NewAlpacaFetcher(apiKey, apiSecret, dataURL string, s store.CandleStore, rateLimitPerMin int) *AlpacaFetcher {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}

	return &AlpacaFetcher{
		client:  marketdata.NewClient(opts),
		store:   s,
		limiter: util.NewRateLimiter(rateLimitPerMin),
		log:     slog.Default().With("fetcher", "alpaca"),
	}
}

// Name returns the fetcher identifier.
func (f *AlpacaFetcher) Name() string { return "alpaca" }

// Fetch downloads bars for the requested symbol and timeframe, converts them
// to candles, and writes them under req.DatasetID. Repeated fetches for the
// same dataset merge with previously stored candles.
func (f *AlpacaFetcher) Fetch(ctx context.Context, req FetchRequest) (int, error) {
	if req.DatasetID == "" || req.Symbol == "" {
		return 0, fmt.Errorf("fetch request needs datasetID and symbol")
	}

	timeframe, err := ParseTimeframe(req.Timeframe)
	if err != nil {
		return 0, err
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	var bars []marketdata.Bar
	err = util.Retry(ctx, 3, 500*time.Millisecond, func() error {
		var ferr error
		bars, ferr = f.client.GetBars(req.Symbol, marketdata.GetBarsRequest{
			TimeFrame:  timeframe,
			Start:      req.Start,
			End:        req.End,
			Adjustment: marketdata.Split,
		})
		return ferr
	})
	if err != nil {
		return 0, fmt.Errorf("fetching bars for %s: %w", req.Symbol, err)
	}

	if len(bars) == 0 {
		f.log.Warn("no bars returned", "symbol", req.Symbol, "timeframe", req.Timeframe)
		return 0, nil
	}

	candles := barsToCandles(bars)
	if err := f.store.WriteDataset(ctx, req.DatasetID, req.Symbol, candles); err != nil {
		return 0, fmt.Errorf("writing dataset %s: %w", req.DatasetID, err)
	}

	f.log.Info("dataset written",
		"datasetId", req.DatasetID,
		"symbol", req.Symbol,
		"timeframe", req.Timeframe,
		"candles", len(candles),
	)
	return len(candles), nil
}

// ParseTimeframe maps a timeframe label like "1Min", "15Min", "1Hour", or
// "1Day" to the Alpaca TimeFrame representation.
func ParseTimeframe(s string) (marketdata.TimeFrame, error) {
	switch strings.ToLower(s) {
	case "", "1day", "1d", "day":
		return marketdata.OneDay, nil
	case "1min", "1m":
		return marketdata.OneMin, nil
	case "5min", "5m":
		return marketdata.NewTimeFrame(5, marketdata.Min), nil
	case "15min", "15m":
		return marketdata.NewTimeFrame(15, marketdata.Min), nil
	case "30min", "30m":
		return marketdata.NewTimeFrame(30, marketdata.Min), nil
	case "1hour", "1h":
		return marketdata.OneHour, nil
	case "4hour", "4h":
		return marketdata.NewTimeFrame(4, marketdata.Hour), nil
	default:
		return marketdata.TimeFrame{}, fmt.Errorf("unsupported timeframe %q", s)
	}
}

// barsToCandles converts Alpaca bars to domain candles in timestamp order.
func barsToCandles(bars []marketdata.Bar) []domain.Candle {
	candles := make([]domain.Candle, len(bars))
	for i, b := range bars {
		candles[i] = domain.Candle{
			Timestamp: b.Timestamp.UTC(),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    float64(b.Volume),
		}
	}
	return candles
}
