// Package domain defines the core data types shared across the backlab
// platform: candles, trade intents, orders, positions, closed trades, and
// equity curve points.
package domain

import "time"

// Direction is the side of a trade: long or short.
type Direction string

// Direction values.
const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
)

// PositionStatus tracks a position through its lifecycle.
type PositionStatus string

// PositionStatus values. A position is created pending, becomes open once
// accepted, and is only ever transitioned to closed, never deleted.
const (
	PositionStatusPending PositionStatus = "pending"
	PositionStatusOpen    PositionStatus = "open"
	PositionStatusClosed  PositionStatus = "closed"
)

// ExitReason records why a position was closed.
type ExitReason string

// ExitReason values.
const (
	ExitReasonStopLoss    ExitReason = "stop_loss"
	ExitReasonTakeProfit  ExitReason = "take_profit"
	ExitReasonReversal    ExitReason = "reversal"
	ExitReasonEndOfSeries ExitReason = "end_of_series"
	ExitReasonRiskLimit   ExitReason = "risk_limit"
)

// Candle is a single OHLCV price bar. Candles are immutable once ingested
// into a series.
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// TradeIntent is a strategy's decision for a single bar. It is ephemeral:
// the sizer consumes it immediately and it is never persisted.
type TradeIntent struct {
	Direction Direction
	Reason    string

	// StopDistance optionally overrides the sizer's default stop-loss
	// distance, in price units. Zero means use the default.
	StopDistance float64

	// RewardRisk optionally overrides the default take-profit multiple.
	// Zero means use the default.
	RewardRisk float64
}

// Order is a concrete sized order derived from a TradeIntent. It becomes a
// Position on acceptance and is not persisted independently.
type Order struct {
	Direction  Direction
	EntryPrice float64
	Volume     float64
	StopLoss   float64
	TakeProfit float64
	Reason     string
}

// Position is a simulated open trade. It is owned exclusively by the
// position book for its open lifetime.
type Position struct {
	ID         int64
	Symbol     string
	Direction  Direction
	Volume     float64
	EntryPrice float64
	EntryTime  time.Time
	StopLoss   float64
	TakeProfit float64
	Status     PositionStatus
	Reason     string

	// MFE/MAE are tracked incrementally bar-by-bar while the position is
	// open, in price units relative to entry.
	MaxFavorableExcursion float64
	MaxAdverseExcursion   float64
}

// ClosedTrade is the immutable record produced when a position closes.
type ClosedTrade struct {
	ID                    int64      `json:"id"`
	Symbol                string     `json:"symbol"`
	Direction             Direction  `json:"direction"`
	EntryTime             time.Time  `json:"entryTime"`
	ExitTime              time.Time  `json:"exitTime"`
	EntryPrice            float64    `json:"entryPrice"`
	ExitPrice             float64    `json:"exitPrice"`
	Volume                float64    `json:"volume"`
	PnL                   float64    `json:"pnl"`
	PnLPoints             float64    `json:"pnlInPriceUnits"`
	Commission            float64    `json:"commission"`
	Swap                  float64    `json:"swap"`
	DurationMs            int64      `json:"durationMs"`
	MaxFavorableExcursion float64    `json:"maxFavorableExcursion"`
	MaxAdverseExcursion   float64    `json:"maxAdverseExcursion"`
	ExitReason            ExitReason `json:"exitReason"`
}

// NetPnL returns the trade's profit after commission and swap costs.
func (t *ClosedTrade) NetPnL() float64 {
	return t.PnL - t.Commission - t.Swap
}

// EquityPoint is one sample of the account equity curve. Points are appended
// monotonically in time order.
type EquityPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Balance   float64   `json:"balance"`
	Equity    float64   `json:"equity"`
	Drawdown  float64   `json:"drawdown"`
}
