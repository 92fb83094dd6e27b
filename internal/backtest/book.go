package backtest

import (
	"time"

	"backlab/internal/domain"
)

// openPosition pairs a position with the book-internal state tracked while
// it is open.
type openPosition struct {
	pos      *domain.Position
	barsHeld int
}

// positionBook is the position and trade lifecycle manager. It opens,
// tracks, and closes simulated positions, producing exactly one ClosedTrade
// per position. Closed positions are retained in the ledger, never deleted.
type positionBook struct {
	symbol             string
	commissionPerTrade float64
	swapPerBar         float64
	contractMultiplier float64

	nextID int64
	open   []*openPosition
	ledger []domain.ClosedTrade
}

func newPositionBook(symbol string, cfg Config) *positionBook {
	return &positionBook{
		symbol:             symbol,
		commissionPerTrade: cfg.CommissionPerTrade,
		swapPerBar:         cfg.SwapPerBar,
		contractMultiplier: cfg.ContractMultiplier,
	}
}

// openOrder accepts a sized order into the book at the given time. The
// position starts pending and becomes open on the next bar's update, when
// its exit levels are first live in the market.
func (b *positionBook) openOrder(order domain.Order, t time.Time) *domain.Position {
	b.nextID++
	pos := &domain.Position{
		ID:         b.nextID,
		Symbol:     b.symbol,
		Direction:  order.Direction,
		Volume:     order.Volume,
		EntryPrice: order.EntryPrice,
		EntryTime:  t,
		StopLoss:   order.StopLoss,
		TakeProfit: order.TakeProfit,
		Status:     domain.PositionStatusPending,
		Reason:     order.Reason,
	}
	b.open = append(b.open, &openPosition{pos: pos})
	return pos
}

// update advances every open position by one bar: it accrues MFE/MAE from
// the bar's extremes and closes positions whose stop loss or take profit
// was touched. When both levels fall inside the same bar the stop loss
// wins, which is the conservative assumption. It returns the trades closed
// on this bar in position-open order.
func (b *positionBook) update(c domain.Candle) []domain.ClosedTrade {
	var closed []domain.ClosedTrade
	remaining := b.open[:0]

	for _, op := range b.open {
		op.barsHeld++
		pos := op.pos
		if pos.Status == domain.PositionStatusPending {
			pos.Status = domain.PositionStatusOpen
		}

		// Incremental excursion tracking against the bar's range.
		var favorable, adverse float64
		if pos.Direction == domain.DirectionLong {
			favorable = c.High - pos.EntryPrice
			adverse = pos.EntryPrice - c.Low
		} else {
			favorable = pos.EntryPrice - c.Low
			adverse = c.High - pos.EntryPrice
		}
		if favorable > pos.MaxFavorableExcursion {
			pos.MaxFavorableExcursion = favorable
		}
		if adverse > pos.MaxAdverseExcursion {
			pos.MaxAdverseExcursion = adverse
		}

		exitPrice, reason, hit := b.checkExit(pos, c)
		if !hit {
			remaining = append(remaining, op)
			continue
		}
		closed = append(closed, b.close(op, exitPrice, c.Timestamp, reason))
	}
	b.open = remaining
	return closed
}

// checkExit tests the bar's high/low against the position's levels.
func (b *positionBook) checkExit(pos *domain.Position, c domain.Candle) (float64, domain.ExitReason, bool) {
	if pos.Direction == domain.DirectionLong {
		if c.Low <= pos.StopLoss {
			return pos.StopLoss, domain.ExitReasonStopLoss, true
		}
		if c.High >= pos.TakeProfit {
			return pos.TakeProfit, domain.ExitReasonTakeProfit, true
		}
		return 0, "", false
	}
	if c.High >= pos.StopLoss {
		return pos.StopLoss, domain.ExitReasonStopLoss, true
	}
	if c.Low <= pos.TakeProfit {
		return pos.TakeProfit, domain.ExitReasonTakeProfit, true
	}
	return 0, "", false
}

// closeAll force-closes every open position at the given price, used for
// opposing-signal reversals and the end-of-series close.
func (b *positionBook) closeAll(price float64, t time.Time, reason domain.ExitReason) []domain.ClosedTrade {
	var closed []domain.ClosedTrade
	for _, op := range b.open {
		closed = append(closed, b.close(op, price, t, reason))
	}
	b.open = b.open[:0]
	return closed
}

// close transitions a position to closed and appends its trade record to
// the ledger.
func (b *positionBook) close(op *openPosition, exitPrice float64, t time.Time, reason domain.ExitReason) domain.ClosedTrade {
	pos := op.pos
	pos.Status = domain.PositionStatusClosed

	points := exitPrice - pos.EntryPrice
	if pos.Direction == domain.DirectionShort {
		points = -points
	}

	trade := domain.ClosedTrade{
		ID:                    pos.ID,
		Symbol:                pos.Symbol,
		Direction:             pos.Direction,
		EntryTime:             pos.EntryTime,
		ExitTime:              t,
		EntryPrice:            pos.EntryPrice,
		ExitPrice:             exitPrice,
		Volume:                pos.Volume,
		PnL:                   points * pos.Volume * b.contractMultiplier,
		PnLPoints:             points,
		Commission:            b.commissionPerTrade,
		Swap:                  b.swapPerBar * float64(op.barsHeld),
		DurationMs:            t.Sub(pos.EntryTime).Milliseconds(),
		MaxFavorableExcursion: pos.MaxFavorableExcursion,
		MaxAdverseExcursion:   pos.MaxAdverseExcursion,
		ExitReason:            reason,
	}
	b.ledger = append(b.ledger, trade)
	return trade
}

// unrealized returns the mark-to-market profit of all open positions at the
// bar's close, in account currency.
func (b *positionBook) unrealized(c domain.Candle) float64 {
	var total float64
	for _, op := range b.open {
		points := c.Close - op.pos.EntryPrice
		if op.pos.Direction == domain.DirectionShort {
			points = -points
		}
		total += points * op.pos.Volume * b.contractMultiplier
	}
	return total
}

// openCount returns the number of currently open positions.
func (b *positionBook) openCount() int { return len(b.open) }

// openDirection returns the direction of the first open position. Only
// meaningful when openCount() > 0.
func (b *positionBook) openDirection() domain.Direction {
	return b.open[0].pos.Direction
}

// trades returns the complete closed-trade ledger in close order.
func (b *positionBook) trades() []domain.ClosedTrade { return b.ledger }
