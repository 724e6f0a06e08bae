package trader

import (
	"context"
	"errors"
	"fmt"

	"github.com/ganchinyao/tos-algo-trade/logbook"
	"github.com/ganchinyao/tos-algo-trade/logx"
	"github.com/ganchinyao/tos-algo-trade/market"
)

// CloseAll flattens every strategy holding a position by replaying the most
// recent trade's (symbol, quantity) for that strategy through the opposite
// direction of the state machine. Used by the end-of-day schedule and the
// admin close-all endpoint; the close-out cutoff does not apply to it.
//
// Strategies are processed independently: one failure is remembered and the
// rest still close.
func (o *Orchestrator) CloseAll(ctx context.Context) error {
	today, err := o.book.OrdersForDate(market.Date(o.Now()))
	if err != nil && !errors.Is(err, logbook.ErrNotFound) {
		return err
	}

	var firstErr error
	for _, entry := range o.ledger.Open() {
		symbol, qty := entry.Symbol, entry.Quantity
		if last, ok := lastTradeFor(today, entry.Strategy); ok {
			symbol, qty = last.Symbol, last.Quantity
		}

		var res Result
		var execErr error
		switch entry.Position {
		case market.Long:
			res, execErr = o.execute(ctx, entry.Strategy, symbol, qty, market.Short, true)
		case market.Short:
			res, execErr = o.execute(ctx, entry.Strategy, symbol, qty, market.Long, true)
		}

		if execErr != nil {
			logx.Error("close-out failed", "strategy", entry.Strategy, "err", execErr)
			if firstErr == nil {
				firstErr = fmt.Errorf("close %s: %w", entry.Strategy, execErr)
			}
			continue
		}
		if !res.Executed {
			logx.Warn("close-out skipped", "strategy", entry.Strategy, "reason", res.Reason)
		}
	}
	return firstErr
}

func lastTradeFor(day logbook.OrderDay, strategy string) (logbook.Trade, bool) {
	for i := len(day.Trades) - 1; i >= 0; i-- {
		if day.Trades[i].Strategy == strategy {
			return day.Trades[i], true
		}
	}
	return logbook.Trade{}, false
}
