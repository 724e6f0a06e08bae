package trader

import (
	"errors"

	"github.com/ganchinyao/tos-algo-trade/ledger"
	"github.com/ganchinyao/tos-algo-trade/logbook"
	"github.com/ganchinyao/tos-algo-trade/logx"
	"github.com/ganchinyao/tos-algo-trade/market"
	"github.com/ganchinyao/tos-algo-trade/metrics"
)

// Restore rebuilds the ledger from today's order records, so positions
// opened earlier in the day survive a process restart. Trades are replayed
// in insertion order: an open establishes the position, its close resets it.
//
// Only today's records are replayed. The book is flattened at each day's
// close, so an overnight position only exists when the close-out itself
// failed, and that failure is already notified.
func (o *Orchestrator) Restore() error {
	day, err := o.book.OrdersForDate(market.Date(o.Now()))
	if err != nil {
		if errors.Is(err, logbook.ErrNotFound) {
			return nil
		}
		return err
	}

	restored := 0
	for _, tr := range day.Trades {
		switch tr.Instruction {
		case market.BuyToOpen:
			o.ledger.Set(ledger.Entry{
				Strategy:  tr.Strategy,
				Position:  market.Long,
				Quantity:  tr.Quantity,
				Symbol:    tr.Symbol,
				OpenID:    tr.ID,
				OpenPrice: tr.Price,
			})
		case market.SellToOpen:
			o.ledger.Set(ledger.Entry{
				Strategy:  tr.Strategy,
				Position:  market.Short,
				Quantity:  tr.Quantity,
				Symbol:    tr.Symbol,
				OpenID:    tr.ID,
				OpenPrice: tr.Price,
			})
		case market.BuyToClose, market.SellToClose:
			o.ledger.Set(ledger.Entry{Strategy: tr.Strategy, Position: market.None})
		}
	}

	for _, e := range o.ledger.Open() {
		logx.Info("position restored", "strategy", e.Strategy, "position", e.Position,
			"symbol", e.Symbol, "quantity", e.Quantity)
		restored++
	}
	metrics.SetOpenPositions(restored)
	return nil
}
