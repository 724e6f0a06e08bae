package trader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ganchinyao/tos-algo-trade/broker"
	"github.com/ganchinyao/tos-algo-trade/gate"
	"github.com/ganchinyao/tos-algo-trade/ledger"
	"github.com/ganchinyao/tos-algo-trade/logbook"
	"github.com/ganchinyao/tos-algo-trade/logx"
	"github.com/ganchinyao/tos-algo-trade/market"
	"github.com/ganchinyao/tos-algo-trade/metrics"
	"github.com/ganchinyao/tos-algo-trade/notify"
	"github.com/ganchinyao/tos-algo-trade/pkg/id"
)

// Orchestrator runs the per-strategy position state machine. It is the only
// writer of the ledger and the order/summary logbooks.
//
// Each strategy has its own lock: a second request for a strategy whose
// order is still in flight is rejected immediately rather than queued, and
// unrelated strategies trade concurrently.
type Orchestrator struct {
	ledger   *ledger.Ledger
	gate     *gate.Gate
	book     *logbook.Book
	broker   broker.Broker
	notifier notify.Notifier

	// Now is the clock used for eligibility, record timestamps and
	// bucket selection. Overridable in tests.
	Now func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Result reports what a buy/sell intent did. A blocked or no-op intent is
// not an error; Reason says why nothing was executed.
type Result struct {
	Executed    bool
	Instruction market.Instruction
	Quantity    float64
	Price       float64
	Reason      string
}

const (
	reasonPending     = "ORDER_PENDING"
	reasonAlreadyOpen = "ALREADY_OPEN"
)

func New(l *ledger.Ledger, g *gate.Gate, book *logbook.Book, b broker.Broker, n notify.Notifier) *Orchestrator {
	if n == nil {
		n = notify.Nop{}
	}
	return &Orchestrator{
		ledger:   l,
		gate:     g,
		book:     book,
		broker:   b,
		notifier: n,
		Now:      time.Now,
		locks:    make(map[string]*sync.Mutex),
	}
}

func (o *Orchestrator) strategyLock(strategy string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()

	lk, ok := o.locks[strategy]
	if !ok {
		lk = &sync.Mutex{}
		o.locks[strategy] = lk
	}
	return lk
}

// MarketBuy executes a buy intent for strategy:
//
//	LONG  -> no-op
//	SHORT -> buy to close the existing short at its quantity (qty ignored)
//	NONE  -> buy to open a long of qty
func (o *Orchestrator) MarketBuy(ctx context.Context, strategy, symbol string, qty float64) (Result, error) {
	return o.execute(ctx, strategy, symbol, qty, market.Long, false)
}

// MarketSell executes a sell intent for strategy:
//
//	SHORT -> no-op
//	LONG  -> sell to close the existing long at its quantity (qty ignored)
//	NONE  -> sell to open a short of qty
func (o *Orchestrator) MarketSell(ctx context.Context, strategy, symbol string, qty float64) (Result, error) {
	return o.execute(ctx, strategy, symbol, qty, market.Short, false)
}

// execute runs the state machine for an intent in direction dir.
// closeOut relaxes the close-out cutoff check, which exists to keep new
// opens from racing the scheduled flatten, not to block the flatten itself.
func (o *Orchestrator) execute(ctx context.Context, strategy, symbol string, qty float64, dir market.Position, closeOut bool) (Result, error) {
	if strategy == "" || symbol == "" {
		return Result{}, fmt.Errorf("strategy and symbol are required")
	}
	if qty <= 0 {
		return Result{}, fmt.Errorf("quantity must be positive, got %v", qty)
	}

	lk := o.strategyLock(strategy)
	if !lk.TryLock() {
		metrics.TradeRejected(reasonPending)
		return Result{Reason: reasonPending}, nil
	}
	defer lk.Unlock()

	now := o.Now()
	if d := o.gate.Evaluate(now); !d.Allowed {
		if reason, blocked := blockingReason(d, closeOut); blocked {
			metrics.TradeRejected(reason)
			logx.Info("trade blocked", "strategy", strategy, "symbol", symbol, "reason", reason)
			return Result{Reason: reason}, nil
		}
	}

	entry := o.ledger.Get(strategy)
	if entry.Position == dir {
		// Already positioned this way; never double-open.
		return Result{Reason: reasonAlreadyOpen}, nil
	}

	closing := entry.Position.Open()
	if closing {
		qty = entry.Quantity
	}

	submit := market.Buy
	instruction := market.BuyToOpen
	if dir == market.Long && closing {
		instruction = market.BuyToClose
	} else if dir == market.Short {
		submit = market.Sell
		instruction = market.SellToOpen
		if closing {
			instruction = market.SellToClose
		}
	}

	err := o.broker.SubmitMarketOrder(ctx, broker.MarketOrderRequest{
		Symbol:      symbol,
		AssetType:   market.Equity,
		Instruction: submit,
		Quantity:    qty,
	})
	if err != nil {
		return Result{}, fmt.Errorf("submit %s %s x%v: %w", submit, symbol, qty, err)
	}

	now = o.Now()
	price, err := o.broker.GetFillPrice(ctx, symbol, now)
	if err != nil {
		// The order may have gone through; the ledger now disagrees with
		// the broker until reconciled by hand. No compensating order is
		// attempted.
		return Result{}, fmt.Errorf("fill price for %s: %w", symbol, err)
	}

	tradeID := id.New()
	tr := logbook.Trade{
		ID:          tradeID,
		Timestamp:   now,
		Instruction: instruction,
		Symbol:      symbol,
		Quantity:    qty,
		Price:       price,
		Strategy:    strategy,
	}

	if closing {
		tr.OpenID = entry.OpenID
		o.ledger.Set(ledger.Entry{Strategy: strategy, Position: market.None})
	} else {
		o.ledger.Set(ledger.Entry{
			Strategy:  strategy,
			Position:  dir,
			Quantity:  qty,
			Symbol:    symbol,
			OpenID:    tradeID,
			OpenPrice: price,
		})
	}

	if err := o.book.AppendTrade(tr); err != nil {
		return Result{}, err
	}

	var pl float64
	if closing {
		pl = roundPL(price, entry.OpenPrice)
		if err := o.book.RecordCompletedTrade(now, pl); err != nil {
			return Result{}, err
		}
	}

	metrics.OrderRecorded(string(instruction))
	metrics.SetOpenPositions(o.ledger.OpenCount())
	o.send(tradeMessage(tr, closing, pl))
	logx.Info("order executed",
		"strategy", strategy, "symbol", symbol,
		"instruction", instruction, "quantity", qty, "price", price)

	return Result{
		Executed:    true,
		Instruction: instruction,
		Quantity:    qty,
		Price:       price,
	}, nil
}

// blockingReason returns the first violation that applies to this call.
// During close-out the CLOSEOUT_WINDOW violation is expected and skipped.
func blockingReason(d gate.Decision, closeOut bool) (string, bool) {
	for _, v := range d.Violations {
		if closeOut && v.Code == "CLOSEOUT_WINDOW" {
			continue
		}
		return v.Code, true
	}
	return "", false
}

// roundPL computes round(close - open, 2) through decimal arithmetic.
func roundPL(closePrice, openPrice float64) float64 {
	return decimal.NewFromFloat(closePrice).
		Sub(decimal.NewFromFloat(openPrice)).
		Round(2).
		InexactFloat64()
}

func tradeMessage(tr logbook.Trade, closing bool, pl float64) string {
	if closing {
		return fmt.Sprintf("%s %s %v %s @ %v (P/L %+.2f)",
			tr.Strategy, tr.Instruction, tr.Quantity, tr.Symbol, tr.Price, pl)
	}
	return fmt.Sprintf("%s %s %v %s @ %v",
		tr.Strategy, tr.Instruction, tr.Quantity, tr.Symbol, tr.Price)
}

func (o *Orchestrator) send(msg string) {
	if err := o.notifier.Send(msg); err != nil {
		logx.Warn("notify failed", "err", err)
	}
}
