// Package schedule runs the recurring jobs of the trading day on exchange
// time: the 15:50 close-out that flattens every position before the bell,
// and the end-of-day summary notification.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ganchinyao/tos-algo-trade/logbook"
	"github.com/ganchinyao/tos-algo-trade/logx"
	"github.com/ganchinyao/tos-algo-trade/market"
	"github.com/ganchinyao/tos-algo-trade/notify"
)

const (
	// closeOutSpec fires at 15:50 exchange time on weekdays, ten minutes
	// before the close.
	closeOutSpec = "50 15 * * 1-5"

	// summarySpec fires after the close-out has settled.
	summarySpec = "0 16 * * 1-5"
)

// Closer flattens all open positions. Satisfied by *trader.Orchestrator.
type Closer interface {
	CloseAll(ctx context.Context) error
}

// Scheduler owns the cron runner and its jobs.
type Scheduler struct {
	cron     *cron.Cron
	closer   Closer
	book     *logbook.Book
	notifier notify.Notifier
	now      func() time.Time
}

func New(closer Closer, book *logbook.Book, n notify.Notifier) *Scheduler {
	if n == nil {
		n = notify.Nop{}
	}
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(market.ExchangeTZ())),
		closer:   closer,
		book:     book,
		notifier: n,
		now:      time.Now,
	}
}

// Start registers the jobs and begins the cron loop. Jobs run until Stop.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(closeOutSpec, func() { s.runCloseOut(ctx) }); err != nil {
		return fmt.Errorf("register close-out job: %w", err)
	}
	if _, err := s.cron.AddFunc(summarySpec, func() { s.runSummary() }); err != nil {
		return fmt.Errorf("register summary job: %w", err)
	}
	s.cron.Start()
	logx.Info("scheduler started", "close_out", closeOutSpec, "summary", summarySpec)
	return nil
}

// Stop halts the cron loop and waits for any running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runCloseOut(ctx context.Context) {
	logx.Info("scheduled close-out starting")
	if err := s.closer.CloseAll(ctx); err != nil {
		logx.Error("scheduled close-out failed", "err", err)
		s.book.RecordError(s.now(), fmt.Sprintf("scheduled close-out: %v", err))
		s.send(fmt.Sprintf("⚠️ Close-out failed: %v", err))
	}
}

func (s *Scheduler) runSummary() {
	msg, err := s.DailySummary(market.Date(s.now()))
	if err != nil {
		logx.Error("daily summary failed", "err", err)
		return
	}
	s.send(msg)
}

// DailySummary renders the end-of-day report for one date. A day with no
// completed trades still produces a message so a silent bot reads as a
// quiet day, not a dead one.
func (s *Scheduler) DailySummary(date string) (string, error) {
	sum, err := s.book.SummaryForDate(date)
	if err != nil {
		if errors.Is(err, logbook.ErrNotFound) {
			return fmt.Sprintf("😴 %s: no completed trades", date), nil
		}
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s *%s*\n", moodFor(sum.NetPL), date)
	fmt.Fprintf(&b, "Completed trades: %d\n", sum.NumCompletedTrades)
	fmt.Fprintf(&b, "Net P/L: %+.2f\n", sum.NetPL)

	day, err := s.book.OrdersForDate(date)
	if err != nil {
		if errors.Is(err, logbook.ErrNotFound) {
			return b.String(), nil
		}
		return "", err
	}
	for _, tr := range day.Trades {
		fmt.Fprintf(&b, "%s %s %s %v %s @ %v\n",
			tr.Timestamp.In(market.ExchangeTZ()).Format("15:04:05"),
			tr.Strategy, tr.Instruction, tr.Quantity, tr.Symbol, tr.Price)
	}
	return b.String(), nil
}

func moodFor(netPL float64) string {
	switch {
	case netPL > 0:
		return "🟢"
	case netPL < 0:
		return "🔴"
	default:
		return "⚪"
	}
}

func (s *Scheduler) send(msg string) {
	if err := s.notifier.Send(msg); err != nil {
		logx.Warn("notify failed", "err", err)
	}
}
