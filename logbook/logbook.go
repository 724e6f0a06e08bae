package logbook

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ganchinyao/tos-algo-trade/market"
)

// Book is the weekly-sharded append-only record of orders, errors and daily
// P/L summaries. All mutations are read-modify-write cycles over a whole
// bucket, serialized by a single mutex; the eligibility gate and the
// reporting surface read through the same instance.
type Book struct {
	mu        sync.Mutex
	orders    store[OrderDay]
	errs      store[ErrorDay]
	summaries store[Summary]
}

// Open creates (if needed) the three per-kind directories under root and
// returns a Book over them.
func Open(root string) (*Book, error) {
	orders, err := newStore[OrderDay](filepath.Join(root, "orders"))
	if err != nil {
		return nil, err
	}
	errs, err := newStore[ErrorDay](filepath.Join(root, "errors"))
	if err != nil {
		return nil, err
	}
	summaries, err := newStore[Summary](filepath.Join(root, "summary"))
	if err != nil {
		return nil, err
	}
	return &Book{orders: orders, errs: errs, summaries: summaries}, nil
}

// AppendTrade appends one fill to its day's order record, creating the day
// on first use.
func (b *Book) AppendTrade(tr Trade) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	bucket := market.WeekBucket(tr.Timestamp)
	date := market.Date(tr.Timestamp)

	days, err := b.orders.Read(bucket)
	if err != nil {
		return err
	}

	appended := false
	for i := range days {
		if days[i].Date == date {
			days[i].Trades = append(days[i].Trades, tr)
			appended = true
			break
		}
	}
	if !appended {
		days = append(days, OrderDay{Date: date, Trades: []Trade{tr}})
	}
	return b.orders.Write(bucket, days)
}

// RecordCompletedTrade folds one realized P/L into the day's summary.
// NetPL accumulates through decimal arithmetic so repeated closes do not
// drift the running total.
func (b *Book) RecordCompletedTrade(ts time.Time, pl float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	bucket := market.WeekBucket(ts)
	date := market.Date(ts)

	sums, err := b.summaries.Read(bucket)
	if err != nil {
		return err
	}

	updated := false
	for i := range sums {
		if sums[i].Date == date {
			sums[i].NumCompletedTrades++
			sums[i].RawPL = append(sums[i].RawPL, pl)
			sums[i].NetPL = decimal.NewFromFloat(sums[i].NetPL).
				Add(decimal.NewFromFloat(pl)).InexactFloat64()
			updated = true
			break
		}
	}
	if !updated {
		sums = append(sums, Summary{
			Date:               date,
			NumCompletedTrades: 1,
			RawPL:              []float64{pl},
			NetPL:              pl,
		})
	}
	return b.summaries.Write(bucket, sums)
}

// RecordError appends an opaque error description to the day's error record.
func (b *Book) RecordError(ts time.Time, msg string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	bucket := market.WeekBucket(ts)
	date := market.Date(ts)

	days, err := b.errs.Read(bucket)
	if err != nil {
		return err
	}

	appended := false
	for i := range days {
		if days[i].Date == date {
			days[i].Errors = append(days[i].Errors, msg)
			appended = true
			break
		}
	}
	if !appended {
		days = append(days, ErrorDay{Date: date, Errors: []string{msg}})
	}
	return b.errs.Write(bucket, days)
}

// TradeCount returns the number of fills recorded for date. Opens and closes
// both count; a missing day counts as zero.
func (b *Book) TradeCount(date string) (int, error) {
	day, err := b.OrdersForDate(date)
	if err != nil {
		if isNotFound(err) {
			return 0, nil
		}
		return 0, err
	}
	return len(day.Trades), nil
}

// OrdersForDate returns the order record of one date, or ErrNotFound.
func (b *Book) OrdersForDate(date string) (OrderDay, error) {
	bucket, err := market.WeekBucketForDate(date)
	if err != nil {
		return OrderDay{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	days, err := b.orders.Read(bucket)
	if err != nil {
		return OrderDay{}, err
	}
	return findByDate(days, date)
}

// OrdersForWeek returns every order record in one week bucket.
func (b *Book) OrdersForWeek(bucket string) ([]OrderDay, error) {
	if !market.ValidBucket(bucket) {
		return nil, fmt.Errorf("invalid week bucket %q", bucket)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.orders.Read(bucket)
}

// AllOrders returns every persisted order record across all buckets.
func (b *Book) AllOrders() ([]OrderDay, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.orders.ReadAll()
}

// SummaryForDate returns the summary of one date, or ErrNotFound.
func (b *Book) SummaryForDate(date string) (Summary, error) {
	bucket, err := market.WeekBucketForDate(date)
	if err != nil {
		return Summary{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	sums, err := b.summaries.Read(bucket)
	if err != nil {
		return Summary{}, err
	}
	return findByDate(sums, date)
}

// SummariesForWeek returns every summary in one week bucket.
func (b *Book) SummariesForWeek(bucket string) ([]Summary, error) {
	if !market.ValidBucket(bucket) {
		return nil, fmt.Errorf("invalid week bucket %q", bucket)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.summaries.Read(bucket)
}

// AllSummaries returns every persisted summary across all buckets.
func (b *Book) AllSummaries() ([]Summary, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.summaries.ReadAll()
}

// ErrorsForDate returns the error record of one date, or ErrNotFound.
func (b *Book) ErrorsForDate(date string) (ErrorDay, error) {
	bucket, err := market.WeekBucketForDate(date)
	if err != nil {
		return ErrorDay{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	days, err := b.errs.Read(bucket)
	if err != nil {
		return ErrorDay{}, err
	}
	return findByDate(days, date)
}

// ErrorsForWeek returns every error record in one week bucket.
func (b *Book) ErrorsForWeek(bucket string) ([]ErrorDay, error) {
	if !market.ValidBucket(bucket) {
		return nil, fmt.Errorf("invalid week bucket %q", bucket)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.errs.Read(bucket)
}

// AllErrors returns every persisted error record across all buckets.
func (b *Book) AllErrors() ([]ErrorDay, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.errs.ReadAll()
}
