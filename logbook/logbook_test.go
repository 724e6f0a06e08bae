package logbook

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ganchinyao/tos-algo-trade/market"
)

func newTestBook(t *testing.T) *Book {
	t.Helper()

	b, err := Open(t.TempDir())
	require.NoError(t, err)
	return b
}

func nyTime(date string, hour, min int) time.Time {
	d, err := market.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return d.Add(time.Duration(hour)*time.Hour + time.Duration(min)*time.Minute)
}

func testTrade(ts time.Time, strategy, id string, instr market.Instruction) Trade {
	return Trade{
		ID:          id,
		Timestamp:   ts,
		Instruction: instr,
		Symbol:      "SPY",
		Quantity:    10,
		Price:       400.25,
		Strategy:    strategy,
	}
}

func TestAppendTradeCreatesDayThenAppends(t *testing.T) {
	t.Parallel()

	b := newTestBook(t)
	ts := nyTime("2022-09-02", 10, 0)

	require.NoError(t, b.AppendTrade(testTrade(ts, "S1", "T1", market.BuyToOpen)))
	require.NoError(t, b.AppendTrade(testTrade(ts.Add(time.Minute), "S1", "T2", market.SellToClose)))

	day, err := b.OrdersForDate("2022-09-02")
	require.NoError(t, err)
	require.Len(t, day.Trades, 2)
	assert.Equal(t, "T1", day.Trades[0].ID)
	assert.Equal(t, "T2", day.Trades[1].ID)
}

func TestAppendTradeSpansBucketsTransparently(t *testing.T) {
	t.Parallel()

	b := newTestBook(t)

	// 7th and 8th land in different week buckets of the same month.
	require.NoError(t, b.AppendTrade(testTrade(nyTime("2022-09-07", 10, 0), "S1", "T1", market.BuyToOpen)))
	require.NoError(t, b.AppendTrade(testTrade(nyTime("2022-09-08", 10, 0), "S1", "T2", market.BuyToOpen)))

	w1, err := b.OrdersForWeek("2022-09-w1")
	require.NoError(t, err)
	w2, err := b.OrdersForWeek("2022-09-w2")
	require.NoError(t, err)
	require.Len(t, w1, 1)
	require.Len(t, w2, 1)

	all, err := b.AllOrders()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestOrdersForDateNotFound(t *testing.T) {
	t.Parallel()

	b := newTestBook(t)
	_, err := b.OrdersForDate("2022-09-02")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrdersForWeekEmptyBucket(t *testing.T) {
	t.Parallel()

	b := newTestBook(t)
	days, err := b.OrdersForWeek("2022-09-w1")
	require.NoError(t, err)
	assert.Empty(t, days)

	_, err = b.OrdersForWeek("not-a-bucket")
	assert.Error(t, err)
}

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()

	s, err := newStore[OrderDay](t.TempDir())
	require.NoError(t, err)

	in := []OrderDay{
		{Date: "2022-09-01", Trades: []Trade{testTrade(nyTime("2022-09-01", 9, 31), "S1", "T1", market.BuyToOpen)}},
		{Date: "2022-09-02", Trades: []Trade{testTrade(nyTime("2022-09-02", 9, 31), "S2", "T2", market.SellToOpen)}},
	}
	require.NoError(t, s.Write("2022-09-w1", in))

	out, err := s.Read("2022-09-w1")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, in[0].Date, out[0].Date)
	assert.Equal(t, in[1].Date, out[1].Date)
	assert.Equal(t, "T1", out[0].Trades[0].ID)
	assert.True(t, out[0].Trades[0].Timestamp.Equal(in[0].Trades[0].Timestamp))
}

func TestStoreWriteReplacesWithoutDuplicating(t *testing.T) {
	t.Parallel()

	s, err := newStore[Summary](t.TempDir())
	require.NoError(t, err)

	recs := []Summary{{Date: "2022-09-01", NumCompletedTrades: 1, RawPL: []float64{1.5}, NetPL: 1.5}}
	require.NoError(t, s.Write("2022-09-w1", recs))
	require.NoError(t, s.Write("2022-09-w1", recs))

	out, err := s.Read("2022-09-w1")
	require.NoError(t, err)
	assert.Len(t, out, 1)
}

func TestStoreReadMissingBucket(t *testing.T) {
	t.Parallel()

	s, err := newStore[ErrorDay](t.TempDir())
	require.NoError(t, err)

	out, err := s.Read("2022-09-w1")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRecordCompletedTradeAccumulates(t *testing.T) {
	t.Parallel()

	b := newTestBook(t)
	ts := nyTime("2022-09-02", 11, 0)

	require.NoError(t, b.RecordCompletedTrade(ts, 1.25))
	require.NoError(t, b.RecordCompletedTrade(ts.Add(time.Hour), -0.75))
	require.NoError(t, b.RecordCompletedTrade(ts.Add(2*time.Hour), 0.1))

	sum, err := b.SummaryForDate("2022-09-02")
	require.NoError(t, err)
	assert.Equal(t, 3, sum.NumCompletedTrades)
	assert.Equal(t, []float64{1.25, -0.75, 0.1}, sum.RawPL)
	// 1.25 - 0.75 + 0.1 accumulated via decimal, no float drift.
	assert.Equal(t, 0.6, sum.NetPL)
}

func TestRecordError(t *testing.T) {
	t.Parallel()

	b := newTestBook(t)
	ts := nyTime("2022-09-02", 12, 0)

	require.NoError(t, b.RecordError(ts, "order submit: http 500"))
	require.NoError(t, b.RecordError(ts.Add(time.Minute), "quote lookup: timeout"))

	day, err := b.ErrorsForDate("2022-09-02")
	require.NoError(t, err)
	assert.Equal(t, []string{"order submit: http 500", "quote lookup: timeout"}, day.Errors)

	all, err := b.AllErrors()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestTradeCount(t *testing.T) {
	t.Parallel()

	b := newTestBook(t)

	n, err := b.TradeCount("2022-09-02")
	require.NoError(t, err)
	assert.Zero(t, n)

	ts := nyTime("2022-09-02", 10, 0)
	for i := 0; i < 3; i++ {
		require.NoError(t, b.AppendTrade(testTrade(ts.Add(time.Duration(i)*time.Minute), "S1", "T", market.BuyToOpen)))
	}

	n, err = b.TradeCount("2022-09-02")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
