package archive

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ganchinyao/tos-algo-trade/logbook"
	"github.com/ganchinyao/tos-algo-trade/market"
)

func newTestArchive(t *testing.T) (*Archive, *logbook.Book) {
	t.Helper()
	dir := t.TempDir()

	book, err := logbook.Open(filepath.Join(dir, "db"))
	require.NoError(t, err)

	a, err := Open(filepath.Join(dir, "archive.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	return a, book
}

func seedTrades(t *testing.T, book *logbook.Book) {
	t.Helper()

	tz := market.ExchangeTZ()
	for i, tr := range []logbook.Trade{
		{ID: "t1", Timestamp: time.Date(2023, 6, 13, 10, 30, 0, 0, tz),
			Instruction: market.BuyToOpen, Symbol: "QQQ", Quantity: 10, Price: 355.20, Strategy: "macd-cross"},
		{ID: "t2", OpenID: "t1", Timestamp: time.Date(2023, 6, 13, 14, 0, 0, 0, tz),
			Instruction: market.SellToClose, Symbol: "QQQ", Quantity: 10, Price: 356.33, Strategy: "macd-cross"},
		{ID: "t3", Timestamp: time.Date(2023, 6, 20, 11, 0, 0, 0, tz),
			Instruction: market.SellToOpen, Symbol: "SPY", Quantity: 4, Price: 440.00, Strategy: "mean-rev"},
	} {
		require.NoError(t, book.AppendTrade(tr), "trade %d", i)
	}
	require.NoError(t, book.RecordCompletedTrade(time.Date(2023, 6, 13, 14, 0, 0, 0, tz), 1.13))
}

func TestImportAndQuery(t *testing.T) {
	t.Parallel()
	a, book := newTestArchive(t)
	seedTrades(t, book)

	n, err := a.Import(book)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	tr, err := a.GetTrade("t2")
	require.NoError(t, err)
	assert.Equal(t, "t1", tr.OpenID)
	assert.Equal(t, market.SellToClose, tr.Instruction)
	assert.Equal(t, 356.33, tr.Price)

	_, err = a.GetTrade("nope")
	assert.Error(t, err)
}

func TestImportIsIdempotent(t *testing.T) {
	t.Parallel()
	a, book := newTestArchive(t)
	seedTrades(t, book)

	_, err := a.Import(book)
	require.NoError(t, err)
	_, err = a.Import(book)
	require.NoError(t, err)

	trades, err := a.TradesForStrategy("macd-cross")
	require.NoError(t, err)
	assert.Len(t, trades, 2)
}

func TestTradesBetween(t *testing.T) {
	t.Parallel()
	a, book := newTestArchive(t)
	seedTrades(t, book)

	_, err := a.Import(book)
	require.NoError(t, err)

	trades, err := a.TradesBetween("2023-06-13", "2023-06-13")
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "t1", trades[0].ID)
	assert.Equal(t, "t2", trades[1].ID)

	trades, err = a.TradesBetween("2023-06-01", "2023-06-30")
	require.NoError(t, err)
	assert.Len(t, trades, 3)

	_, err = a.TradesBetween("13/06/2023", "2023-06-30")
	assert.Error(t, err)
}

func TestNetPLBetween(t *testing.T) {
	t.Parallel()
	a, book := newTestArchive(t)
	seedTrades(t, book)

	_, err := a.Import(book)
	require.NoError(t, err)

	net, err := a.NetPLBetween("2023-06-01", "2023-06-30")
	require.NoError(t, err)
	assert.Equal(t, 1.13, net)

	// Range with no summaries sums to zero, not an error.
	net, err = a.NetPLBetween("2024-01-01", "2024-01-31")
	require.NoError(t, err)
	assert.Equal(t, 0.0, net)
}
