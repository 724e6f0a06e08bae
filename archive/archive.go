// Package archive compacts the JSON logbook into a SQLite database so past
// trading can be queried with SQL instead of walking week-bucket files. The
// import is idempotent: re-running it over the same logbook converges on
// the same rows.
package archive

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ganchinyao/tos-algo-trade/logbook"
	"github.com/ganchinyao/tos-algo-trade/logx"
)

type Archive struct {
	db *sql.DB
}

func Open(path string) (*Archive, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply archive schema: %w", err)
	}
	return &Archive{db: db}, nil
}

func (a *Archive) Close() error {
	return a.db.Close()
}

// Import copies every order and summary record from the logbook into the
// database. Existing rows with the same key are overwritten.
func (a *Archive) Import(book *logbook.Book) (int, error) {
	days, err := book.AllOrders()
	if err != nil {
		return 0, err
	}
	sums, err := book.AllSummaries()
	if err != nil {
		return 0, err
	}

	tx, err := a.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	n := 0
	for _, day := range days {
		for _, tr := range day.Trades {
			_, err := tx.Exec(`
				INSERT OR REPLACE INTO trades
				(trade_id, open_id, date, ts, instruction, symbol, quantity, price, strategy)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				tr.ID, tr.OpenID, day.Date, tr.Timestamp,
				string(tr.Instruction), tr.Symbol, tr.Quantity, tr.Price, tr.Strategy,
			)
			if err != nil {
				return 0, fmt.Errorf("archive trade %s: %w", tr.ID, err)
			}
			n++
		}
	}

	for _, sum := range sums {
		_, err := tx.Exec(`
			INSERT OR REPLACE INTO summaries (date, num_completed_trades, net_pl)
			VALUES (?, ?, ?)`,
			sum.Date, sum.NumCompletedTrades, sum.NetPL,
		)
		if err != nil {
			return 0, fmt.Errorf("archive summary %s: %w", sum.Date, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	logx.Info("logbook archived", "trades", n, "summaries", len(sums))
	return n, nil
}
