package archive

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ganchinyao/tos-algo-trade/logbook"
	"github.com/ganchinyao/tos-algo-trade/market"
)

// GetTrade returns one archived trade by ID.
func (a *Archive) GetTrade(tradeID string) (logbook.Trade, error) {
	row := a.db.QueryRow(`
		SELECT trade_id, open_id, ts, instruction, symbol, quantity, price, strategy
		FROM trades
		WHERE trade_id = ?`, tradeID)

	tr, err := scanTrade(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return logbook.Trade{}, fmt.Errorf("trade %q not found", tradeID)
		}
		return logbook.Trade{}, err
	}
	return tr, nil
}

// TradesBetween returns trades whose date is within [start, end], oldest
// first. Dates are YYYY-MM-DD.
func (a *Archive) TradesBetween(start, end string) ([]logbook.Trade, error) {
	if _, err := market.ParseDate(start); err != nil {
		return nil, err
	}
	if _, err := market.ParseDate(end); err != nil {
		return nil, err
	}

	rows, err := a.db.Query(`
		SELECT trade_id, open_id, ts, instruction, symbol, quantity, price, strategy
		FROM trades
		WHERE date >= ? AND date <= ?
		ORDER BY ts ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTrades(rows)
}

// TradesForStrategy returns every archived trade of one strategy, oldest
// first.
func (a *Archive) TradesForStrategy(strategy string) ([]logbook.Trade, error) {
	rows, err := a.db.Query(`
		SELECT trade_id, open_id, ts, instruction, symbol, quantity, price, strategy
		FROM trades
		WHERE strategy = ?
		ORDER BY ts ASC`, strategy)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTrades(rows)
}

// NetPLBetween sums the daily net P/L over [start, end].
func (a *Archive) NetPLBetween(start, end string) (float64, error) {
	var net sql.NullFloat64
	err := a.db.QueryRow(`
		SELECT SUM(net_pl) FROM summaries
		WHERE date >= ? AND date <= ?`, start, end).Scan(&net)
	if err != nil {
		return 0, err
	}
	return net.Float64, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrade(row rowScanner) (logbook.Trade, error) {
	var (
		tr          logbook.Trade
		ts          time.Time
		instruction string
	)
	err := row.Scan(
		&tr.ID,
		&tr.OpenID,
		&ts,
		&instruction,
		&tr.Symbol,
		&tr.Quantity,
		&tr.Price,
		&tr.Strategy,
	)
	if err != nil {
		return logbook.Trade{}, err
	}
	tr.Timestamp = ts
	tr.Instruction = market.Instruction(instruction)
	return tr, nil
}

func collectTrades(rows *sql.Rows) ([]logbook.Trade, error) {
	var out []logbook.Trade
	for rows.Next() {
		tr, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
