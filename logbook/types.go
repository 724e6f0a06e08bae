package logbook

import (
	"time"

	"github.com/ganchinyao/tos-algo-trade/market"
)

// Trade is one executed fill. ID is a ULID assigned at execution; a closing
// trade additionally carries the OpenID of the trade it flattens, so P/L
// pairing is explicit rather than positional.
type Trade struct {
	ID          string             `json:"id"`
	OpenID      string             `json:"open_id,omitempty"`
	Timestamp   time.Time          `json:"timestamp"`
	Instruction market.Instruction `json:"instruction"`
	Symbol      string             `json:"symbol"`
	Quantity    float64            `json:"quantity"`
	Price       float64            `json:"price"`
	Strategy    string             `json:"strategy"`
}

// OrderDay groups the fills of one exchange-local calendar day. It is
// created on the first fill of the day and only appended to afterwards.
type OrderDay struct {
	Date   string  `json:"date"`
	Trades []Trade `json:"trades"`
}

// Summary is the per-day completed-trade tally. NetPL is maintained
// incrementally as closes land, not recomputed from RawPL.
type Summary struct {
	Date               string    `json:"date"`
	NumCompletedTrades int       `json:"numCompletedTrades"`
	RawPL              []float64 `json:"rawPL"`
	NetPL              float64   `json:"netPL"`
}

// ErrorDay collects opaque error descriptions recorded on one day.
type ErrorDay struct {
	Date   string   `json:"date"`
	Errors []string `json:"err"`
}

func (o OrderDay) RecordDate() string { return o.Date }
func (s Summary) RecordDate() string { return s.Date }
func (e ErrorDay) RecordDate() string { return e.Date }
