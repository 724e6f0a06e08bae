package gate

import (
	"fmt"
	"time"

	"github.com/ganchinyao/tos-algo-trade/market"
)

// Violation names one reason trading is blocked right now.
type Violation struct {
	Code string
	Msg  string
}

// Decision is the outcome of an eligibility evaluation. All checks are
// independent; every violated one is reported.
type Decision struct {
	Allowed    bool
	Violations []Violation
}

func (d *Decision) add(code, msg string) {
	d.Violations = append(d.Violations, Violation{Code: code, Msg: msg})
	d.Allowed = false
}

// Policy holds the fixed eligibility limits.
type Policy struct {
	// MaxTradesPerDay caps fills per exchange day across all strategies,
	// opens and closes both counting. A safety rail against runaway
	// retries or malicious repeated invocation.
	MaxTradesPerDay int

	// CutoffHour/CutoffMinute is the exchange-local time at and after
	// which no trades are accepted; the window is reserved for the
	// scheduled close-out so new opens cannot race the flatten.
	CutoffHour   int
	CutoffMinute int
}

func DefaultPolicy() Policy {
	return Policy{
		MaxTradesPerDay: 20,
		CutoffHour:      15,
		CutoffMinute:    50,
	}
}

// ConfigSource exposes the mutable trading switches.
type ConfigSource interface {
	Eligible() bool
	IsBlackout(date string) bool
}

// TradeCounter reports how many fills are already recorded for a date.
// Satisfied by *logbook.Book.
type TradeCounter interface {
	TradeCount(date string) (int, error)
}

// Gate decides whether a trade may proceed at a given instant.
type Gate struct {
	policy Policy
	cfg    ConfigSource
	counts TradeCounter
}

func New(policy Policy, cfg ConfigSource, counts TradeCounter) *Gate {
	return &Gate{policy: policy, cfg: cfg, counts: counts}
}

// Evaluate runs every check against now. Cheap in-memory checks run before
// the logbook read. A failed trade-count read blocks trading rather than
// letting the ceiling go unenforced.
func (g *Gate) Evaluate(now time.Time) Decision {
	d := Decision{Allowed: true}
	today := market.Date(now)

	if !g.cfg.Eligible() {
		d.add("KILL_SWITCH", "trading disabled by kill switch")
	}
	if g.cfg.IsBlackout(today) {
		d.add("BLACKOUT_DATE", fmt.Sprintf("%s is marked unavailable to trade", today))
	}
	if g.pastCutoff(now) {
		d.add("CLOSEOUT_WINDOW",
			fmt.Sprintf("at or past %02d:%02d exchange time, reserved for close-out",
				g.policy.CutoffHour, g.policy.CutoffMinute))
	}

	n, err := g.counts.TradeCount(today)
	if err != nil {
		d.add("TRADE_COUNT_UNAVAILABLE", fmt.Sprintf("trade count read failed: %v", err))
	} else if n >= g.policy.MaxTradesPerDay {
		d.add("DAILY_TRADE_CEILING",
			fmt.Sprintf("%d trades today >= max %d", n, g.policy.MaxTradesPerDay))
	}

	return d
}

// IsEligible is the boolean form of Evaluate.
func (g *Gate) IsEligible(now time.Time) bool {
	return g.Evaluate(now).Allowed
}

func (g *Gate) pastCutoff(now time.Time) bool {
	t := now.In(market.ExchangeTZ())
	return t.Hour()*60+t.Minute() >= g.policy.CutoffHour*60+g.policy.CutoffMinute
}
