package ledger

import (
	"sort"
	"sync"

	"github.com/ganchinyao/tos-algo-trade/market"
)

// Entry is the current position of one strategy. Quantity is a magnitude;
// direction lives in Position. OpenID and OpenPrice carry the identity and
// fill price of the trade that opened the position so the closing trade can
// pair with it explicitly.
type Entry struct {
	Strategy  string
	Position  market.Position
	Quantity  float64
	Symbol    string
	OpenID    string
	OpenPrice float64
}

// Ledger is an in-memory register of per-strategy positions. It performs no
// transition validation; the orchestrator is the only writer and owns the
// state machine. Contents are volatile and lost on restart unless the
// orchestrator replays the logbook.
type Ledger struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func New() *Ledger {
	return &Ledger{entries: make(map[string]Entry)}
}

// Get returns the entry for strategy, creating a (NONE, 0) entry on first
// reference.
func (l *Ledger) Get(strategy string) Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[strategy]
	if !ok {
		e = Entry{Strategy: strategy, Position: market.None}
		l.entries[strategy] = e
	}
	return e
}

// Set overwrites the entry for strategy unconditionally. Closing a position
// resets the entry to (NONE, 0); entries are never removed.
func (l *Ledger) Set(e Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[e.Strategy] = e
}

// Strategies returns every strategy the ledger has seen, sorted for stable
// iteration.
func (l *Ledger) Strategies() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]string, 0, len(l.entries))
	for s := range l.entries {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Open returns the entries that currently hold a directional position.
func (l *Ledger) Open() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []Entry
	for _, e := range l.entries {
		if e.Position.Open() {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Strategy < out[j].Strategy })
	return out
}

// OpenCount returns the number of strategies holding a position.
func (l *Ledger) OpenCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := 0
	for _, e := range l.entries {
		if e.Position.Open() {
			n++
		}
	}
	return n
}
