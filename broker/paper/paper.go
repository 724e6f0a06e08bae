// Package paper provides an in-memory Broker for dry runs and tests:
// orders always succeed and fills report the configured quote.
package paper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ganchinyao/tos-algo-trade/broker"
)

type Broker struct {
	mu     sync.Mutex
	quotes map[string]float64
	orders []broker.MarketOrderRequest
}

var _ broker.Broker = (*Broker)(nil)

func New() *Broker {
	return &Broker{quotes: make(map[string]float64)}
}

// SetQuote sets the price reported for symbol by both fill and quote
// lookups.
func (b *Broker) SetQuote(symbol string, price float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.quotes[symbol] = price
}

// Orders returns every submitted order in submission order.
func (b *Broker) Orders() []broker.MarketOrderRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]broker.MarketOrderRequest, len(b.orders))
	copy(out, b.orders)
	return out
}

func (b *Broker) SubmitMarketOrder(_ context.Context, req broker.MarketOrderRequest) error {
	if req.Quantity <= 0 {
		return fmt.Errorf("paper: quantity must be positive, got %v", req.Quantity)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.orders = append(b.orders, req)
	return nil
}

func (b *Broker) GetFillPrice(_ context.Context, symbol string, _ time.Time) (float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	// Unknown symbol reports 0, mirroring a brokerage with no fill data.
	return b.quotes[symbol], nil
}

func (b *Broker) GetCurrentPrice(_ context.Context, symbol string) (float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.quotes[symbol]
	if !ok {
		return 0, fmt.Errorf("paper: no quote for %s", symbol)
	}
	return p, nil
}
