package broker

import (
	"context"
	"time"

	"github.com/ganchinyao/tos-algo-trade/market"
)

// MarketOrderRequest describes one market order leg.
type MarketOrderRequest struct {
	Symbol      string
	AssetType   market.AssetType
	Instruction market.Instruction
	Quantity    float64
}

// Broker is the brokerage collaborator consumed by the orchestrator.
// Submission failures are fatal for the call; the orchestrator does not
// retry.
type Broker interface {
	// SubmitMarketOrder places a market order and waits for acceptance.
	SubmitMarketOrder(ctx context.Context, req MarketOrderRequest) error

	// GetFillPrice returns the executed price of the latest filled order
	// for symbol on the day of at, or 0 when the brokerage reports no
	// fill data.
	GetFillPrice(ctx context.Context, symbol string, at time.Time) (float64, error)

	// GetCurrentPrice returns the last traded price for symbol.
	GetCurrentPrice(ctx context.Context, symbol string) (float64, error)
}
