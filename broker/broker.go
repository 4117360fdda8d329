// Package broker defines the boundary between the trading loop and an
// exchange. Adapters translate long/short into the venue's buy/sell; nothing
// above this package sees raw order sides.
package broker

import (
	"context"
	"net/http"
	"time"

	"github.com/rustyeddy/futbot/market"
)

// Gateway is the market data and order boundary for one venue.
type Gateway interface {
	// Configure applies leverage and margin type. Settings that are already
	// in place are not an error.
	Configure(ctx context.Context, s Setup) error

	// FetchOHLCV returns up to limit bars ending with the most recent one,
	// which may still be forming. Bars are oldest first.
	FetchOHLCV(ctx context.Context, symbol, timeframe string, limit int) ([]market.Candle, error)

	FetchServerTime(ctx context.Context) (time.Time, error)

	// FetchTicker returns the last traded price.
	FetchTicker(ctx context.Context, symbol string) (float64, error)

	FetchPosition(ctx context.Context, symbol string) (Position, error)

	SubmitMarketOrder(ctx context.Context, symbol string, side market.Side, amount float64) (OrderResult, error)

	// SubmitReduceOnlyOrder places a market order that may only shrink the
	// open position.
	SubmitReduceOnlyOrder(ctx context.Context, symbol string, side market.Side, amount float64) (OrderResult, error)
}

// Setup is the per-symbol account configuration applied at startup.
type Setup struct {
	Symbol     string
	Leverage   int
	MarginType string // "isolated" or "cross"
}

// Position is the venue's view of the open position.
type Position struct {
	Symbol       string
	Amount       float64 // signed: positive long, negative short
	EntryPrice   float64
	UnrealizedPL float64
}

func (p Position) IsFlat() bool {
	return p.Amount == 0
}

// Side reports the held direction. ok is false when flat.
func (p Position) Side() (side market.Side, ok bool) {
	switch {
	case p.Amount > 0:
		return market.Long, true
	case p.Amount < 0:
		return market.Short, true
	}
	return "", false
}

// OrderResult is an accepted order as reported by the venue.
type OrderResult struct {
	ID         string
	Symbol     string
	Side       market.Side
	Amount     float64 // executed quantity, or requested when unknown
	AvgPrice   float64 // zero when the venue did not report a fill price
	Status     string
	ReduceOnly bool
	Time       time.Time
}

// Options configures a gateway built through Open.
type Options struct {
	APIKey    string
	APISecret string
	Testnet   bool

	// BaseURL overrides the venue endpoint. Used by tests.
	BaseURL    string
	HTTPClient *http.Client

	// RateLimit is requests per second; zero selects the adapter default.
	RateLimit float64
	Burst     int
}
