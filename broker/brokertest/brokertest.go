// Package brokertest provides an in-memory broker.Gateway for tests.
package brokertest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rustyeddy/futbot/broker"
	"github.com/rustyeddy/futbot/market"
)

// ErrScripted is the default error returned by FailNext.
var ErrScripted = errors.New("scripted gateway failure")

// Order is a submitted order as seen by the fake.
type Order struct {
	Symbol     string
	Side       market.Side
	Amount     float64
	ReduceOnly bool
}

// Gateway serves candles from a slice, keeps a signed position that orders
// move, and can be told to fail specific calls.
type Gateway struct {
	mu sync.Mutex

	Candles    []market.Candle
	Now        time.Time
	Price      float64
	Position   float64
	EntryPrice float64
	Setups     []broker.Setup
	Orders     []Order

	// ConfigureErr is returned from every Configure call when set.
	ConfigureErr error

	// FillPrice, when non-zero, is reported as the average fill price.
	FillPrice float64

	// TimeFunc, when set, supplies the server time instead of Now.
	TimeFunc func() time.Time

	fail    map[string][]error
	calls   map[string]int
	nextID  int
	onFetch func(limit int)
}

var _ broker.Gateway = (*Gateway)(nil)

func New() *Gateway {
	return &Gateway{
		fail:  make(map[string][]error),
		calls: make(map[string]int),
	}
}

// FailNext makes the next n calls to method return err (ErrScripted if nil).
// Method names match the Gateway interface, e.g. "FetchOHLCV".
func (g *Gateway) FailNext(method string, n int, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err == nil {
		err = ErrScripted
	}
	for i := 0; i < n; i++ {
		g.fail[method] = append(g.fail[method], err)
	}
}

// Calls returns how many times method was invoked, failures included.
func (g *Gateway) Calls(method string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[method]
}

// OnFetch registers a hook run at the start of every FetchOHLCV call, with
// the lock released. Tests use it to advance the clock or append bars.
func (g *Gateway) OnFetch(fn func(limit int)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onFetch = fn
}

// AddCandle appends a bar to the served history.
func (g *Gateway) AddCandle(c market.Candle) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Candles = append(g.Candles, c)
}

// SetCandles replaces the served history.
func (g *Gateway) SetCandles(cs []market.Candle) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Candles = append([]market.Candle(nil), cs...)
}

// SetNow sets the server clock.
func (g *Gateway) SetNow(t time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Now = t
}

// Submitted returns a copy of the submitted orders.
func (g *Gateway) Submitted() []Order {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Order, len(g.Orders))
	copy(out, g.Orders)
	return out
}

// enter records the call and pops a scripted failure. Callers hold g.mu.
func (g *Gateway) enter(method string) error {
	g.calls[method]++
	if q := g.fail[method]; len(q) > 0 {
		g.fail[method] = q[1:]
		return q[0]
	}
	return nil
}

func (g *Gateway) Configure(ctx context.Context, s broker.Setup) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.enter("Configure"); err != nil {
		return err
	}
	g.Setups = append(g.Setups, s)
	return g.ConfigureErr
}

func (g *Gateway) FetchOHLCV(ctx context.Context, symbol, timeframe string, limit int) ([]market.Candle, error) {
	g.mu.Lock()
	hook := g.onFetch
	g.mu.Unlock()
	if hook != nil {
		hook(limit)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.enter("FetchOHLCV"); err != nil {
		return nil, err
	}
	start := 0
	if limit > 0 && len(g.Candles) > limit {
		start = len(g.Candles) - limit
	}
	out := make([]market.Candle, len(g.Candles)-start)
	copy(out, g.Candles[start:])
	return out, nil
}

func (g *Gateway) FetchServerTime(ctx context.Context) (time.Time, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.enter("FetchServerTime"); err != nil {
		return time.Time{}, err
	}
	if g.TimeFunc != nil {
		return g.TimeFunc(), nil
	}
	return g.Now, nil
}

func (g *Gateway) FetchTicker(ctx context.Context, symbol string) (float64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.enter("FetchTicker"); err != nil {
		return 0, err
	}
	if g.Price == 0 && len(g.Candles) > 0 {
		return g.Candles[len(g.Candles)-1].Close, nil
	}
	return g.Price, nil
}

func (g *Gateway) FetchPosition(ctx context.Context, symbol string) (broker.Position, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.enter("FetchPosition"); err != nil {
		return broker.Position{}, err
	}
	return broker.Position{Symbol: symbol, Amount: g.Position, EntryPrice: g.EntryPrice}, nil
}

func (g *Gateway) SubmitMarketOrder(ctx context.Context, symbol string, side market.Side, amount float64) (broker.OrderResult, error) {
	return g.submit("SubmitMarketOrder", symbol, side, amount, false)
}

func (g *Gateway) SubmitReduceOnlyOrder(ctx context.Context, symbol string, side market.Side, amount float64) (broker.OrderResult, error) {
	return g.submit("SubmitReduceOnlyOrder", symbol, side, amount, true)
}

func (g *Gateway) submit(method, symbol string, side market.Side, amount float64, reduceOnly bool) (broker.OrderResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.enter(method); err != nil {
		return broker.OrderResult{}, err
	}
	if !side.Valid() {
		return broker.OrderResult{}, fmt.Errorf("invalid side %q", side)
	}

	next := g.Position + side.Signed(amount)
	if reduceOnly && (g.Position == 0 || next*g.Position < 0) {
		return broker.OrderResult{}, errors.New("reduce-only order would increase position")
	}
	if g.Position == 0 {
		g.EntryPrice = g.FillPrice
	}
	g.Position = next

	g.nextID++
	g.Orders = append(g.Orders, Order{Symbol: symbol, Side: side, Amount: amount, ReduceOnly: reduceOnly})
	return broker.OrderResult{
		ID:         strconv.Itoa(g.nextID),
		Symbol:     symbol,
		Side:       side,
		Amount:     amount,
		AvgPrice:   g.FillPrice,
		Status:     "FILLED",
		ReduceOnly: reduceOnly,
		Time:       g.Now,
	}, nil
}
