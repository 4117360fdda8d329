// Package strategy decides when to enter and exit from a window of closed bars.
package strategy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rustyeddy/futbot/market"
)

// Strategy evaluates closed bars, oldest first. Implementations are pure:
// the position they are asked about is owned by the caller.
type Strategy interface {
	Name() string

	// Lookback is how many closed bars the strategy needs.
	Lookback() int

	// ShouldExit reports whether a position held on side should be closed.
	ShouldExit(candles []market.Candle, held market.Side) bool

	// ShouldEnter returns the side to open, if any.
	ShouldEnter(candles []market.Candle) (market.Side, bool)
}

// Params carries the tunables of every built-in strategy; each one reads
// the fields it needs.
type Params struct {
	Period    int     `yaml:"period" json:"period"`
	Threshold float64 `yaml:"threshold" json:"threshold"`
	Fast      int     `yaml:"fast" json:"fast"`
	Slow      int     `yaml:"slow" json:"slow"`
}

// Constructor builds a strategy from params.
type Constructor func(Params) (Strategy, error)

var registry = map[string]Constructor{
	"noop":      func(Params) (Strategy, error) { return Noop{}, nil },
	"rci":       func(p Params) (Strategy, error) { return NewRCI(p.Period, p.Threshold) },
	"ema-cross": func(p Params) (Strategy, error) { return NewEmaCross(p.Fast, p.Slow) },
}

// Register adds or replaces a strategy constructor.
func Register(name string, c Constructor) {
	registry[strings.ToLower(name)] = c
}

// New builds the strategy registered under name.
func New(name string, p Params) (Strategy, error) {
	c, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (supported: %s)", name, strings.Join(Names(), ", "))
	}
	return c(p)
}

// Names lists the registered strategies, sorted.
func Names() []string {
	out := make([]string, 0, len(registry))
	for n := range registry {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Noop never trades.
type Noop struct{}

func (Noop) Name() string { return "noop" }

func (Noop) Lookback() int { return 1 }

func (Noop) ShouldExit([]market.Candle, market.Side) bool { return false }

func (Noop) ShouldEnter([]market.Candle) (market.Side, bool) { return "", false }
