package strategy

import (
	"fmt"

	"github.com/rustyeddy/futbot/indicators"
	"github.com/rustyeddy/futbot/market"
)

// EmaCross enters on a fast/slow EMA crossover and exits when the trend
// flips against the held side.
type EmaCross struct {
	Fast int
	Slow int
}

func NewEmaCross(fast, slow int) (*EmaCross, error) {
	if fast <= 0 || slow <= fast {
		return nil, fmt.Errorf("ema-cross needs 0 < fast < slow, got %d/%d", fast, slow)
	}
	return &EmaCross{Fast: fast, Slow: slow}, nil
}

func (s *EmaCross) Name() string { return fmt.Sprintf("ema-cross(%d,%d)", s.Fast, s.Slow) }

// Lookback gives the slow EMA room to settle past its SMA seed.
func (s *EmaCross) Lookback() int { return 2*s.Slow + 1 }

func (s *EmaCross) diff(candles []market.Candle) (float64, bool) {
	fast, err := indicators.EMA(candles, s.Fast)
	if err != nil {
		return 0, false
	}
	slow, err := indicators.EMA(candles, s.Slow)
	if err != nil {
		return 0, false
	}
	return fast - slow, true
}

func (s *EmaCross) ShouldExit(candles []market.Candle, held market.Side) bool {
	d, ok := s.diff(candles)
	if !ok {
		return false
	}
	switch held {
	case market.Long:
		return d < 0
	case market.Short:
		return d > 0
	}
	return false
}

func (s *EmaCross) ShouldEnter(candles []market.Candle) (market.Side, bool) {
	if len(candles) < s.Slow+1 {
		return "", false
	}
	cur, ok := s.diff(candles)
	if !ok {
		return "", false
	}
	prev, ok := s.diff(candles[:len(candles)-1])
	if !ok {
		return "", false
	}
	switch {
	case cur > 0 && prev <= 0:
		return market.Long, true
	case cur < 0 && prev >= 0:
		return market.Short, true
	}
	return "", false
}
