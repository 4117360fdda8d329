package strategy

import (
	"fmt"

	"github.com/rustyeddy/futbot/indicators"
	"github.com/rustyeddy/futbot/market"
)

// RCI trades reversals out of the RCI extremes. It enters long when the RCI
// crosses up through -Threshold and short when it crosses down through
// +Threshold. A long exits once the RCI reaches +Threshold, a short once it
// reaches -Threshold.
type RCI struct {
	Period    int
	Threshold float64
}

func NewRCI(period int, threshold float64) (*RCI, error) {
	if period < 2 {
		return nil, fmt.Errorf("rci period must be at least 2, got %d", period)
	}
	if threshold <= 0 || threshold >= 100 {
		return nil, fmt.Errorf("rci threshold must be in (0, 100), got %v", threshold)
	}
	return &RCI{Period: period, Threshold: threshold}, nil
}

func (s *RCI) Name() string { return fmt.Sprintf("rci(%d,%g)", s.Period, s.Threshold) }

// Lookback includes one extra bar so the previous RCI is available.
func (s *RCI) Lookback() int { return s.Period + 1 }

// values returns the previous and current RCI.
func (s *RCI) values(candles []market.Candle) (prev, cur float64, ok bool) {
	if len(candles) < s.Lookback() {
		return 0, 0, false
	}
	cur, err := indicators.RCI(candles, s.Period)
	if err != nil {
		return 0, 0, false
	}
	prev, err = indicators.RCI(candles[:len(candles)-1], s.Period)
	if err != nil {
		return 0, 0, false
	}
	return prev, cur, true
}

func (s *RCI) ShouldExit(candles []market.Candle, held market.Side) bool {
	_, cur, ok := s.values(candles)
	if !ok {
		return false
	}
	switch held {
	case market.Long:
		return cur >= s.Threshold
	case market.Short:
		return cur <= -s.Threshold
	}
	return false
}

func (s *RCI) ShouldEnter(candles []market.Candle) (market.Side, bool) {
	prev, cur, ok := s.values(candles)
	if !ok {
		return "", false
	}
	switch {
	case prev < -s.Threshold && cur >= -s.Threshold:
		return market.Long, true
	case prev > s.Threshold && cur <= s.Threshold:
		return market.Short, true
	}
	return "", false
}
