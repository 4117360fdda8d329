package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/futbot/market"
)

func bars(closes ...float64) []market.Candle {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]market.Candle, len(closes))
	for i, c := range closes {
		out[i] = market.Candle{Close: c, Time: base.Add(time.Duration(i) * time.Hour)}
	}
	return out
}

func TestNew(t *testing.T) {
	t.Parallel()

	s, err := New("RCI", Params{Period: 9, Threshold: 80})
	require.NoError(t, err)
	assert.Equal(t, 10, s.Lookback())

	s, err = New(" noop ", Params{})
	require.NoError(t, err)
	assert.Equal(t, "noop", s.Name())

	_, err = New("martingale", Params{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ema-cross, noop, rci")

	_, err = New("rci", Params{Period: 1, Threshold: 80})
	assert.Error(t, err)
	_, err = New("rci", Params{Period: 9, Threshold: 100})
	assert.Error(t, err)
	_, err = New("ema-cross", Params{Fast: 5, Slow: 5})
	assert.Error(t, err)
}

func TestRCIEntries(t *testing.T) {
	t.Parallel()
	s, err := NewRCI(3, 80)
	require.NoError(t, err)

	tests := []struct {
		name   string
		closes []float64
		side   market.Side
		ok     bool
	}{
		// -100 then 50
		{"cross up", []float64{3, 2, 1, 5}, market.Long, true},
		// 100 then -50
		{"cross down", []float64{1, 2, 3, 0}, market.Short, true},
		{"stays high", []float64{1, 2, 3, 4}, "", false},
		{"not enough bars", []float64{3, 2, 1}, "", false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			side, ok := s.ShouldEnter(bars(tt.closes...))
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.side, side)
		})
	}
}

func TestRCIExits(t *testing.T) {
	t.Parallel()
	s, err := NewRCI(3, 80)
	require.NoError(t, err)

	rising := bars(0, 1, 2, 3)
	falling := bars(4, 3, 2, 1)

	assert.True(t, s.ShouldExit(rising, market.Long))
	assert.False(t, s.ShouldExit(rising, market.Short))
	assert.True(t, s.ShouldExit(falling, market.Short))
	assert.False(t, s.ShouldExit(falling, market.Long))
	assert.False(t, s.ShouldExit(bars(1, 2), market.Long))
}

func TestEmaCross(t *testing.T) {
	t.Parallel()
	s, err := NewEmaCross(2, 3)
	require.NoError(t, err)
	assert.Equal(t, 7, s.Lookback())

	side, ok := s.ShouldEnter(bars(5, 5, 5, 5, 5, 5, 10))
	require.True(t, ok)
	assert.Equal(t, market.Long, side)

	side, ok = s.ShouldEnter(bars(5, 5, 5, 5, 5, 5, 0))
	require.True(t, ok)
	assert.Equal(t, market.Short, side)

	_, ok = s.ShouldEnter(bars(5, 5, 5, 5, 5, 5, 5))
	assert.False(t, ok)

	assert.True(t, s.ShouldExit(bars(5, 5, 5, 5, 5, 5, 0), market.Long))
	assert.False(t, s.ShouldExit(bars(5, 5, 5, 5, 5, 5, 0), market.Short))
}

func TestNoop(t *testing.T) {
	t.Parallel()

	var s Strategy = Noop{}
	_, ok := s.ShouldEnter(bars(1, 2, 3))
	assert.False(t, ok)
	assert.False(t, s.ShouldExit(bars(1, 2, 3), market.Long))
}
