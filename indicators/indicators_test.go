package indicators

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/futbot/market"
)

func candles(closes ...float64) []market.Candle {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]market.Candle, len(closes))
	for i, c := range closes {
		out[i] = market.Candle{Open: c, High: c, Low: c, Close: c, Time: base.Add(time.Duration(i) * time.Hour)}
	}
	return out
}

func TestRCI(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		closes []float64
		period int
		want   float64
	}{
		{"rising", []float64{500, 510, 515, 520, 530}, 5, 100},
		{"falling", []float64{530, 520, 515, 510, 500}, 5, -100},
		{"uses last period", []float64{1, 2, 3, 9, 8, 7}, 3, -100},
		// ranks 1,3,2 vs time 1,2,3: d2=2, 1-12/24
		{"mixed", []float64{10, 30, 20}, 3, 50},
		// ranks 1.5,1.5,3: d2=0.5, 1-3/24
		{"ties", []float64{10, 10, 20}, 3, 87.5},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := RCI(candles(tt.closes...), tt.period)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestRCIErrors(t *testing.T) {
	t.Parallel()

	_, err := RCI(candles(1, 2), 3)
	assert.Error(t, err)
	_, err = RCI(candles(1, 2), 0)
	assert.Error(t, err)
}

func TestRCISeries(t *testing.T) {
	t.Parallel()

	s, err := RCISeries(candles(1, 2, 3, 2, 1), 3)
	require.NoError(t, err)
	require.Len(t, s, 5)
	assert.True(t, math.IsNaN(s[0]))
	assert.True(t, math.IsNaN(s[1]))
	assert.InDelta(t, 100, s[2], 1e-9)
	assert.InDelta(t, -100, s[4], 1e-9)
}

func TestMA(t *testing.T) {
	t.Parallel()

	got, err := MA(candles(1, 2, 3, 4), 2)
	require.NoError(t, err)
	assert.InDelta(t, 3.5, got, 1e-12)

	_, err = MA(candles(1), 2)
	assert.Error(t, err)
}

func TestEMA(t *testing.T) {
	t.Parallel()

	// seed SMA(1,2,3)=2, k=0.5: 4 -> 3, 5 -> 4
	got, err := EMA(candles(1, 2, 3, 4, 5), 3)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, got, 1e-12)

	flat, err := EMA(candles(7, 7, 7, 7), 2)
	require.NoError(t, err)
	assert.InDelta(t, 7.0, flat, 1e-12)
}
