package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/futbot/market"
)

func TestCheckExposure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		current   float64
		side      market.Side
		amount    float64
		max       float64
		allowed   bool
		projected float64
		code      string
	}{
		{"flat open long", 0, market.Long, 0.5, 1, true, 0.5, ""},
		{"flat open short", 0, market.Short, 1, 1, true, -1, ""},
		{"add past cap", 0.6, market.Long, 0.5, 1, false, 1.1, CodeMaxPosition},
		{"short past cap", -0.6, market.Short, 0.5, 1, false, -1.1, CodeMaxPosition},
		{"close long", 0.6, market.Short, 0.6, 1, true, 0, ""},
		{"flip within cap", 0.5, market.Short, 1, 1, true, -0.5, ""},
		{"flip past cap", 1, market.Short, 2.5, 1, false, -1.5, CodeMaxPosition},
		{"exactly at cap", 0.5, market.Long, 0.5, 1, true, 1, ""},
		{"zero amount", 0, market.Long, 0, 1, false, 0, CodeNoUnits},
		{"bad side", 0, market.Side("buy"), 1, 1, false, 0, CodeBadSide},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := CheckExposure(tt.current, tt.side, tt.amount, tt.max)
			assert.Equal(t, tt.allowed, d.Allowed)
			assert.InDelta(t, tt.projected, d.Projected, 1e-12)
			if tt.code == "" {
				assert.Empty(t, d.Violations)
				assert.Empty(t, d.Reason())
				return
			}
			require.Len(t, d.Violations, 1)
			assert.Equal(t, tt.code, d.Violations[0].Code)
			assert.NotEmpty(t, d.Reason())
		})
	}
}

func TestPolicyCheck(t *testing.T) {
	t.Parallel()

	p := Policy{MaxPosition: 1}
	d := p.Check(0.6, market.Long, 0.5)
	assert.False(t, d.Allowed)
	assert.Equal(t, 1.0, d.MaxAllowed)
	assert.Equal(t, 0.6, d.Current)
}

func TestClosingOrder(t *testing.T) {
	t.Parallel()

	side, amt, ok := ClosingOrder(0.3)
	require.True(t, ok)
	assert.Equal(t, market.Short, side)
	assert.Equal(t, 0.3, amt)

	side, amt, ok = ClosingOrder(-2)
	require.True(t, ok)
	assert.Equal(t, market.Long, side)
	assert.Equal(t, 2.0, amt)

	_, _, ok = ClosingOrder(0)
	assert.False(t, ok)
}

func TestRequiredMargin(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 20.0, RequiredMargin(100, 1, 5), 1e-12)
	assert.InDelta(t, 100.0, RequiredMargin(100, 1, 0), 1e-12)
}
