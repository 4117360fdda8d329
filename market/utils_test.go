package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeframe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		tf   string
		want time.Duration
	}{
		{"1m", time.Minute},
		{"5m", 5 * time.Minute},
		{"15m", 15 * time.Minute},
		{"1h", time.Hour},
		{"4h", 4 * time.Hour},
		{"1d", 24 * time.Hour},
	}
	for _, tt := range tests {
		got, err := ParseTimeframe(tt.tf)
		require.NoError(t, err, tt.tf)
		assert.Equal(t, tt.want, got, tt.tf)
	}

	_, err := ParseTimeframe("7m")
	assert.Error(t, err)
}

func TestNextBoundary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		now      int64
		interval time.Duration
		want     int64
	}{
		{"mid bar", 90_000, time.Minute, 120_000},
		{"just after boundary", 60_001, time.Minute, 120_000},
		{"on boundary", 120_000, time.Minute, 120_000},
		{"hour", 1709683200000 + 1, time.Hour, 1709683200000 + 3_600_000},
		{"zero interval", 5, 0, 5},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NextBoundary(tt.now, tt.interval))
		})
	}
}

func TestSide(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Short, Long.Opposite())
	assert.Equal(t, Long, Short.Opposite())
	assert.Equal(t, 0.5, Long.Signed(0.5))
	assert.Equal(t, -0.5, Short.Signed(0.5))

	s, err := ParseSide("short")
	require.NoError(t, err)
	assert.Equal(t, Short, s)

	_, err = ParseSide("sell")
	assert.Error(t, err)
	assert.False(t, Side("buy").Valid())
}

func TestFormatAmount(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0.001", FormatAmount(0.001))
	assert.Equal(t, "2", FormatAmount(2))
}
