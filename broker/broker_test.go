package broker

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/futbot/market"
)

type stubGateway struct{ opts Options }

func (stubGateway) Configure(context.Context, Setup) error { return nil }

func (stubGateway) FetchOHLCV(context.Context, string, string, int) ([]market.Candle, error) {
	return nil, nil
}

func (stubGateway) FetchServerTime(context.Context) (time.Time, error) { return time.Time{}, nil }

func (stubGateway) FetchTicker(context.Context, string) (float64, error) { return 0, nil }

func (stubGateway) FetchPosition(context.Context, string) (Position, error) {
	return Position{}, nil
}

func (stubGateway) SubmitMarketOrder(context.Context, string, market.Side, float64) (OrderResult, error) {
	return OrderResult{}, nil
}

func (stubGateway) SubmitReduceOnlyOrder(context.Context, string, market.Side, float64) (OrderResult, error) {
	return OrderResult{}, nil
}

func TestRegistry(t *testing.T) {
	Register("Stub-Test", func(o Options) (Gateway, error) {
		return stubGateway{opts: o}, nil
	})

	g, err := Open("stub-test", Options{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "k", g.(stubGateway).opts.APIKey)
	assert.Contains(t, Gateways(), "stub-test")

	_, err = Open("nope", Options{})
	require.ErrorIs(t, err, ErrUnknownGateway)
	assert.Contains(t, err.Error(), "stub-test")

	assert.Panics(t, func() {
		Register("stub-test", func(Options) (Gateway, error) { return nil, nil })
	})
	assert.Panics(t, func() { Register("nil-factory", nil) })
}

func TestIsAlreadySet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("<APIError> code=-4046, msg=No need to change margin type."), true},
		{fmt.Errorf("set leverage: %w", errors.New("leverage not modified")), true},
		{errors.New("insufficient margin"), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsAlreadySet(tt.err), "%v", tt.err)
	}
}

func TestPositionSide(t *testing.T) {
	t.Parallel()

	s, ok := Position{Amount: 0.2}.Side()
	assert.True(t, ok)
	assert.Equal(t, market.Long, s)

	s, ok = Position{Amount: -0.2}.Side()
	assert.True(t, ok)
	assert.Equal(t, market.Short, s)

	_, ok = Position{}.Side()
	assert.False(t, ok)
	assert.True(t, Position{}.IsFlat())
}
