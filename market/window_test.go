package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 6, 3, 0, 0, 0, time.UTC)

func bar(i int, close float64) Candle {
	return Candle{
		Open:   close,
		High:   close,
		Low:    close,
		Close:  close,
		Time:   t0.Add(time.Duration(i) * time.Minute),
		Volume: 1,
	}
}

func TestNewWindowSeed(t *testing.T) {
	t.Parallel()

	t.Run("keeps newest when over capacity", func(t *testing.T) {
		seed := []Candle{bar(0, 1), bar(1, 2), bar(2, 3), bar(3, 4)}
		w, err := NewWindow(3, seed)
		require.NoError(t, err)
		assert.Equal(t, []Candle{bar(1, 2), bar(2, 3), bar(3, 4)}, w.Candles())
	})

	t.Run("empty seed", func(t *testing.T) {
		w, err := NewWindow(3, nil)
		require.NoError(t, err)
		assert.Equal(t, 0, w.Len())
		_, ok := w.Last()
		assert.False(t, ok)
	})

	t.Run("duplicate timestamp rejected", func(t *testing.T) {
		_, err := NewWindow(3, []Candle{bar(0, 1), bar(0, 2)})
		assert.ErrorIs(t, err, ErrInvalidSeed)
	})

	t.Run("decreasing timestamp rejected", func(t *testing.T) {
		_, err := NewWindow(3, []Candle{bar(2, 1), bar(1, 2)})
		assert.ErrorIs(t, err, ErrInvalidSeed)
	})

	t.Run("zero capacity", func(t *testing.T) {
		_, err := NewWindow(0, nil)
		assert.Error(t, err)
	})
}

func TestWindowSlidesOverIncreasingUpdates(t *testing.T) {
	t.Parallel()

	const capacity = 5
	w, err := NewWindow(capacity, nil)
	require.NoError(t, err)

	var all []Candle
	for i := 0; i < 23; i++ {
		c := bar(i, float64(100+i))
		all = append(all, c)
		require.NoError(t, w.Update(c))

		assert.LessOrEqual(t, w.Len(), capacity)

		start := len(all) - capacity
		if start < 0 {
			start = 0
		}
		assert.Equal(t, all[start:], w.Candles())
	}
}

func TestWindowReplacesInProgressBar(t *testing.T) {
	t.Parallel()

	w, err := NewWindow(3, []Candle{bar(0, 1), bar(1, 2)})
	require.NoError(t, err)

	corrected := bar(1, 2.5)
	require.NoError(t, w.Update(corrected))

	assert.Equal(t, 2, w.Len())
	last, ok := w.Last()
	require.True(t, ok)
	assert.Equal(t, 2.5, last.Close)
}

func TestWindowRejectsOutOfOrder(t *testing.T) {
	t.Parallel()

	w, err := NewWindow(3, []Candle{bar(0, 1), bar(1, 2)})
	require.NoError(t, err)

	err = w.Update(bar(0, 9))
	assert.ErrorIs(t, err, ErrOutOfOrder)
	assert.Equal(t, []Candle{bar(0, 1), bar(1, 2)}, w.Candles())
}

func TestWindowCandlesIsACopy(t *testing.T) {
	t.Parallel()

	w, err := NewWindow(2, []Candle{bar(0, 1)})
	require.NoError(t, err)

	got := w.Candles()
	got[0].Close = 42
	last, _ := w.Last()
	assert.Equal(t, 1.0, last.Close)
}

func TestClosesAndTimestamp(t *testing.T) {
	t.Parallel()

	cs := []Candle{bar(0, 1), bar(1, 2), bar(2, 3)}
	assert.Equal(t, []float64{1, 2, 3}, Closes(cs))
	assert.Equal(t, t0.UnixMilli(), cs[0].Timestamp())
}
