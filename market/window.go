package market

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSeed is returned when seed candles are not strictly increasing in time.
	ErrInvalidSeed = errors.New("invalid seed: timestamps must be strictly increasing")
	// ErrOutOfOrder is returned when an update is older than the newest candle.
	ErrOutOfOrder = errors.New("candle out of order")
)

// Window is a fixed-capacity sliding buffer of bars ordered by open time.
// It is not safe for concurrent use; the trading loop is its only writer.
type Window struct {
	capacity int
	candles  []Candle
}

// NewWindow builds a window holding at most capacity candles. When more seed
// candles are given than fit, the newest ones are kept.
func NewWindow(capacity int, seed []Candle) (*Window, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("window capacity must be positive, got %d", capacity)
	}
	for i := 1; i < len(seed); i++ {
		if !seed[i].Time.After(seed[i-1].Time) {
			return nil, fmt.Errorf("%w: index %d (%s) not after %s",
				ErrInvalidSeed, i, seed[i].Time, seed[i-1].Time)
		}
	}
	if len(seed) > capacity {
		seed = seed[len(seed)-capacity:]
	}

	w := &Window{
		capacity: capacity,
		candles:  make([]Candle, 0, capacity+1),
	}
	w.candles = append(w.candles, seed...)
	return w, nil
}

// Update feeds one bar. A bar with the same open time as the newest entry
// replaces it (in-progress bar correction). A later bar is appended and the
// oldest bars are evicted beyond capacity.
func (w *Window) Update(c Candle) error {
	n := len(w.candles)
	if n == 0 {
		w.candles = append(w.candles, c)
		return nil
	}

	last := w.candles[n-1]
	switch {
	case c.Time.Equal(last.Time):
		w.candles[n-1] = c
		return nil
	case c.Time.Before(last.Time):
		return fmt.Errorf("%w: %s is before %s", ErrOutOfOrder, c.Time, last.Time)
	}

	w.candles = append(w.candles, c)
	if over := len(w.candles) - w.capacity; over > 0 {
		// shift in place so the backing array does not grow without bound
		copy(w.candles, w.candles[over:])
		w.candles = w.candles[:w.capacity]
	}
	return nil
}

// Candles returns a copy of the buffered bars, oldest first.
func (w *Window) Candles() []Candle {
	out := make([]Candle, len(w.candles))
	copy(out, w.candles)
	return out
}

// Last returns the newest bar.
func (w *Window) Last() (Candle, bool) {
	if len(w.candles) == 0 {
		return Candle{}, false
	}
	return w.candles[len(w.candles)-1], true
}

func (w *Window) Len() int      { return len(w.candles) }
func (w *Window) Capacity() int { return w.capacity }
