package market

import "time"

// Candle represents one OHLCV bar. The embedded time is the bar open time.
type Candle struct {
	Open   float64
	High   float64
	Low    float64
	Close  float64
	time.Time
	Volume float64
}

// Timestamp returns the bar open time in milliseconds since the epoch.
func (c Candle) Timestamp() int64 {
	return c.Time.UnixMilli()
}

// Closes extracts the close prices from candles, oldest first.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}
