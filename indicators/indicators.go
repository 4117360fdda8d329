// Package indicators provides technical analysis indicators over closed bars.
// Every function reads the most recent bars at the end of the slice.
package indicators

import "fmt"

func checkPeriod(n, period int) error {
	if period <= 0 {
		return fmt.Errorf("period must be positive, got %d", period)
	}
	if n < period {
		return fmt.Errorf("not enough candles: need %d, got %d", period, n)
	}
	return nil
}
