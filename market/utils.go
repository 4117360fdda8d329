package market

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Timeframes maps the supported bar intervals, in exchange notation, to durations.
var Timeframes = map[string]time.Duration{
	"1m":  time.Minute,
	"3m":  3 * time.Minute,
	"5m":  5 * time.Minute,
	"15m": 15 * time.Minute,
	"30m": 30 * time.Minute,
	"1h":  time.Hour,
	"2h":  2 * time.Hour,
	"4h":  4 * time.Hour,
	"6h":  6 * time.Hour,
	"12h": 12 * time.Hour,
	"1d":  24 * time.Hour,
}

// ParseTimeframe converts a timeframe such as "15m" or "4h" into a duration.
func ParseTimeframe(tf string) (time.Duration, error) {
	tf = strings.TrimSpace(tf)
	if d, ok := Timeframes[tf]; ok {
		return d, nil
	}
	return 0, fmt.Errorf("unsupported timeframe %q", tf)
}

// NextBoundary returns the first bar boundary at or after now, in milliseconds:
// ceil(now / interval) * interval.
func NextBoundary(nowMs int64, interval time.Duration) int64 {
	iv := interval.Milliseconds()
	if iv <= 0 {
		return nowMs
	}
	n := nowMs / iv
	if nowMs%iv != 0 {
		n++
	}
	return n * iv
}

// FormatAmount renders a quantity without exponent or trailing zeros.
func FormatAmount(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
