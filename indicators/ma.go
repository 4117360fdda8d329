package indicators

import "github.com/rustyeddy/futbot/market"

// MA calculates the Simple Moving Average of the last period closes.
func MA(candles []market.Candle, period int) (float64, error) {
	if err := checkPeriod(len(candles), period); err != nil {
		return 0, err
	}

	sum := 0.0
	for i := len(candles) - period; i < len(candles); i++ {
		sum += candles[i].Close
	}
	return sum / float64(period), nil
}

// EMA calculates the Exponential Moving Average over all candles, seeded with
// the SMA of the first period closes.
func EMA(candles []market.Candle, period int) (float64, error) {
	if err := checkPeriod(len(candles), period); err != nil {
		return 0, err
	}

	multiplier := 2.0 / float64(period+1)

	sma := 0.0
	for i := 0; i < period; i++ {
		sma += candles[i].Close
	}
	ema := sma / float64(period)

	for i := period; i < len(candles); i++ {
		ema = (candles[i].Close-ema)*multiplier + ema
	}
	return ema, nil
}
