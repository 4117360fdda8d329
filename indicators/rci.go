package indicators

import (
	"math"
	"sort"

	"github.com/rustyeddy/futbot/market"
)

// RCI is the Rank Correlation Index of the last period closes: Spearman's
// rank correlation between time order and price order, scaled to
// [-100, 100]. Steadily rising prices give 100, steadily falling -100.
// Equal prices share the average of their ranks.
func RCI(candles []market.Candle, period int) (float64, error) {
	if err := checkPeriod(len(candles), period); err != nil {
		return 0, err
	}
	return rci(market.Closes(candles[len(candles)-period:])), nil
}

// RCISeries returns the RCI at every bar. Entries before the first full
// period are NaN.
func RCISeries(candles []market.Candle, period int) ([]float64, error) {
	if err := checkPeriod(len(candles), period); err != nil {
		return nil, err
	}
	closes := market.Closes(candles)
	out := make([]float64, len(closes))
	for i := range out {
		if i < period-1 {
			out[i] = math.NaN()
			continue
		}
		out[i] = rci(closes[i-period+1 : i+1])
	}
	return out, nil
}

func rci(window []float64) float64 {
	n := len(window)
	if n < 2 {
		return 0
	}
	ranks := priceRanks(window)

	d2 := 0.0
	for i, r := range ranks {
		d := float64(i+1) - r
		d2 += d * d
	}
	fn := float64(n)
	return (1 - 6*d2/(fn*(fn*fn-1))) * 100
}

// priceRanks ranks values ascending from 1, averaging ties.
func priceRanks(vals []float64) []float64 {
	idx := make([]int, len(vals))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return vals[idx[a]] < vals[idx[b]] })

	ranks := make([]float64, len(vals))
	for i := 0; i < len(idx); {
		j := i
		for j+1 < len(idx) && vals[idx[j+1]] == vals[idx[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avg
		}
		i = j + 1
	}
	return ranks
}
