package sim

import "github.com/rustyeddy/futbot/market"

// Fee is the fee charged on a fill.
func Fee(price, amount, feeRate float64) float64 {
	return price * amount * feeRate
}

// PriceChangeRate is the fractional move from entry to exit in the position's
// favour: positive when a long rises or a short falls.
func PriceChangeRate(side market.Side, entry, exit float64) float64 {
	if entry == 0 {
		return 0
	}
	return (exit - entry) / entry * side.Sign()
}

// RealizedPL is the leveraged profit of closing a position, net of the entry
// and exit fees:
//
//	rate * leverage * (exit * amount) - exitFee - entryFee
func RealizedPL(side market.Side, entry, exit, amount, leverage, entryFee, exitFee float64) float64 {
	rate := PriceChangeRate(side, entry, exit)
	return rate*leverage*(exit*amount) - exitFee - entryFee
}
