package risk

import "github.com/rustyeddy/futbot/market"

// Projected is the signed exposure after filling amount on side.
func Projected(current float64, side market.Side, amount float64) float64 {
	return current + side.Signed(amount)
}

// ClosingOrder returns the side and size of the reduce-only order that
// flattens a signed position. ok is false when already flat.
func ClosingOrder(current float64) (side market.Side, amount float64, ok bool) {
	switch {
	case current > epsilon:
		return market.Short, current, true
	case current < -epsilon:
		return market.Long, -current, true
	}
	return "", 0, false
}

// RequiredMargin is the initial margin for a notional at the given leverage.
func RequiredMargin(price, amount, leverage float64) float64 {
	if leverage <= 0 {
		leverage = 1
	}
	return price * amount / leverage
}
