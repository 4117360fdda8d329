package market

import "fmt"

// Side is the direction of a position. Raw exchange terms (buy/sell) are
// translated into sides at the gateway boundary and never used internally.
type Side string

const (
	Long  Side = "long"
	Short Side = "short"
)

// ParseSide accepts "long" or "short".
func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case Long, Short:
		return Side(s), nil
	}
	return "", fmt.Errorf("invalid side %q", s)
}

// Opposite returns the side that reduces a position held on s.
func (s Side) Opposite() Side {
	if s == Long {
		return Short
	}
	return Long
}

// Sign is +1 for long and -1 for short.
func (s Side) Sign() float64 {
	if s == Short {
		return -1
	}
	return 1
}

// Signed applies the side's sign to a positive amount.
func (s Side) Signed(amount float64) float64 {
	return s.Sign() * amount
}

func (s Side) Valid() bool {
	return s == Long || s == Short
}

func (s Side) String() string { return string(s) }
