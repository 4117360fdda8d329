// Package risk decides whether an order may be placed given the current
// exposure. It holds no state of its own.
package risk

import (
	"fmt"
	"math"

	"github.com/rustyeddy/futbot/market"
)

// Violation codes.
const (
	CodeMaxPosition = "MAX_POSITION"
	CodeNoUnits     = "NO_UNITS"
	CodeBadSide     = "BAD_SIDE"
)

type Violation struct {
	Code string
	Msg  string
}

// Decision is the outcome of a check. A rejected order is a normal result,
// not an error.
type Decision struct {
	Allowed    bool
	Violations []Violation

	Current    float64
	Projected  float64
	MaxAllowed float64
}

func (d *Decision) add(code, msg string) {
	d.Violations = append(d.Violations, Violation{Code: code, Msg: msg})
	d.Allowed = false
}

// Reason joins the violation messages.
func (d Decision) Reason() string {
	if len(d.Violations) == 0 {
		return ""
	}
	s := d.Violations[0].Msg
	for _, v := range d.Violations[1:] {
		s += "; " + v.Msg
	}
	return s
}

// Policy holds the exposure limits for one instrument.
type Policy struct {
	MaxPosition float64 // absolute cap in instrument units
}

// Check evaluates an order of amount on side against the signed current
// exposure.
func (p Policy) Check(current float64, side market.Side, amount float64) Decision {
	return CheckExposure(current, side, amount, p.MaxPosition)
}

// CheckExposure rejects an order when |current + signed(amount)| exceeds max.
// The cap is hard: callers skip the order, they never shrink it to fit.
func CheckExposure(current float64, side market.Side, amount, max float64) Decision {
	d := Decision{Allowed: true, Current: current, MaxAllowed: max}

	if !side.Valid() {
		d.add(CodeBadSide, fmt.Sprintf("invalid side %q", side))
		return d
	}
	if amount <= 0 {
		d.add(CodeNoUnits, "amount must be positive")
		return d
	}

	d.Projected = Projected(current, side, amount)
	if math.Abs(d.Projected) > max+epsilon {
		d.add(CodeMaxPosition,
			fmt.Sprintf("projected exposure %.6g exceeds max position %.6g",
				math.Abs(d.Projected), max))
	}
	return d
}

// epsilon absorbs float noise from exchange-reported position sizes.
const epsilon = 1e-9
