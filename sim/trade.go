package sim

import (
	"time"

	"github.com/rustyeddy/futbot/market"
)

// Trade is a position-opening fill. It is written once when the position
// opens and completed once when the opposing fill closes it.
type Trade struct {
	ID         string
	Symbol     string
	Side       market.Side
	EntryPrice float64
	Amount     float64
	Fee        float64
	Time       time.Time

	// Set on close
	RealizedPL *float64
	ExitPrice  float64
	ExitFee    float64
	CloseTime  time.Time

	// Superseded marks an open trade replaced under the overwrite policy.
	Superseded bool
}

// Timestamp returns the fill time in milliseconds since the epoch.
func (t Trade) Timestamp() int64 {
	return t.Time.UnixMilli()
}

func (t Trade) Closed() bool {
	return t.RealizedPL != nil
}

// Signed is the trade's exposure: +amount for long, -amount for short.
func (t Trade) Signed() float64 {
	return t.Side.Signed(t.Amount)
}

// Fees is the total fee paid so far (entry plus exit once closed).
func (t Trade) Fees() float64 {
	return t.Fee + t.ExitFee
}

func (t Trade) clone() Trade {
	c := t
	if t.RealizedPL != nil {
		pl := *t.RealizedPL
		c.RealizedPL = &pl
	}
	return c
}

// Position is the ledger's open-position slot. The zero value is flat.
type Position struct {
	trade *Trade
}

// Open returns the open trade, if any.
func (p Position) Open() (Trade, bool) {
	if p.trade == nil {
		return Trade{}, false
	}
	return p.trade.clone(), true
}

func (p Position) IsFlat() bool {
	return p.trade == nil
}

// Signed is the current exposure, zero when flat.
func (p Position) Signed() float64 {
	if p.trade == nil {
		return 0
	}
	return p.trade.Signed()
}
