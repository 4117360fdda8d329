// Package sim keeps the position ledger: the single open-position slot, the
// append-only trade log and the running balance. In dry-run mode it is the
// exchange; in live mode it mirrors confirmed fills.
package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rustyeddy/futbot/internal/id"
	"github.com/rustyeddy/futbot/journal"
	"github.com/rustyeddy/futbot/market"
	"github.com/rustyeddy/futbot/notify"
)

// ErrSameSide is returned when a fill would add to the open position under
// the reject policy.
var ErrSameSide = errors.New("fill is on the same side as the open position")

// SameSidePolicy decides what happens to a fill on the open position's side.
type SameSidePolicy string

const (
	// SameSideReject leaves the ledger untouched and returns ErrSameSide.
	SameSideReject SameSidePolicy = "reject"
	// SameSideOverwrite replaces the open trade; the old one is marked
	// superseded and never closed.
	SameSideOverwrite SameSidePolicy = "overwrite"
)

func ParseSameSidePolicy(s string) (SameSidePolicy, error) {
	switch SameSidePolicy(s) {
	case "", SameSideReject:
		return SameSideReject, nil
	case SameSideOverwrite:
		return SameSideOverwrite, nil
	}
	return "", fmt.Errorf("invalid same-side policy %q", s)
}

// Options configures a Ledger.
type Options struct {
	Symbol         string
	InitialBalance float64
	FeeRate        float64
	Leverage       float64
	SameSide       SameSidePolicy
	Mode           string // recorded on journaled trades
}

// Ledger is safe for concurrent use.
type Ledger struct {
	mu sync.Mutex

	opts    Options
	balance float64
	trades  []*Trade
	open    *Trade

	journal  journal.Journal
	notifier *notify.Notifier
}

// NewLedger returns a flat ledger holding opts.InitialBalance. A nil journal
// or notifier is replaced with a no-op.
func NewLedger(opts Options, j journal.Journal, n *notify.Notifier) *Ledger {
	if opts.Leverage <= 0 {
		opts.Leverage = 1
	}
	if opts.SameSide == "" {
		opts.SameSide = SameSideReject
	}
	if opts.Mode == "" {
		opts.Mode = "dry-run"
	}
	if j == nil {
		j = journal.Discard
	}
	if n == nil {
		n = notify.Nop()
	}
	return &Ledger{
		opts:     opts,
		balance:  opts.InitialBalance,
		journal:  j,
		notifier: n,
	}
}

// Simulate applies a fill of amount at price. A fill while flat opens a
// position; an opposing fill closes it and realises PnL into the balance.
// The returned Trade is the opening trade, completed when the fill closed it.
func (l *Ledger) Simulate(ctx context.Context, side market.Side, price, amount float64, ts time.Time) (Trade, error) {
	if !side.Valid() {
		return Trade{}, fmt.Errorf("invalid side %q", side)
	}
	if price <= 0 || amount <= 0 {
		return Trade{}, fmt.Errorf("invalid fill: price=%v amount=%v", price, amount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	fee := Fee(price, amount, l.opts.FeeRate)

	switch {
	case l.open == nil:
		return l.openPosition(ctx, side, price, amount, fee, ts), nil

	case l.open.Side != side:
		return l.closePosition(ctx, price, fee, amount, ts), nil

	case l.opts.SameSide == SameSideOverwrite:
		l.open.Superseded = true
		l.notifier.Warn(ctx, "Position overwritten",
			fmt.Sprintf("%s %s position %s replaced by a new %s fill at %.1f",
				l.opts.Symbol, l.open.Side, l.open.ID, side, price))
		return l.openPosition(ctx, side, price, amount, fee, ts), nil

	default:
		l.notifier.Warn(ctx, "Same-side fill rejected",
			fmt.Sprintf("%s already %s, ignoring %s fill of %.3f at %.1f",
				l.opts.Symbol, l.open.Side, side, amount, price))
		return Trade{}, ErrSameSide
	}
}

func (l *Ledger) openPosition(ctx context.Context, side market.Side, price, amount, fee float64, ts time.Time) Trade {
	t := &Trade{
		ID:         id.At(ts),
		Symbol:     l.opts.Symbol,
		Side:       side,
		EntryPrice: price,
		Amount:     amount,
		Fee:        fee,
		Time:       ts,
	}
	l.trades = append(l.trades, t)
	l.open = t

	l.notifier.Logger().Info("position opened",
		slog.String("trade", t.ID),
		slog.String("side", string(side)),
		slog.Float64("price", price),
		slog.Float64("amount", amount),
		slog.Float64("fee", fee),
	)
	return t.clone()
}

func (l *Ledger) closePosition(ctx context.Context, price, fee, amount float64, ts time.Time) Trade {
	t := l.open
	pl := RealizedPL(t.Side, t.EntryPrice, price, amount, l.opts.Leverage, t.Fee, fee)

	t.ExitPrice = price
	t.ExitFee = fee
	t.CloseTime = ts
	t.RealizedPL = &pl
	l.balance += pl
	l.open = nil

	sum := summarize(l.opts.InitialBalance, l.balance, l.opts.Leverage, l.trades)

	prefix := ""
	if l.opts.Mode == "dry-run" {
		prefix = "[DRY RUN] "
	}
	msg := fmt.Sprintf("%sClosed %s %s %.3f: entry %.1f exit %.1f, PnL %.2f (fees %.2f)\n\n%s",
		prefix, l.opts.Symbol, t.Side, t.Amount, t.EntryPrice, price, pl, t.Fees(), sum)
	l.notifier.Info(ctx, "Position closed", msg)

	l.writeJournal(*t, sum)
	return t.clone()
}

func (l *Ledger) writeJournal(t Trade, sum Summary) {
	log := l.notifier.Logger()
	rec := journal.TradeRecord{
		TradeID:    t.ID,
		Symbol:     t.Symbol,
		Side:       string(t.Side),
		Amount:     t.Amount,
		EntryPrice: t.EntryPrice,
		ExitPrice:  t.ExitPrice,
		Fees:       t.Fees(),
		OpenTime:   t.Time,
		CloseTime:  t.CloseTime,
		RealizedPL: *t.RealizedPL,
		Mode:       l.opts.Mode,
	}
	if err := l.journal.RecordTrade(rec); err != nil {
		log.Error("journal trade failed", slog.String("trade", t.ID), slog.String("error", err.Error()))
	}

	snap := journal.BalanceSnapshot{
		Time:         t.CloseTime,
		Balance:      sum.CurrentBalance,
		TotalPL:      sum.TotalRealizedPL,
		ClosedTrades: sum.ClosedTrades,
	}
	if err := l.journal.RecordBalance(snap); err != nil {
		log.Error("journal balance failed", slog.String("error", err.Error()))
	}
}

// Position returns the open-position slot.
func (l *Ledger) Position() Position {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.open == nil {
		return Position{}
	}
	c := l.open.clone()
	return Position{trade: &c}
}

func (l *Ledger) Balance() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance
}

// Trades returns a copy of the trade log in fill order.
func (l *Ledger) Trades() []Trade {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Trade, len(l.trades))
	for i, t := range l.trades {
		out[i] = t.clone()
	}
	return out
}

func (l *Ledger) Summary() Summary {
	l.mu.Lock()
	defer l.mu.Unlock()
	return summarize(l.opts.InitialBalance, l.balance, l.opts.Leverage, l.trades)
}

// History renders the trade log, one line per trade.
func (l *Ledger) History() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return formatHistory(l.trades)
}
