// Package execution holds the guard every order passes through. It checks
// exposure, then routes the order to the exchange or to the ledger.
package execution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rustyeddy/futbot/broker"
	"github.com/rustyeddy/futbot/market"
	"github.com/rustyeddy/futbot/notify"
	"github.com/rustyeddy/futbot/risk"
	"github.com/rustyeddy/futbot/sim"
)

// Config is the guard's read-only view of the execution settings.
type Config struct {
	Symbol      string
	MaxPosition float64
	Leverage    float64
	DryRun      bool

	// Now stamps simulated fills. Defaults to time.Now.
	Now func() time.Time
}

// Outcome describes what a request or close did. A rejected or skipped
// order is an Outcome, not an error.
type Outcome struct {
	Decision risk.Decision
	Side     market.Side
	Amount   float64
	Price    float64
	DryRun   bool

	// Trade is the ledger's opening trade; closed when this fill closed it.
	Trade sim.Trade

	// Order is the venue's report. Nil in dry run.
	Order *broker.OrderResult

	Skipped bool
	Reason  string
}

// Filled reports whether an order was placed or simulated.
func (o Outcome) Filled() bool {
	return o.Decision.Allowed && !o.Skipped
}

// Guard owns no trading state; it reads the ledger or the venue for the
// current position on every call.
type Guard struct {
	cfg    Config
	policy risk.Policy
	gw     broker.Gateway
	ledger *sim.Ledger
	n      *notify.Notifier
}

func New(cfg Config, gw broker.Gateway, ledger *sim.Ledger, n *notify.Notifier) *Guard {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if n == nil {
		n = notify.Nop()
	}
	return &Guard{
		cfg:    cfg,
		policy: risk.Policy{MaxPosition: cfg.MaxPosition},
		gw:     gw,
		ledger: ledger,
		n:      n,
	}
}

// Position returns the signed current exposure: the ledger's in dry run,
// the venue's when live.
func (g *Guard) Position(ctx context.Context) (float64, error) {
	if g.cfg.DryRun {
		return g.ledger.Position().Signed(), nil
	}
	p, err := g.gw.FetchPosition(ctx, g.cfg.Symbol)
	if err != nil {
		return 0, fmt.Errorf("fetch position: %w", err)
	}
	return p.Amount, nil
}

// Request places amount on side unless the resulting exposure would exceed
// the maximum position. Rejections are never resized.
func (g *Guard) Request(ctx context.Context, side market.Side, amount float64) (Outcome, error) {
	current, err := g.Position(ctx)
	if err != nil {
		return Outcome{}, err
	}

	d := g.policy.Check(current, side, amount)
	if !d.Allowed {
		g.n.Warn(ctx, "Order rejected",
			fmt.Sprintf("%s %s %s rejected: %s", g.cfg.Symbol, side, market.FormatAmount(amount), d.Reason()))
		return Outcome{Decision: d, Side: side, Amount: amount, DryRun: g.cfg.DryRun}, nil
	}
	return g.execute(ctx, d, side, amount, false)
}

// CloseAll flattens the position with a single reduce-only order. When
// already flat it does nothing.
func (g *Guard) CloseAll(ctx context.Context) (Outcome, error) {
	current, err := g.Position(ctx)
	if err != nil {
		return Outcome{}, err
	}

	side, amount, ok := risk.ClosingOrder(current)
	if !ok {
		g.n.Warn(ctx, "Nothing to close", fmt.Sprintf("no open %s position", g.cfg.Symbol))
		return Outcome{
			Decision: risk.Decision{Allowed: true, MaxAllowed: g.cfg.MaxPosition},
			DryRun:   g.cfg.DryRun,
			Skipped:  true,
			Reason:   "flat",
		}, nil
	}

	d := risk.Decision{Allowed: true, Current: current, MaxAllowed: g.cfg.MaxPosition}
	return g.execute(ctx, d, side, amount, true)
}

func (g *Guard) execute(ctx context.Context, d risk.Decision, side market.Side, amount float64, reduceOnly bool) (Outcome, error) {
	out := Outcome{Decision: d, Side: side, Amount: amount, DryRun: g.cfg.DryRun}
	if g.cfg.DryRun {
		return g.simulate(ctx, out)
	}
	return g.submit(ctx, out, reduceOnly)
}

func (g *Guard) simulate(ctx context.Context, out Outcome) (Outcome, error) {
	price, err := g.gw.FetchTicker(ctx, g.cfg.Symbol)
	if err != nil {
		return out, fmt.Errorf("fetch ticker: %w", err)
	}
	out.Price = price

	tr, err := g.ledger.Simulate(ctx, out.Side, price, out.Amount, g.cfg.Now())
	if errors.Is(err, sim.ErrSameSide) {
		out.Skipped = true
		out.Reason = err.Error()
		return out, nil
	}
	if err != nil {
		return out, err
	}
	out.Trade = tr

	g.logFill(out)
	g.n.Info(ctx, "Order simulated",
		fmt.Sprintf("[DRY RUN] %s %s %s at %.2f", g.cfg.Symbol, out.Side, market.FormatAmount(out.Amount), price))
	return out, nil
}

func (g *Guard) submit(ctx context.Context, out Outcome, reduceOnly bool) (Outcome, error) {
	var (
		res broker.OrderResult
		err error
	)
	if reduceOnly {
		res, err = g.gw.SubmitReduceOnlyOrder(ctx, g.cfg.Symbol, out.Side, out.Amount)
	} else {
		res, err = g.gw.SubmitMarketOrder(ctx, g.cfg.Symbol, out.Side, out.Amount)
	}
	if err != nil {
		return out, fmt.Errorf("submit %s order: %w", out.Side, err)
	}
	out.Order = &res

	out.Price = res.AvgPrice
	if out.Price == 0 {
		if p, err := g.gw.FetchTicker(ctx, g.cfg.Symbol); err == nil {
			out.Price = p
		} else {
			g.n.Logger().Warn("no fill price for ledger", slog.String("order", res.ID), slog.String("error", err.Error()))
		}
	}

	g.n.Info(ctx, "Order filled",
		fmt.Sprintf("%s %s %s at %.2f (order %s)", g.cfg.Symbol, out.Side, market.FormatAmount(res.Amount), out.Price, res.ID))
	g.logFill(out)
	g.record(ctx, &out, res, reduceOnly)
	return out, nil
}

// record mirrors a live fill into the ledger. A close of a position the
// ledger never saw open, such as one left from a previous run, is not
// recorded.
func (g *Guard) record(ctx context.Context, out *Outcome, res broker.OrderResult, reduceOnly bool) {
	if out.Price <= 0 {
		return
	}
	log := g.n.Logger()

	tr, open := g.ledger.Position().Open()
	if reduceOnly && (!open || tr.Side == out.Side) {
		log.Info("close not tracked by ledger", slog.String("order", res.ID))
		return
	}

	ts := res.Time
	if ts.IsZero() {
		ts = g.cfg.Now()
	}
	t, err := g.ledger.Simulate(ctx, out.Side, out.Price, res.Amount, ts)
	if err != nil {
		log.Warn("ledger out of sync with venue", slog.String("order", res.ID), slog.String("error", err.Error()))
		return
	}
	out.Trade = t
}

func (g *Guard) logFill(out Outcome) {
	g.n.Logger().Debug("fill",
		slog.String("symbol", g.cfg.Symbol),
		slog.String("side", string(out.Side)),
		slog.Float64("amount", out.Amount),
		slog.Float64("price", out.Price),
		slog.Float64("margin", risk.RequiredMargin(out.Price, out.Amount, g.cfg.Leverage)),
		slog.Bool("dry_run", out.DryRun),
	)
}
