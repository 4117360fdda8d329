// Package runner drives the trading loop: it sleeps until each bar closes,
// feeds the new bar to the strategy and routes its decisions through the
// execution guard, retrying failed cycles up to a budget.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rustyeddy/futbot/broker"
	"github.com/rustyeddy/futbot/execution"
	"github.com/rustyeddy/futbot/market"
	"github.com/rustyeddy/futbot/notify"
	"github.com/rustyeddy/futbot/sim"
	"github.com/rustyeddy/futbot/strategy"
)

// ErrRetriesExhausted ends Run after RetryCount consecutive failed cycles.
var ErrRetriesExhausted = errors.New("retries exhausted")

// State is where the loop is in its cycle.
type State int

const (
	Initializing State = iota
	Waiting
	Processing
	Terminated
)

func (s State) String() string {
	switch s {
	case Initializing:
		return "initializing"
	case Waiting:
		return "waiting"
	case Processing:
		return "processing"
	case Terminated:
		return "terminated"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

const (
	DefaultSettleDelay   = 2 * time.Second
	DefaultOffsetRefresh = time.Hour
)

// Config controls the loop.
type Config struct {
	Symbol       string
	Timeframe    string
	PositionSize float64
	DryRun       bool

	// RetryCount consecutive failures terminate the loop.
	RetryCount    int
	RetryInterval time.Duration

	// SettleDelay is added after each bar boundary so the venue has
	// published the closed bar.
	SettleDelay time.Duration
	// OffsetRefresh is how often the server clock offset is re-measured.
	OffsetRefresh time.Duration

	// Setup is applied once during initialization.
	Setup broker.Setup

	// MaxCycles stops the loop cleanly after that many cycles; zero runs
	// until the context ends.
	MaxCycles int
}

// Runner owns the candle window; the ledger and guard are shared with
// whoever built them.
type Runner struct {
	Config   Config
	Gateway  broker.Gateway
	Guard    *execution.Guard
	Ledger   *sim.Ledger
	Strategy strategy.Strategy
	Notifier *notify.Notifier
	Clock    Clock

	interval time.Duration
	window   *market.Window
	offset   time.Duration
	offsetAt time.Time
	state    State
	failures int
	cycles   int
}

func (r *Runner) State() State { return r.state }

// Window returns the candle window, nil before Init.
func (r *Runner) Window() *market.Window { return r.window }

// Offset is the last measured server minus local clock difference.
func (r *Runner) Offset() time.Duration { return r.offset }

func (r *Runner) validate() error {
	if r.Notifier == nil {
		r.Notifier = notify.Nop()
	}
	if r.Clock == nil {
		r.Clock = SystemClock{}
	}
	switch {
	case r.Gateway == nil:
		return errors.New("runner: Gateway is required")
	case r.Guard == nil:
		return errors.New("runner: Guard is required")
	case r.Ledger == nil:
		return errors.New("runner: Ledger is required")
	case r.Strategy == nil:
		return errors.New("runner: Strategy is required")
	case r.Config.RetryCount <= 0:
		return fmt.Errorf("runner: RetryCount must be positive, got %d", r.Config.RetryCount)
	}
	if r.Config.SettleDelay == 0 {
		r.Config.SettleDelay = DefaultSettleDelay
	}
	if r.Config.OffsetRefresh == 0 {
		r.Config.OffsetRefresh = DefaultOffsetRefresh
	}
	return nil
}

// Run initializes and then loops until ctx ends, MaxCycles is reached or the
// retry budget runs out. Cancellation is a clean stop and returns nil.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.Init(ctx); err != nil {
		if ctx.Err() != nil {
			return r.stop(ctx)
		}
		r.terminate(ctx, err)
		return err
	}
	return r.loop(ctx)
}

// Init applies the exchange setup, measures the clock offset and seeds the
// window. Any failure here is fatal.
func (r *Runner) Init(ctx context.Context) error {
	r.state = Initializing
	if err := r.validate(); err != nil {
		return err
	}

	iv, err := market.ParseTimeframe(r.Config.Timeframe)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	r.interval = iv

	if err := r.Gateway.Configure(ctx, r.Config.Setup); err != nil {
		if !broker.IsAlreadySet(err) {
			return fmt.Errorf("init: configure %s: %w", r.Config.Symbol, err)
		}
		r.Notifier.Logger().Info("exchange setup already applied", slog.String("symbol", r.Config.Symbol))
	}

	if err := r.refreshOffset(ctx); err != nil {
		return fmt.Errorf("init: %w", err)
	}

	lookback := r.Strategy.Lookback()
	fetched, err := r.Gateway.FetchOHLCV(ctx, r.Config.Symbol, r.Config.Timeframe, lookback+1)
	if err != nil {
		return fmt.Errorf("init: fetch history: %w", err)
	}
	seed := r.finalized(fetched, r.serverNow())
	r.window, err = market.NewWindow(lookback, seed)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}

	mode := "live"
	if r.Config.DryRun {
		mode = "dry run"
	}
	r.Notifier.Info(ctx, "Bot started",
		fmt.Sprintf("%s %s, strategy %s, %s, %d bars loaded",
			r.Config.Symbol, r.Config.Timeframe, r.Strategy.Name(), mode, r.window.Len()))
	return nil
}

func (r *Runner) loop(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return r.stop(ctx)
		}
		if r.Config.MaxCycles > 0 && r.cycles >= r.Config.MaxCycles {
			return r.stop(ctx)
		}

		r.cycles++
		err := r.Step(ctx)
		if err == nil {
			r.failures = 0
			continue
		}
		if ctx.Err() != nil {
			return r.stop(ctx)
		}

		r.failures++
		r.Notifier.Error(ctx, "Cycle failed",
			fmt.Sprintf("attempt %d/%d: %v", r.failures, r.Config.RetryCount, err))
		if r.failures >= r.Config.RetryCount {
			err = fmt.Errorf("%w after %d consecutive failures: %v", ErrRetriesExhausted, r.failures, err)
			r.terminate(ctx, err)
			return err
		}
		if err := r.Clock.Sleep(ctx, r.Config.RetryInterval); err != nil {
			return r.stop(ctx)
		}
	}
}

// Step runs one Waiting then Processing cycle.
func (r *Runner) Step(ctx context.Context) error {
	if err := r.wait(ctx); err != nil {
		return err
	}
	return r.process(ctx)
}

func (r *Runner) wait(ctx context.Context) error {
	r.state = Waiting

	if r.Clock.Now().Sub(r.offsetAt) >= r.Config.OffsetRefresh {
		if err := r.refreshOffset(ctx); err != nil {
			return err
		}
	}

	now := r.serverNow().UnixMilli()
	next := market.NextBoundary(now, r.interval)
	d := time.Duration(next-now)*time.Millisecond + r.Config.SettleDelay
	return r.Clock.Sleep(ctx, d)
}

func (r *Runner) process(ctx context.Context) error {
	r.state = Processing
	log := r.Notifier.Logger()

	fetched, err := r.Gateway.FetchOHLCV(ctx, r.Config.Symbol, r.Config.Timeframe, 2)
	if err != nil {
		return fmt.Errorf("fetch bar: %w", err)
	}
	done := r.finalized(fetched, r.serverNow())
	if len(done) == 0 {
		return fmt.Errorf("no closed %s bar available", r.Config.Timeframe)
	}
	bar := done[len(done)-1]
	if err := r.window.Update(bar); err != nil {
		return err
	}
	log.Debug("bar closed",
		slog.String("symbol", r.Config.Symbol),
		slog.Time("open_time", bar.Time),
		slog.Float64("close", bar.Close),
	)

	candles := r.window.Candles()

	pos, err := r.Guard.Position(ctx)
	if err != nil {
		return err
	}
	flat := pos == 0
	if !flat {
		held := market.Long
		if pos < 0 {
			held = market.Short
		}
		if r.Strategy.ShouldExit(candles, held) {
			out, err := r.Guard.CloseAll(ctx)
			if err != nil {
				return fmt.Errorf("exit %s: %w", held, err)
			}
			flat = out.Filled() || out.Skipped
		}
	}

	if !flat {
		return nil
	}
	side, ok := r.Strategy.ShouldEnter(candles)
	if !ok {
		return nil
	}
	if _, err := r.Guard.Request(ctx, side, r.Config.PositionSize); err != nil {
		return fmt.Errorf("enter %s: %w", side, err)
	}
	return nil
}

// finalized keeps the bars whose interval has fully elapsed at now.
func (r *Runner) finalized(candles []market.Candle, now time.Time) []market.Candle {
	out := candles[:0:0]
	for _, c := range candles {
		if !c.Time.Add(r.interval).After(now) {
			out = append(out, c)
		}
	}
	return out
}

func (r *Runner) refreshOffset(ctx context.Context) error {
	server, err := r.Gateway.FetchServerTime(ctx)
	if err != nil {
		return fmt.Errorf("fetch server time: %w", err)
	}
	local := r.Clock.Now()
	r.offset = server.Sub(local)
	r.offsetAt = local
	r.Notifier.Logger().Info("server clock offset", slog.Duration("offset", r.offset))
	return nil
}

func (r *Runner) serverNow() time.Time {
	return r.Clock.Now().Add(r.offset)
}

func (r *Runner) stop(ctx context.Context) error {
	r.state = Terminated
	msg := fmt.Sprintf("%s stopped", r.Config.Symbol)
	if r.Ledger != nil {
		msg += "\n\n" + r.Ledger.Summary().String()
	}
	r.Notifier.Info(context.WithoutCancel(ctx), "Bot stopped", msg)
	return nil
}

func (r *Runner) terminate(ctx context.Context, err error) {
	r.state = Terminated
	msg := err.Error()
	if r.Ledger != nil {
		msg += "\n\n" + r.Ledger.Summary().String()
	}
	r.Notifier.Error(context.WithoutCancel(ctx), "Bot terminated", msg)
}
