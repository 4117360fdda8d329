package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rustyeddy/futbot/broker"
	_ "github.com/rustyeddy/futbot/broker/binance"
	"github.com/rustyeddy/futbot/config"
	"github.com/rustyeddy/futbot/execution"
	"github.com/rustyeddy/futbot/journal"
	"github.com/rustyeddy/futbot/notify"
	"github.com/rustyeddy/futbot/runner"
	"github.com/rustyeddy/futbot/sim"
	"github.com/rustyeddy/futbot/strategy"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the trading loop",
	Long: `Run the bar-aligned trading loop using settings from a configuration file.

The bot waits for each candle to close, feeds the finalized bar to the
strategy and sends the resulting orders through the exposure guard. In dry
run orders fill against the simulated ledger at the last close.

Examples:
  futbot run --config futbot.yaml
  futbot run --config futbot.yaml --live
  futbot run --config futbot.yaml --cycles 24`,
	RunE: runRun,
}

var (
	runConfigPath string
	runLive       bool
	runCycles     int
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to config file (YAML or JSON) (required)")
	runCmd.Flags().BoolVar(&runLive, "live", false, "send real orders, overriding dry_run in the config")
	runCmd.Flags().IntVar(&runCycles, "cycles", 0, "stop after this many bars (0 runs until interrupted)")
	runCmd.MarkFlagRequired("config")
}

func runRun(cmd *cobra.Command, args []string) error {
	if err := config.LoadEnv(envFiles...); err != nil {
		return fmt.Errorf("load env: %w", err)
	}
	cfg, err := config.LoadFromFile(runConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if runLive {
		cfg.Exchange.DryRun = false
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
	}

	log, closer, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer closer.Close()

	gw, err := broker.Open(cfg.Exchange.Name, broker.Options{
		APIKey:    cfg.Exchange.APIKey,
		APISecret: cfg.Exchange.APISecret,
		Testnet:   cfg.Exchange.Testnet,
	})
	if err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}

	b, err := assemble(cfg, gw, log)
	if err != nil {
		return err
	}
	defer b.close()
	b.runner.Config.MaxCycles = runCycles

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("starting",
		slog.String("symbol", cfg.Exchange.Symbol),
		slog.String("timeframe", cfg.Exchange.Timeframe),
		slog.String("strategy", cfg.Strategy.Name),
		slog.Bool("dry_run", cfg.Exchange.DryRun),
	)

	err = b.serve(ctx)

	fmt.Println(b.ledger.Summary())
	if cfg.Exchange.DryRun {
		fmt.Println(b.ledger.History())
	}
	return err
}

// bot is the wired set of components behind the run command.
type bot struct {
	runner  *runner.Runner
	ledger  *sim.Ledger
	journal journal.Journal
	hub     *notify.Hub
	hubAddr string
	log     *slog.Logger
}

func assemble(cfg *config.Config, gw broker.Gateway, log *slog.Logger) (*bot, error) {
	ex := cfg.Exchange

	strat, err := strategy.New(cfg.Strategy.Name, cfg.Strategy.Params)
	if err != nil {
		return nil, fmt.Errorf("strategy: %w", err)
	}
	policy, err := sim.ParseSameSidePolicy(ex.SameSidePolicy)
	if err != nil {
		return nil, err
	}

	b := &bot{log: log}

	var sinks []notify.Sink
	if cfg.Notify.DiscordWebhook != "" {
		sinks = append(sinks, notify.NewDiscord(cfg.Notify.DiscordWebhook, cfg.Notify.MentionUserID))
	}
	if cfg.Notify.HubAddr != "" {
		b.hub = notify.NewHub()
		b.hubAddr = cfg.Notify.HubAddr
		sinks = append(sinks, b.hub)
	}
	n := notify.New(log, sinks...)
	n.SetSinkLevel(notify.ParseLevel(cfg.Notify.Level))

	j, err := journal.Open(cfg.Journal.Type, journal.Options{
		TradesFile:  cfg.Journal.TradesFile,
		BalanceFile: cfg.Journal.BalanceFile,
		DBPath:      cfg.Journal.DBPath,
		DSN:         cfg.Journal.DSN,
	})
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	b.journal = j

	mode := "live"
	if ex.DryRun {
		mode = "dry-run"
	}
	b.ledger = sim.NewLedger(sim.Options{
		Symbol:         ex.Symbol,
		InitialBalance: ex.SimulationInitialBalance,
		FeeRate:        ex.FeeRate,
		Leverage:       float64(ex.Leverage),
		SameSide:       policy,
		Mode:           mode,
	}, j, n)

	guard := execution.New(execution.Config{
		Symbol:      ex.Symbol,
		MaxPosition: ex.MaxPosition,
		Leverage:    float64(ex.Leverage),
		DryRun:      ex.DryRun,
	}, gw, b.ledger, n)

	b.runner = &runner.Runner{
		Config: runner.Config{
			Symbol:        ex.Symbol,
			Timeframe:     ex.Timeframe,
			PositionSize:  ex.PositionSize,
			DryRun:        ex.DryRun,
			RetryCount:    ex.RetryCount,
			RetryInterval: ex.RetryDelay(),
			Setup: broker.Setup{
				Symbol:     ex.Symbol,
				Leverage:   ex.Leverage,
				MarginType: ex.MarginType,
			},
		},
		Gateway:  gw,
		Guard:    guard,
		Ledger:   b.ledger,
		Strategy: strat,
		Notifier: n,
	}
	return b, nil
}

// serve runs the loop and, when configured, the event hub. The hub is shut
// down once the loop returns.
func (b *bot) serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		return b.runner.Run(ctx)
	})

	if b.hub != nil {
		mux := http.NewServeMux()
		mux.Handle("/ws", b.hub.Handler())
		srv := &http.Server{
			Addr:              b.hubAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			b.log.Info("event hub listening", slog.String("addr", b.hubAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("event hub: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, done := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer done()
			return srv.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}

func (b *bot) close() {
	if b.hub != nil {
		b.hub.Close()
	}
	if err := b.journal.Close(); err != nil {
		b.log.Error("close journal", slog.String("error", err.Error()))
	}
}
