package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"slot-reservation-engine/cmd/bootstrap"
	"slot-reservation-engine/internal/usecase/commands"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// exit codes: 1 for a failed run, 2 when the run finished but raised alarms
const exitAlarms = 2

var errAlarms = errors.New("consistency alarms raised")

type options struct {
	dryRun  bool
	verbose bool
	timeout time.Duration
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Recount participant counters from the reservation ledger",
		Long: `Recount every activity's participant counter from the reservation ledger
and overwrite counters that drifted.

Activities holding more reservations than their capacity are reported as
consistency alarms and left for an operator; the exit status is 2 when any
alarm was raised.

Examples:
  # Report drift without writing
  reconcile --dry-run

  # Correct counters
  reconcile`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Report drift without correcting counters")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log every checked activity")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 10*time.Minute, "Abort the run after this long")

	return cmd
}

func newLogger(verbose bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if verbose {
		config = zap.NewDevelopmentConfig()
	}
	config.Encoding = "console"
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.DisableStacktrace = true
	return config.Build()
}

func run(ctx context.Context, opts *options) error {
	l, err := newLogger(opts.verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = l.Sync() }()

	var reconcile commands.ReconcileCommands
	app := fx.New(
		bootstrap.CoreModule,
		fx.NopLogger,
		fx.Populate(&reconcile),
	)
	if err := app.Err(); err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}

	startCtx, cancelStart := context.WithTimeout(ctx, 30*time.Second)
	defer cancelStart()
	if err := app.Start(startCtx); err != nil {
		return fmt.Errorf("failed to start application: %w", err)
	}
	defer func() {
		stopCtx, cancelStop := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelStop()
		if err := app.Stop(stopCtx); err != nil {
			l.Warn("shutdown failed", zap.Error(err))
		}
	}()

	runCtx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	l.Info("Starting reconciliation", zap.Bool("dry_run", opts.dryRun))
	report, err := reconcile.Run(runCtx, commands.ReconcileOptions{DryRun: opts.dryRun})
	if err != nil {
		return fmt.Errorf("reconciliation failed: %w", err)
	}

	for _, d := range report.Drifts {
		l.Warn("Counter drift",
			zap.String("activity", d.ActivityID),
			zap.Int("counter", d.Before),
			zap.Int("ledger", d.After),
			zap.Int("capacity", d.Capacity))
	}
	for _, a := range report.Alarms {
		l.Error("Over capacity",
			zap.String("activity", a.ActivityID),
			zap.Int("reservations", a.Counter),
			zap.Int("capacity", a.Capacity))
	}

	l.Info("Reconciliation finished",
		zap.Int("checked", report.Checked),
		zap.Int("corrected", report.Corrected),
		zap.Int("failed", report.Failed),
		zap.Int("alarms", len(report.Alarms)),
		zap.Duration("took", report.FinishedAt.Sub(report.StartedAt)))

	if report.HasAlarms() {
		return errAlarms
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		if errors.Is(err, errAlarms) {
			stop()
			os.Exit(exitAlarms)
		}
		fmt.Fprintln(os.Stderr, "reconcile:", err)
		stop()
		os.Exit(1)
	}
}
