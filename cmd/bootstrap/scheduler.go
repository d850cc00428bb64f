package bootstrap

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"slot-reservation-engine/internal/pkg/config"
	"slot-reservation-engine/internal/usecase/commands"

	"go.uber.org/fx"
)

var SchedulerModule = fx.Module("scheduler",
	fx.Invoke(
		registerReconcileSchedule,
	),
)

// registerReconcileSchedule runs reconciliation every RECONCILE_INTERVAL until shutdown.
// A run that overlaps shutdown is cancelled through its context.
func registerReconcileSchedule(lc fx.Lifecycle, cfg config.Config, reconcile commands.ReconcileCommands, logger *slog.Logger) {
	interval := cfg.Reconcile.Interval
	if interval <= 0 {
		logger.Info("reconciliation schedule disabled")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ticker := time.NewTicker(interval)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						report, err := reconcile.Run(ctx, commands.ReconcileOptions{})
						if err != nil {
							logger.Error("scheduled reconciliation failed", "error", err)
							continue
						}
						if report.HasAlarms() {
							logger.Error("scheduled reconciliation raised alarms", "alarms", len(report.Alarms))
						}
					}
				}
			}()
			logger.Info("reconciliation scheduled", "interval", interval.String())
			return nil
		},
		OnStop: func(_ context.Context) error {
			cancel()
			wg.Wait()
			return nil
		},
	})
}
