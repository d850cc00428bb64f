package commands

//go:generate mockgen -source=reconcile.go -destination=../../../tests/mock/commands/mock_reconcile.go -package=commandsmock

import (
	"context"
	"log/slog"
	"time"

	"slot-reservation-engine/internal/pkg/clock"
	"slot-reservation-engine/internal/pkg/config"
	"slot-reservation-engine/internal/pkg/errs"
	"slot-reservation-engine/internal/usecase/shared"

	"golang.org/x/time/rate"
)

type ReconcileOptions struct {
	// DryRun reports drift without writing corrected counters.
	DryRun bool
}

type ActivityDrift struct {
	ActivityID string `json:"activity_id"`
	Before     int    `json:"before"`
	After      int    `json:"after"`
	Capacity   int    `json:"capacity"`
}

// ConsistencyAlarm: the ledger holds more records than the activity's capacity.
// It is reported, never corrected.
type ConsistencyAlarm struct {
	ActivityID string `json:"activity_id"`
	Counter    int    `json:"counter"`
	Capacity   int    `json:"capacity"`
}

type ReconcileReport struct {
	DryRun     bool               `json:"dry_run"`
	Checked    int                `json:"checked"`
	Corrected  int                `json:"corrected"`
	Failed     int                `json:"failed"`
	Drifts     []ActivityDrift    `json:"drifts"`
	Alarms     []ConsistencyAlarm `json:"alarms"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
}

// HasAlarms is true when at least one activity is over capacity.
func (r *ReconcileReport) HasAlarms() bool {
	return len(r.Alarms) > 0
}

type ReconcileCommands interface {
	Run(ctx context.Context, opts ReconcileOptions) (*ReconcileReport, error)
}

type reconcileUseCaseImpl struct {
	uow     shared.UnitOfWork
	cache   shared.CapacityCache
	clock   clock.Clock
	limiter *rate.Limiter
}

func NewReconcileUseCase(uow shared.UnitOfWork, cache shared.CapacityCache, clock clock.Clock, cfg config.ReconcileConfig) ReconcileCommands {
	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &reconcileUseCaseImpl{
		uow:     uow,
		cache:   cache,
		clock:   clock,
		limiter: rate.NewLimiter(limit, burst),
	}
}

func (u *reconcileUseCaseImpl) Run(ctx context.Context, opts ReconcileOptions) (*ReconcileReport, error) {
	report := &ReconcileReport{
		DryRun:    opts.DryRun,
		StartedAt: u.clock.Now(),
		Drifts:    []ActivityDrift{},
		Alarms:    []ConsistencyAlarm{},
	}

	var ids []string
	err := u.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		var err error
		ids, err = tx.Activities().ListIDs(ctx)
		return err
	})
	if err != nil {
		return nil, errs.Wrap(err, "list activities for reconciliation")
	}

	var corrected []string
	for _, id := range ids {
		if err := u.limiter.Wait(ctx); err != nil {
			return nil, errs.Wrap(err, "reconciliation interrupted")
		}

		drift, alarm, err := u.reconcileOne(ctx, id, opts.DryRun)
		if err != nil {
			// one broken activity must not stop the rest
			slog.Error("reconcile activity failed", "activity_id", id, "error", err.Error())
			report.Failed++
			continue
		}
		report.Checked++

		if drift != nil {
			report.Drifts = append(report.Drifts, *drift)
			if !opts.DryRun {
				report.Corrected++
				corrected = append(corrected, id)
			}
			slog.Warn("participant counter drift",
				"activity_id", drift.ActivityID,
				"before", drift.Before,
				"after", drift.After,
				"dry_run", opts.DryRun,
			)
		}
		if alarm != nil {
			report.Alarms = append(report.Alarms, *alarm)
			slog.Error("consistency alarm: activity over capacity",
				"activity_id", alarm.ActivityID,
				"counter", alarm.Counter,
				"capacity", alarm.Capacity,
				"error", errs.ErrConsistencyAlarm.Error(),
			)
		}
	}

	if len(corrected) > 0 {
		u.cache.Invalidate(ctx, corrected...)
	}

	report.FinishedAt = u.clock.Now()
	slog.Info("reconciliation finished",
		"checked", report.Checked,
		"corrected", report.Corrected,
		"alarms", len(report.Alarms),
		"failed", report.Failed,
		"dry_run", opts.DryRun,
	)
	return report, nil
}

// reconcileOne holds the activity's admission lock while counting, so live
// bookings on it wait instead of racing the recount.
func (u *reconcileUseCaseImpl) reconcileOne(ctx context.Context, id string, dryRun bool) (*ActivityDrift, *ConsistencyAlarm, error) {
	var (
		drift *ActivityDrift
		alarm *ConsistencyAlarm
	)
	err := u.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		drift, alarm = nil, nil

		locked, err := tx.Activities().LockByIDs(ctx, []string{id})
		if err != nil {
			return err
		}
		a, ok := locked[id]
		if !ok {
			// deleted since listing
			return nil
		}

		trueCount, err := tx.Ledger().CountByActivity(ctx, id)
		if err != nil {
			return err
		}

		before := a.Counter()
		if before != trueCount {
			drift = &ActivityDrift{ActivityID: id, Before: before, After: trueCount, Capacity: a.Capacity()}
			if err := a.SetCounter(trueCount); err != nil {
				return err
			}
			if !dryRun {
				if err := tx.Activities().SaveCounter(ctx, a); err != nil {
					return err
				}
			}
		}

		if a.Overbooked() {
			alarm = &ConsistencyAlarm{ActivityID: id, Counter: a.Counter(), Capacity: a.Capacity()}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return drift, alarm, nil
}
