package uow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"slot-reservation-engine/internal/infra"
	"slot-reservation-engine/internal/infra/db"
	"slot-reservation-engine/internal/infra/readstore"
	"slot-reservation-engine/internal/infra/repository"
	"slot-reservation-engine/internal/pkg/config"
	"slot-reservation-engine/internal/pkg/errs"
	"slot-reservation-engine/internal/usecase/shared"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var errTransactionBegin = errs.New("failed to begin transaction")

type PostgresUoW struct {
	pool        *pgxpool.Pool
	policy      shared.RetryPolicy
	lockTimeout time.Duration
	reads       *readstore.AvailabilityReadStore
}

func NewPostgresUoW(pool *pgxpool.Pool, cfg config.Config) *PostgresUoW {
	return &PostgresUoW{
		pool: pool,
		policy: shared.RetryPolicy{
			MaxRetries: cfg.Admission.MaxRetries,
			Base:       cfg.Admission.RetryBase,
		},
		lockTimeout: cfg.Admission.LockTimeout,
		reads:       readstore.NewAvailabilityReadStore(pool),
	}
}

// ReadCommitted is enough: every decision is made on rows locked FOR UPDATE.
func (u *PostgresUoW) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	return shared.RunWithRetry(ctx, u.policy, infra.IsRetryable, func(ctx context.Context) error {
		return u.runInTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, fn)
	})
}

func (u *PostgresUoW) Reads() shared.ReadStore {
	return u.reads
}

// One BeginTx per attempt; the deferred rollback is a no-op after commit.
func (u *PostgresUoW) runInTx(ctx context.Context, options pgx.TxOptions, fn func(ctx context.Context, tx shared.Tx) error) error {
	pgxTx, err := u.pool.BeginTx(ctx, options)
	if err != nil {
		return errs.Mark(err, errTransactionBegin)
	}

	defer func() {
		if rollbackErr := pgxTx.Rollback(ctx); rollbackErr != nil {
			if !errors.Is(rollbackErr, pgx.ErrTxClosed) {
				slog.Warn("rollback failed", "error", rollbackErr.Error())
			}
		}
	}()

	if u.lockTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", u.lockTimeout.Milliseconds())
		if _, err := pgxTx.Exec(ctx, stmt); err != nil {
			return infra.WrapRepoErr("failed to set lock timeout", err)
		}
	}

	if err := fn(ctx, newPgTx(pgxTx)); err != nil {
		return err
	}

	if err := pgxTx.Commit(ctx); err != nil {
		return infra.WrapRepoErr("failed to commit transaction", err)
	}
	return nil
}

type pgTx struct {
	dbtx db.DBTX

	// Lazy-initialized repositories
	activities shared.ActivityRepository
	ledger     shared.LedgerRepository
}

func newPgTx(dbtx db.DBTX) *pgTx {
	return &pgTx{dbtx: dbtx}
}

func (t *pgTx) Activities() shared.ActivityRepository {
	if t.activities == nil {
		t.activities = repository.NewActivityRepository(t.dbtx)
	}
	return t.activities
}

func (t *pgTx) Ledger() shared.LedgerRepository {
	if t.ledger == nil {
		t.ledger = repository.NewLedgerRepository(t.dbtx)
	}
	return t.ledger
}
