package components

import (
	"fmt"
	"log/slog"

	"slot-reservation-engine/internal/infra/memstore"
	"slot-reservation-engine/internal/infra/uow"
	"slot-reservation-engine/internal/pkg/config"
	"slot-reservation-engine/internal/usecase/shared"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var PersistenceModule = fx.Module("persistence",
	fx.Provide(
		NewUnitOfWork,
	),
)

func NewUnitOfWork(pool *pgxpool.Pool, cfg config.Config, logger *slog.Logger) (shared.UnitOfWork, error) {
	switch cfg.Store.Backend {
	case config.StorePostgres:
		return uow.NewPostgresUoW(pool, cfg), nil
	case config.StoreMemory:
		store := memstore.NewStore(
			memstore.WithLockTimeout(cfg.Admission.LockTimeout),
			memstore.WithRetryPolicy(shared.RetryPolicy{
				MaxRetries: cfg.Admission.MaxRetries,
				Base:       cfg.Admission.RetryBase,
			}),
		)
		if err := store.Seed(cfg.Store.Seed); err != nil {
			return nil, fmt.Errorf("failed to seed memory store: %w", err)
		}
		logger.Warn("using in-memory store, reservations are lost on restart")
		return store, nil
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.Store.Backend)
	}
}
