//go:build unit || e2e

package dbtest

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// DBLike is met by *pgxpool.Pool and pgx.Tx, so fixtures can also run inside a
// transaction a test keeps open.
type DBLike interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var (
	_ DBLike = (*pgxpool.Pool)(nil)
	_ DBLike = (pgx.Tx)(nil)
)

// HoldActivityLock takes the same row lock admission takes on activityID and keeps
// it until the returned release runs or the test ends.
func HoldActivityLock(t *testing.T, pool *pgxpool.Pool, activityID string) (release func()) {
	t.Helper()
	ctx := context.Background()

	tx, err := pool.Begin(ctx)
	require.NoError(t, err)
	release = func() { _ = tx.Rollback(ctx) }
	t.Cleanup(release)

	var locked string
	err = tx.QueryRow(ctx,
		"SELECT activity_id FROM activities WHERE activity_id = $1 FOR UPDATE", activityID).Scan(&locked)
	require.NoError(t, err)
	return release
}
