//go:build unit || e2e

package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// CreateTestActivity inserts an activity with time slots 1..slots and returns its row id.
func CreateTestActivity(t *testing.T, db DBLike, activityID string, capacity, slots int) int64 {
	t.Helper()
	ctx := context.Background()

	var rowID int64
	err := db.QueryRow(ctx,
		"INSERT INTO activities (activity_id, title, capacity) VALUES ($1, $2, $3) RETURNING row_id",
		activityID, "Test "+activityID, capacity).Scan(&rowID)
	require.NoError(t, err)

	for i := 1; i <= slots; i++ {
		_, err := db.Exec(ctx,
			"INSERT INTO time_slots (activity_id, slot_index, label) VALUES ($1, $2, $3)",
			activityID, i, fmt.Sprintf("slot %d", i))
		require.NoError(t, err)
	}
	return rowID
}

// InsertRawReservation writes a ledger row without touching the counter.
func InsertRawReservation(t *testing.T, db DBLike, subjectID, activityID string, slotIndex int) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := db.Exec(context.Background(),
		"INSERT INTO reservations (id, subject_id, activity_id, slot_index) VALUES ($1, $2, $3, $4)",
		id, subjectID, activityID, slotIndex)
	require.NoError(t, err)
	return id
}

func SetCounter(t *testing.T, db DBLike, activityID string, n int) {
	t.Helper()

	_, err := db.Exec(context.Background(),
		"UPDATE activities SET participant_counter = $2 WHERE activity_id = $1", activityID, n)
	require.NoError(t, err)
}

func Counter(t *testing.T, db DBLike, activityID string) int {
	t.Helper()

	var n int
	err := db.QueryRow(context.Background(),
		"SELECT participant_counter FROM activities WHERE activity_id = $1", activityID).Scan(&n)
	require.NoError(t, err)
	return n
}

func LedgerCount(t *testing.T, db DBLike, activityID string) int {
	t.Helper()

	var n int
	err := db.QueryRow(context.Background(),
		"SELECT count(*) FROM reservations WHERE activity_id = $1", activityID).Scan(&n)
	require.NoError(t, err)
	return n
}

var (
	buildTruncateOnce sync.Once
	truncateSQL       atomic.Value // string
)

// truncates all tables
func ResetDB(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	buildTruncateOnce.Do(func() {
		rows, err := pool.Query(ctx, `
		  SELECT 'public.' || quote_ident(tablename)
		  FROM pg_tables
		  WHERE schemaname = 'public'
		    AND tablename NOT IN ('schema_migrations')`)
		if err != nil {
			truncateSQL.Store("")
			return
		}
		defer rows.Close()
		var tables []string
		for rows.Next() {
			var t string
			if err := rows.Scan(&t); err != nil {
				truncateSQL.Store("")
				return
			}
			tables = append(tables, t)
		}
		if rows.Err() != nil {
			truncateSQL.Store("")
			return
		}
		if len(tables) == 0 {
			truncateSQL.Store("SELECT 1")
			return
		}
		truncateSQL.Store("TRUNCATE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE;")
	})
	sqlAny := truncateSQL.Load()
	if sqlAny == nil || sqlAny.(string) == "" {
		return fmt.Errorf("failed to build TRUNCATE SQL")
	}
	_, err := pool.Exec(ctx, sqlAny.(string))
	return err
}
