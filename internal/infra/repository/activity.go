package repository

import (
	"context"

	"slot-reservation-engine/internal/domain/activity"
	"slot-reservation-engine/internal/domain/slot"
	"slot-reservation-engine/internal/infra"
	"slot-reservation-engine/internal/infra/db"
	"slot-reservation-engine/internal/pkg/pgconv"

	"github.com/jackc/pgx/v5"
)

const (
	activityColumns = `row_id, activity_id, title, capacity, participant_counter`

	selectActivityByRowID = `SELECT ` + activityColumns + ` FROM activities WHERE row_id = $1`
	selectActivityByID    = `SELECT ` + activityColumns + ` FROM activities WHERE activity_id = $1`

	// ORDER BY under FOR UPDATE locks rows in sort order, so every writer
	// acquires overlapping activity locks in the same sequence.
	lockActivitiesByIDs = `SELECT ` + activityColumns + ` FROM activities
		WHERE activity_id = ANY($1)
		ORDER BY activity_id
		FOR UPDATE`

	selectSlotExists = `SELECT EXISTS (
		SELECT 1 FROM time_slots WHERE activity_id = $1 AND slot_index = $2
	)`

	updateActivityCounter = `UPDATE activities
		SET participant_counter = $2, updated_at = now()
		WHERE activity_id = $1`

	listActivityIDs = `SELECT activity_id FROM activities ORDER BY activity_id`
)

type ActivityRepository struct {
	db db.DBTX
}

func NewActivityRepository(dbtx db.DBTX) *ActivityRepository {
	return &ActivityRepository{db: dbtx}
}

func (r *ActivityRepository) Resolve(ctx context.Context, ref slot.Ref) (*activity.Activity, error) {
	var row pgx.Row
	if ref.IsRow() {
		row = r.db.QueryRow(ctx, selectActivityByRowID, ref.RowID)
	} else {
		row = r.db.QueryRow(ctx, selectActivityByID, ref.ActivityID)
	}

	a, err := scanActivity(row)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("activity not found: "+ref.String(), err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to resolve activity", err)
	}
	return a, nil
}

func (r *ActivityRepository) LockByIDs(ctx context.Context, ids []string) (map[string]*activity.Activity, error) {
	result := make(map[string]*activity.Activity, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := r.db.Query(ctx, lockActivitiesByIDs, ids)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to lock activities", err)
	}
	defer rows.Close()

	for rows.Next() {
		a, scanErr := scanActivity(rows)
		if scanErr != nil {
			return nil, infra.WrapRepoErr("failed to scan locked activity", scanErr)
		}
		result[a.ID()] = a
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to lock activities", err)
	}
	return result, nil
}

func (r *ActivityRepository) HasSlot(ctx context.Context, key slot.Key) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, selectSlotExists, key.ActivityID, key.SlotIndex).Scan(&exists); err != nil {
		return false, infra.WrapRepoErr("failed to check time slot", err)
	}
	return exists, nil
}

func (r *ActivityRepository) SaveCounter(ctx context.Context, a *activity.Activity) error {
	tag, err := r.db.Exec(ctx, updateActivityCounter, a.ID(), a.Counter())
	if err != nil {
		return infra.WrapRepoErr("failed to update participant counter", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("activity not found: "+a.ID(), nil, infra.KindNotFound)
	}
	return nil
}

func (r *ActivityRepository) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, listActivityIDs)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list activities", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list activities", err)
	}
	return ids, nil
}

func scanActivity(row pgx.Row) (*activity.Activity, error) {
	var (
		rowID             int64
		id, title         string
		capacity, counter int32
	)
	if err := row.Scan(&rowID, &id, &title, &capacity, &counter); err != nil {
		return nil, err
	}
	return activity.Reconstruct(rowID, id, title, int(capacity), int(counter)), nil
}
