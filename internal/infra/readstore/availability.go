package readstore

import (
	"context"

	"slot-reservation-engine/internal/domain/activity"
	"slot-reservation-engine/internal/domain/reservation"
	"slot-reservation-engine/internal/domain/slot"
	"slot-reservation-engine/internal/infra"
	"slot-reservation-engine/internal/infra/db"
	"slot-reservation-engine/internal/infra/repository"
	"slot-reservation-engine/internal/usecase/shared"
)

const listSlotsWithCapacity = `SELECT
		t.activity_id, t.slot_index, t.label,
		a.row_id, a.title, a.capacity, a.participant_counter
	FROM time_slots t
	JOIN activities a ON a.activity_id = t.activity_id
	ORDER BY t.activity_id, t.slot_index`

// AvailabilityReadStore serves the display paths. Nothing here locks.
type AvailabilityReadStore struct {
	db         db.DBTX
	activities *repository.ActivityRepository
	ledger     *repository.LedgerRepository
}

func NewAvailabilityReadStore(dbtx db.DBTX) *AvailabilityReadStore {
	return &AvailabilityReadStore{
		db:         dbtx,
		activities: repository.NewActivityRepository(dbtx),
		ledger:     repository.NewLedgerRepository(dbtx),
	}
}

func (r *AvailabilityReadStore) ActivityByRef(ctx context.Context, ref slot.Ref) (*activity.Activity, error) {
	return r.activities.Resolve(ctx, ref)
}

func (r *AvailabilityReadStore) ReservationsBySubject(ctx context.Context, subject reservation.SubjectID) ([]*reservation.Record, error) {
	return r.ledger.ListBySubject(ctx, subject)
}

func (r *AvailabilityReadStore) ListSlots(ctx context.Context) ([]shared.SlotSnapshot, error) {
	rows, err := r.db.Query(ctx, listSlotsWithCapacity)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list time slots", err)
	}
	defer rows.Close()

	var result []shared.SlotSnapshot
	for rows.Next() {
		var (
			activityID, label, title string
			slotIndex                int32
			rowID                    int64
			capacity, counter        int32
		)
		if err := rows.Scan(&activityID, &slotIndex, &label, &rowID, &title, &capacity, &counter); err != nil {
			return nil, infra.WrapRepoErr("failed to scan time slot", err)
		}
		result = append(result, shared.SlotSnapshot{
			Key:           slot.ComposeKey(activityID, int(slotIndex)),
			Label:         label,
			ActivityRowID: rowID,
			Title:         title,
			Capacity:      int(capacity),
			Counter:       int(counter),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to list time slots", err)
	}
	return result, nil
}
