package shared

import (
	"context"

	"slot-reservation-engine/internal/domain/activity"
	"slot-reservation-engine/internal/domain/slot"
)

// CapacityEntry is what the read paths need to compute availability.
type CapacityEntry struct {
	RowID      int64
	ActivityID string
	Title      string
	Capacity   int
	Counter    int
}

func (e CapacityEntry) Remaining() int {
	return activity.Remaining(e.Capacity, e.Counter)
}

func EntryFromActivity(a *activity.Activity) CapacityEntry {
	return CapacityEntry{
		RowID:      a.RowID(),
		ActivityID: a.ID(),
		Title:      a.Title(),
		Capacity:   a.Capacity(),
		Counter:    a.Counter(),
	}
}

// CapacityCache is advisory: read-through on the display paths, invalidated after
// every committed write. Admission never reads it.
type CapacityCache interface {
	Lookup(ctx context.Context, ref slot.Ref, load func(ctx context.Context) (*activity.Activity, error)) (CapacityEntry, error)
	Slots(ctx context.Context, load func(ctx context.Context) ([]SlotSnapshot, error)) ([]SlotSnapshot, error)
	Invalidate(ctx context.Context, activityIDs ...string)
}
