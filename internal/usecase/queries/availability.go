package queries

//go:generate mockgen -source=availability.go -destination=../../../tests/mock/queries/mock_availability.go -package=queriesmock

import (
	"context"
	"strconv"
	"time"

	"slot-reservation-engine/internal/domain/activity"
	"slot-reservation-engine/internal/domain/reservation"
	"slot-reservation-engine/internal/domain/slot"
	"slot-reservation-engine/internal/infra"
	"slot-reservation-engine/internal/pkg/errs"
	"slot-reservation-engine/internal/usecase/shared"

	"github.com/google/uuid"
)

// Read models (DTO for read side)
type AvailabilityView struct {
	ActivityRowID int64  `json:"activity_row_id"`
	ActivityID    string `json:"activity_id"`
	Title         string `json:"title"`
	Capacity      int    `json:"capacity"`
	Reserved      int    `json:"reserved"`
	Available     int    `json:"available"`
}

type SlotAvailabilityView struct {
	ActivityID string `json:"activity_id"`
	SlotIndex  int    `json:"slot_index"`
	TimeSlotID string `json:"time_slot_id"`
	Label      string `json:"label"`
	Title      string `json:"title"`
	Capacity   int    `json:"capacity"`
	Reserved   int    `json:"reserved"`
	Available  int    `json:"available"`
}

type SubjectReservationView struct {
	ID         uuid.UUID `json:"id"`
	SubjectID  string    `json:"subject_id"`
	ActivityID string    `json:"activity_id"`
	SlotIndex  int       `json:"slot_index"`
	TimeSlotID string    `json:"time_slot_id"`
	Attachment *string   `json:"attachment_ref,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// AvailabilityQueries serve display paths. Results may lag a committed booking by
// at most the cache's count TTL; admission never relies on them.
type AvailabilityQueries interface {
	GetAvailability(ctx context.Context, activityKey string) (*AvailabilityView, error)
	GetAllAvailability(ctx context.Context) (map[slot.Key]int, error)
	ListAvailability(ctx context.Context) ([]SlotAvailabilityView, error)
	ListSubjectReservations(ctx context.Context, subjectID string) ([]SubjectReservationView, error)
}

type availabilityQueriesImpl struct {
	uow   shared.UnitOfWork
	cache shared.CapacityCache
	codec slot.Codec
}

func NewAvailabilityQueries(uow shared.UnitOfWork, cache shared.CapacityCache, codec slot.Codec) AvailabilityQueries {
	return &availabilityQueriesImpl{uow: uow, cache: cache, codec: codec}
}

func (q *availabilityQueriesImpl) GetAvailability(ctx context.Context, activityKey string) (*AvailabilityView, error) {
	ref, err := q.codec.ParseRef(activityKey)
	if err != nil {
		return nil, err
	}

	entry, err := q.cache.Lookup(ctx, ref, func(ctx context.Context) (*activity.Activity, error) {
		return q.loadActivity(ctx, ref)
	})
	if err != nil {
		return nil, err
	}

	return &AvailabilityView{
		ActivityRowID: entry.RowID,
		ActivityID:    entry.ActivityID,
		Title:         entry.Title,
		Capacity:      entry.Capacity,
		Reserved:      entry.Counter,
		Available:     entry.Remaining(),
	}, nil
}

// loadActivity applies the same variant policy as admission: a row that is a
// folded variant answers with its base activity.
func (q *availabilityQueriesImpl) loadActivity(ctx context.Context, ref slot.Ref) (*activity.Activity, error) {
	reads := q.uow.Reads()
	a, err := reads.ActivityByRef(ctx, ref)
	if err != nil {
		return nil, translateNotFound(err)
	}
	if canonical := q.codec.Canonicalize(a.ID()); canonical != a.ID() {
		a, err = reads.ActivityByRef(ctx, slot.TextRef(canonical))
		if err != nil {
			return nil, translateNotFound(err)
		}
	}
	return a, nil
}

func (q *availabilityQueriesImpl) GetAllAvailability(ctx context.Context) (map[slot.Key]int, error) {
	views, err := q.ListAvailability(ctx)
	if err != nil {
		return nil, err
	}
	result := make(map[slot.Key]int, len(views))
	for _, v := range views {
		result[slot.ComposeKey(v.ActivityID, v.SlotIndex)] = v.Available
	}
	return result, nil
}

// ListAvailability lists only slots admission would accept. When variants are
// folded, a variant slot is shown under its base activity and only if the base has
// a time slot with the same index; variants whose base has no row are left out.
func (q *availabilityQueriesImpl) ListAvailability(ctx context.Context) ([]SlotAvailabilityView, error) {
	snaps, err := q.cache.Slots(ctx, q.uow.Reads().ListSlots)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]shared.SlotSnapshot, len(snaps))
	bookable := make(map[slot.Key]string, len(snaps))
	for _, s := range snaps {
		if _, ok := byID[s.Key.ActivityID]; !ok {
			byID[s.Key.ActivityID] = s
		}
		bookable[s.Key] = s.Label
	}

	seen := make(map[slot.Key]struct{}, len(snaps))
	views := make([]SlotAvailabilityView, 0, len(snaps))
	for _, s := range snaps {
		if limit := q.codec.MaxSlotIndex(); limit > 0 && s.Key.SlotIndex > limit {
			continue
		}
		owner, ok := byID[q.codec.Canonicalize(s.Key.ActivityID)]
		if !ok {
			continue
		}
		key := slot.ComposeKey(owner.Key.ActivityID, s.Key.SlotIndex)
		label, ok := bookable[key]
		if !ok {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		views = append(views, SlotAvailabilityView{
			ActivityID: key.ActivityID,
			SlotIndex:  key.SlotIndex,
			TimeSlotID: timeSlotID(key),
			Label:      label,
			Title:      owner.Title,
			Capacity:   owner.Capacity,
			Reserved:   owner.Counter,
			Available:  activity.Remaining(owner.Capacity, owner.Counter),
		})
	}
	return views, nil
}

func (q *availabilityQueriesImpl) ListSubjectReservations(ctx context.Context, subjectID string) ([]SubjectReservationView, error) {
	subject, err := reservation.NewSubjectID(subjectID)
	if err != nil {
		return nil, err
	}
	recs, err := q.uow.Reads().ReservationsBySubject(ctx, subject)
	if err != nil {
		return nil, err
	}

	views := make([]SubjectReservationView, 0, len(recs))
	for _, r := range recs {
		views = append(views, SubjectReservationView{
			ID:         r.ID(),
			SubjectID:  r.SubjectID().String(),
			ActivityID: r.ActivityID(),
			SlotIndex:  r.SlotIndex(),
			TimeSlotID: timeSlotID(r.Key()),
			Attachment: r.Attachment().Ptr(),
			CreatedAt:  r.CreatedAt(),
		})
	}
	return views, nil
}

func timeSlotID(k slot.Key) string {
	return k.ActivityID + "-" + strconv.Itoa(k.SlotIndex)
}

func translateNotFound(err error) error {
	if infra.IsKind(err, infra.KindNotFound) {
		return errs.Mark(err, errs.ErrSlotNotFound)
	}
	return err
}
