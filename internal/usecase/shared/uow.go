package shared

import (
	"context"

	"slot-reservation-engine/internal/domain/activity"
	"slot-reservation-engine/internal/domain/reservation"
	"slot-reservation-engine/internal/domain/slot"
)

type UnitOfWork interface {
	// Within: one transaction for writes. Any error returned by fn rolls back;
	// retryable contention is retried and finally surfaces as errs.ErrTransactionAborted.
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// Reads: non-locking access for availability display paths
	Reads() ReadStore
}

type Tx interface {
	Activities() ActivityRepository
	Ledger() LedgerRepository
}

type ActivityRepository interface {
	// Resolve finds an activity by row id or textual id without locking it.
	Resolve(ctx context.Context, ref slot.Ref) (*activity.Activity, error)
	// LockByIDs locks the given activities in ascending id order and returns them by id.
	// Ids that do not exist are absent from the result.
	LockByIDs(ctx context.Context, ids []string) (map[string]*activity.Activity, error)
	HasSlot(ctx context.Context, key slot.Key) (bool, error)
	SaveCounter(ctx context.Context, a *activity.Activity) error
	ListIDs(ctx context.Context) ([]string, error)
}

type LedgerRepository interface {
	// LockSubject serializes concurrent writers for one subject until the transaction ends.
	LockSubject(ctx context.Context, subject reservation.SubjectID) error
	Insert(ctx context.Context, rec *reservation.Record) error
	ListBySubject(ctx context.Context, subject reservation.SubjectID) ([]*reservation.Record, error)
	DeleteBySubject(ctx context.Context, subject reservation.SubjectID) ([]*reservation.Record, error)
	// Delete removes the subject's record on activityID and returns it, or nil if there was none.
	Delete(ctx context.Context, subject reservation.SubjectID, activityID string) (*reservation.Record, error)
	CountByActivity(ctx context.Context, activityID string) (int, error)
}

type ReadStore interface {
	ActivityByRef(ctx context.Context, ref slot.Ref) (*activity.Activity, error)
	ListSlots(ctx context.Context) ([]SlotSnapshot, error)
	ReservationsBySubject(ctx context.Context, subject reservation.SubjectID) ([]*reservation.Record, error)
}

// SlotSnapshot is one time slot joined with its activity's capacity and counter.
type SlotSnapshot struct {
	Key           slot.Key
	Label         string
	ActivityRowID int64
	Title         string
	Capacity      int
	Counter       int
}
