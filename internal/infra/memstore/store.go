// Package memstore is an in-process implementation of the unit of work. It backs the
// use case tests and STORE_BACKEND=memory, with the same locking contract as the
// postgres store: subject lock, then activity locks in ascending id order.
package memstore

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"slot-reservation-engine/internal/domain/activity"
	"slot-reservation-engine/internal/domain/reservation"
	"slot-reservation-engine/internal/domain/slot"
	"slot-reservation-engine/internal/infra"
	"slot-reservation-engine/internal/pkg/errs"
	"slot-reservation-engine/internal/usecase/shared"
)

type activityRow struct {
	rowID    int64
	id       string
	title    string
	capacity int
	counter  int
}

func (r *activityRow) toDomain() *activity.Activity {
	return activity.Reconstruct(r.rowID, r.id, r.title, r.capacity, r.counter)
}

type recordKey struct {
	subject    string
	activityID string
}

type Store struct {
	mu         sync.RWMutex
	nextRow    int64
	activities map[string]*activityRow
	byRow      map[int64]string
	slots      map[slot.Key]string
	records    map[recordKey]*reservation.Record

	locks       *keyedMutex
	lockTimeout time.Duration
	policy      shared.RetryPolicy
}

type Option func(*Store)

func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) { s.lockTimeout = d }
}

func WithRetryPolicy(p shared.RetryPolicy) Option {
	return func(s *Store) { s.policy = p }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		activities:  make(map[string]*activityRow),
		byRow:       make(map[int64]string),
		slots:       make(map[slot.Key]string),
		records:     make(map[recordKey]*reservation.Record),
		locks:       newKeyedMutex(),
		lockTimeout: 2 * time.Second,
		policy:      shared.DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddActivity registers an activity with time slots 1..slotCount and returns its row id.
// Activities are administered outside the engine; this is the seeding entry point.
func (s *Store) AddActivity(id, title string, capacity, slotCount int) (int64, error) {
	a, err := activity.New(id, title, capacity)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.activities[a.ID()]; exists {
		return 0, infra.WrapRepoErr("activity exists: "+a.ID(), nil, infra.KindDuplicateKey)
	}
	s.nextRow++
	s.activities[a.ID()] = &activityRow{rowID: s.nextRow, id: a.ID(), title: a.Title(), capacity: a.Capacity()}
	s.byRow[s.nextRow] = a.ID()
	for i := 1; i <= slotCount; i++ {
		s.slots[slot.ComposeKey(a.ID(), i)] = ""
	}
	return s.nextRow, nil
}

func (s *Store) AddTimeSlot(key slot.Key, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.activities[key.ActivityID]; !ok {
		return infra.WrapRepoErr("activity not found: "+key.ActivityID, nil, infra.KindForeignKeyViolated)
	}
	s.slots[key] = label
	return nil
}

// SetCounter overwrites a counter out of band, bypassing every lock.
func (s *Store) SetCounter(activityID string, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.activities[activityID]
	if !ok {
		return infra.WrapRepoErr("activity not found: "+activityID, nil, infra.KindNotFound)
	}
	row.counter = n
	return nil
}

func (s *Store) Counter(activityID string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.activities[activityID]
	if !ok {
		return 0, false
	}
	return row.counter, true
}

func (s *Store) LedgerCount(activityID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for k := range s.records {
		if k.activityID == activityID {
			n++
		}
	}
	return n
}

// Seed parses "id:capacity:slots[:title],..." as used by STORE_SEED.
func (s *Store) Seed(spec string) error {
	for _, item := range strings.Split(spec, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		parts := strings.SplitN(item, ":", 4)
		if len(parts) < 3 {
			return errs.Newf("invalid seed entry %q", item)
		}
		capacity, err := strconv.Atoi(parts[1])
		if err != nil {
			return errs.Wrapf(err, "invalid capacity in seed entry %q", item)
		}
		slots, err := strconv.Atoi(parts[2])
		if err != nil {
			return errs.Wrapf(err, "invalid slot count in seed entry %q", item)
		}
		title := parts[0]
		if len(parts) == 4 {
			title = parts[3]
		}
		if _, err := s.AddActivity(parts[0], title, capacity, slots); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	return shared.RunWithRetry(ctx, s.policy, infra.IsRetryable, func(ctx context.Context) error {
		tx := newMemTx(s)
		defer tx.release()

		if err := fn(ctx, tx); err != nil {
			return err
		}
		tx.commit()
		return nil
	})
}

func (s *Store) Reads() shared.ReadStore {
	return &memReads{store: s}
}

func (s *Store) lookup(ref slot.Ref) (*activityRow, bool) {
	id := ref.ActivityID
	if ref.IsRow() {
		var ok bool
		if id, ok = s.byRow[ref.RowID]; !ok {
			return nil, false
		}
	}
	row, ok := s.activities[id]
	return row, ok
}

type memReads struct {
	store *Store
}

func (r *memReads) ActivityByRef(_ context.Context, ref slot.Ref) (*activity.Activity, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	row, ok := r.store.lookup(ref)
	if !ok {
		return nil, infra.WrapRepoErr("activity not found: "+ref.String(), nil, infra.KindNotFound)
	}
	return row.toDomain(), nil
}

func (r *memReads) ListSlots(_ context.Context) ([]shared.SlotSnapshot, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make([]shared.SlotSnapshot, 0, len(r.store.slots))
	for key, label := range r.store.slots {
		row := r.store.activities[key.ActivityID]
		result = append(result, shared.SlotSnapshot{
			Key:           key,
			Label:         label,
			ActivityRowID: row.rowID,
			Title:         row.title,
			Capacity:      row.capacity,
			Counter:       row.counter,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Key.ActivityID != result[j].Key.ActivityID {
			return result[i].Key.ActivityID < result[j].Key.ActivityID
		}
		return result[i].Key.SlotIndex < result[j].Key.SlotIndex
	})
	return result, nil
}

func (r *memReads) ReservationsBySubject(_ context.Context, subject reservation.SubjectID) ([]*reservation.Record, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var result []*reservation.Record
	for k, rec := range r.store.records {
		if k.subject == subject.String() {
			result = append(result, rec)
		}
	}
	sortRecords(result)
	return result, nil
}

func sortRecords(recs []*reservation.Record) {
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].CreatedAt().Equal(recs[j].CreatedAt()) {
			return recs[i].CreatedAt().Before(recs[j].CreatedAt())
		}
		return recs[i].ActivityID() < recs[j].ActivityID()
	})
}
