package memstore

import (
	"context"
	"sort"

	"slot-reservation-engine/internal/domain/activity"
	"slot-reservation-engine/internal/domain/reservation"
	"slot-reservation-engine/internal/domain/slot"
	"slot-reservation-engine/internal/infra"
	"slot-reservation-engine/internal/usecase/shared"
)

// memTx stages every write and applies it under the store's write lock at commit,
// so readers see either all of a transaction or none of it.
type memTx struct {
	store *Store

	held     map[string]func()
	counters map[string]int
	inserts  map[recordKey]*reservation.Record
	deletes  map[recordKey]struct{}
}

func newMemTx(s *Store) *memTx {
	return &memTx{
		store:    s,
		held:     make(map[string]func()),
		counters: make(map[string]int),
		inserts:  make(map[recordKey]*reservation.Record),
		deletes:  make(map[recordKey]struct{}),
	}
}

func (t *memTx) Activities() shared.ActivityRepository { return (*memActivities)(t) }
func (t *memTx) Ledger() shared.LedgerRepository       { return (*memLedger)(t) }

func (t *memTx) lock(ctx context.Context, key string) error {
	if _, ok := t.held[key]; ok {
		return nil
	}
	unlock, err := t.store.locks.Acquire(ctx, key, t.store.lockTimeout)
	if err != nil {
		return err
	}
	t.held[key] = unlock
	return nil
}

func (t *memTx) release() {
	for _, unlock := range t.held {
		unlock()
	}
	clear(t.held)
}

func (t *memTx) commit() {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for k := range t.deletes {
		delete(s.records, k)
	}
	for k, rec := range t.inserts {
		s.records[k] = rec
	}
	for id, n := range t.counters {
		if row, ok := s.activities[id]; ok {
			row.counter = n
		}
	}
}

// visible reports the record this transaction sees for k. Caller holds store.mu.
func (t *memTx) visible(k recordKey) (*reservation.Record, bool) {
	if rec, ok := t.inserts[k]; ok {
		return rec, true
	}
	if _, gone := t.deletes[k]; gone {
		return nil, false
	}
	rec, ok := t.store.records[k]
	return rec, ok
}

func (t *memTx) visibleWhere(match func(recordKey) bool) []*reservation.Record {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	seen := make(map[recordKey]struct{})
	var result []*reservation.Record
	for k := range t.store.records {
		if match(k) {
			seen[k] = struct{}{}
		}
	}
	for k := range t.inserts {
		if match(k) {
			seen[k] = struct{}{}
		}
	}
	for k := range seen {
		if rec, ok := t.visible(k); ok {
			result = append(result, rec)
		}
	}
	sortRecords(result)
	return result
}

func (t *memTx) counterOf(row *activityRow) int {
	if n, ok := t.counters[row.id]; ok {
		return n
	}
	return row.counter
}

type memActivities memTx

func (a *memActivities) tx() *memTx { return (*memTx)(a) }

func (a *memActivities) Resolve(_ context.Context, ref slot.Ref) (*activity.Activity, error) {
	s := a.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.lookup(ref)
	if !ok {
		return nil, infra.WrapRepoErr("activity not found: "+ref.String(), nil, infra.KindNotFound)
	}
	return activity.Reconstruct(row.rowID, row.id, row.title, row.capacity, a.tx().counterOf(row)), nil
}

func (a *memActivities) LockByIDs(ctx context.Context, ids []string) (map[string]*activity.Activity, error) {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	result := make(map[string]*activity.Activity, len(sorted))
	for _, id := range sorted {
		if _, done := result[id]; done {
			continue
		}
		a.store.mu.RLock()
		_, exists := a.store.activities[id]
		a.store.mu.RUnlock()
		if !exists {
			continue
		}

		if err := a.tx().lock(ctx, "activity:"+id); err != nil {
			return nil, err
		}

		a.store.mu.RLock()
		row := a.store.activities[id]
		result[id] = activity.Reconstruct(row.rowID, row.id, row.title, row.capacity, a.tx().counterOf(row))
		a.store.mu.RUnlock()
	}
	return result, nil
}

func (a *memActivities) HasSlot(_ context.Context, key slot.Key) (bool, error) {
	a.store.mu.RLock()
	defer a.store.mu.RUnlock()
	_, ok := a.store.slots[key]
	return ok, nil
}

func (a *memActivities) SaveCounter(_ context.Context, act *activity.Activity) error {
	a.store.mu.RLock()
	_, ok := a.store.activities[act.ID()]
	a.store.mu.RUnlock()
	if !ok {
		return infra.WrapRepoErr("activity not found: "+act.ID(), nil, infra.KindNotFound)
	}
	a.counters[act.ID()] = act.Counter()
	return nil
}

func (a *memActivities) ListIDs(_ context.Context) ([]string, error) {
	a.store.mu.RLock()
	defer a.store.mu.RUnlock()
	ids := make([]string, 0, len(a.store.activities))
	for id := range a.store.activities {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

type memLedger memTx

func (l *memLedger) tx() *memTx { return (*memTx)(l) }

func (l *memLedger) LockSubject(ctx context.Context, subject reservation.SubjectID) error {
	return l.tx().lock(ctx, "subject:"+subject.String())
}

func (l *memLedger) Insert(_ context.Context, rec *reservation.Record) error {
	k := recordKey{subject: rec.SubjectID().String(), activityID: rec.ActivityID()}

	l.store.mu.RLock()
	_, slotExists := l.store.slots[rec.Key()]
	_, taken := l.tx().visible(k)
	l.store.mu.RUnlock()

	if !slotExists {
		return infra.WrapRepoErr("time slot not found: "+rec.Key().String(), nil, infra.KindForeignKeyViolated)
	}
	if taken {
		return infra.WrapRepoErr("reservation exists for "+k.subject+" on "+k.activityID, nil, infra.KindDuplicateKey)
	}
	l.inserts[k] = rec
	return nil
}

func (l *memLedger) ListBySubject(_ context.Context, subject reservation.SubjectID) ([]*reservation.Record, error) {
	return l.tx().visibleWhere(func(k recordKey) bool { return k.subject == subject.String() }), nil
}

func (l *memLedger) DeleteBySubject(ctx context.Context, subject reservation.SubjectID) ([]*reservation.Record, error) {
	recs, _ := l.ListBySubject(ctx, subject)
	for _, rec := range recs {
		l.remove(recordKey{subject: subject.String(), activityID: rec.ActivityID()})
	}
	return recs, nil
}

func (l *memLedger) Delete(_ context.Context, subject reservation.SubjectID, activityID string) (*reservation.Record, error) {
	k := recordKey{subject: subject.String(), activityID: activityID}

	l.store.mu.RLock()
	rec, ok := l.tx().visible(k)
	l.store.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	l.remove(k)
	return rec, nil
}

func (l *memLedger) remove(k recordKey) {
	if _, staged := l.inserts[k]; staged {
		delete(l.inserts, k)
	}
	l.deletes[k] = struct{}{}
}

func (l *memLedger) CountByActivity(_ context.Context, activityID string) (int, error) {
	recs := l.tx().visibleWhere(func(k recordKey) bool { return k.activityID == activityID })
	return len(recs), nil
}
