package memstore

import (
	"context"
	"sync"
	"time"

	"slot-reservation-engine/internal/infra"
	"slot-reservation-engine/internal/pkg/errs"
)

var errLockTimeout = errs.New("lock wait timed out")

// keyedMutex hands out one single-slot channel per key. Entries are reference
// counted and dropped when nobody holds or waits on them.
type keyedMutex struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	sem  chan struct{}
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{entries: make(map[string]*lockEntry)}
}

// Acquire blocks until key is free, timeout elapses, or ctx is done.
// A timeout is reported as a retryable KindLockTimeout repository error.
func (m *keyedMutex) Acquire(ctx context.Context, key string, timeout time.Duration) (func(), error) {
	m.mu.Lock()
	ent, ok := m.entries[key]
	if !ok {
		ent = &lockEntry{sem: make(chan struct{}, 1)}
		m.entries[key] = ent
	}
	ent.refs++
	m.mu.Unlock()

	var expired <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expired = t.C
	}

	select {
	case ent.sem <- struct{}{}:
		return func() { m.release(key, ent) }, nil
	case <-expired:
		m.drop(key, ent)
		return nil, infra.WrapRepoErr("lock "+key, errLockTimeout, infra.KindLockTimeout)
	case <-ctx.Done():
		m.drop(key, ent)
		return nil, ctx.Err()
	}
}

func (m *keyedMutex) release(key string, ent *lockEntry) {
	<-ent.sem
	m.drop(key, ent)
}

func (m *keyedMutex) drop(key string, ent *lockEntry) {
	m.mu.Lock()
	ent.refs--
	if ent.refs == 0 {
		delete(m.entries, key)
	}
	m.mu.Unlock()
}

func (m *keyedMutex) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
