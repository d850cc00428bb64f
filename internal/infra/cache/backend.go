package cache

import (
	"context"
	"sync"
	"time"

	"slot-reservation-engine/internal/pkg/clock"
)

// Backend stores string values with a per-entry TTL. Misses and backend failures
// look the same to callers: the cache is advisory.
type Backend interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration)
	Delete(ctx context.Context, keys ...string)
	Close() error
}

type MemoryBackend struct {
	mu           sync.Mutex
	entries      map[string]memoryEntry
	clock        clock.Clock
	cleanupEvery time.Duration
	stop         chan struct{}
	stopOnce     sync.Once
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

type MemoryOption func(*MemoryBackend)

func WithClock(c clock.Clock) MemoryOption {
	return func(b *MemoryBackend) { b.clock = c }
}

func WithCleanupEvery(d time.Duration) MemoryOption {
	return func(b *MemoryBackend) { b.cleanupEvery = d }
}

func NewMemoryBackend(opts ...MemoryOption) *MemoryBackend {
	b := &MemoryBackend{
		entries:      make(map[string]memoryEntry),
		clock:        clock.NewRealClock(),
		cleanupEvery: time.Minute,
		stop:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *MemoryBackend) Get(_ context.Context, key string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ent, ok := b.entries[key]
	if !ok {
		return "", false
	}
	if !b.clock.Now().Before(ent.expiresAt) {
		delete(b.entries, key)
		return "", false
	}
	return ent.value, true
}

func (b *MemoryBackend) Set(_ context.Context, key, value string, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	b.mu.Lock()
	b.entries[key] = memoryEntry{value: value, expiresAt: b.clock.Now().Add(ttl)}
	b.mu.Unlock()
}

func (b *MemoryBackend) Delete(_ context.Context, keys ...string) {
	b.mu.Lock()
	for _, k := range keys {
		delete(b.entries, k)
	}
	b.mu.Unlock()
}

// Flush drops every entry.
func (b *MemoryBackend) Flush() {
	b.mu.Lock()
	clear(b.entries)
	b.mu.Unlock()
}

func (b *MemoryBackend) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

func (b *MemoryBackend) Cleanup() {
	now := b.clock.Now()

	b.mu.Lock()
	defer b.mu.Unlock()

	for k, ent := range b.entries {
		if !now.Before(ent.expiresAt) {
			delete(b.entries, k)
		}
	}
}

// StartJanitor drops expired entries periodically until Close is called.
func (b *MemoryBackend) StartJanitor() {
	if b.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(b.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-b.stop:
				return
			case <-t.C:
				b.Cleanup()
			}
		}
	}()
}

func (b *MemoryBackend) Close() error {
	b.stopOnce.Do(func() { close(b.stop) })
	return nil
}
