package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"slot-reservation-engine/internal/domain/activity"
	"slot-reservation-engine/internal/domain/slot"
	"slot-reservation-engine/internal/pkg/config"
	"slot-reservation-engine/internal/usecase/shared"

	"golang.org/x/sync/singleflight"
)

const (
	capacityKeyPrefix = "capacity:"
	countKeyPrefix    = "count:"
	slotsKey          = "slots:all"
)

// capacityRecord is the long-lived half of an entry. Capacity rarely changes,
// the counter changes on every admission and lives under its own key.
type capacityRecord struct {
	RowID      int64  `json:"row_id"`
	ActivityID string `json:"activity_id"`
	Title      string `json:"title"`
	Capacity   int    `json:"capacity"`
}

type CapacityCache struct {
	backend     Backend
	capacityTTL time.Duration
	countTTL    time.Duration
	sf          singleflight.Group
	// bumped on every Invalidate before its deletes. A load that started before
	// the bump skips its write-back, or removes it again if the bump lands while
	// it is writing.
	generation atomic.Uint64
}

var _ shared.CapacityCache = (*CapacityCache)(nil)

func NewCapacityCache(backend Backend, cfg config.CacheConfig) *CapacityCache {
	return &CapacityCache{
		backend:     backend,
		capacityTTL: cfg.CapacityTTL,
		countTTL:    cfg.CountTTL,
	}
}

func (c *CapacityCache) Lookup(ctx context.Context, ref slot.Ref, load func(ctx context.Context) (*activity.Activity, error)) (shared.CapacityEntry, error) {
	if entry, ok := c.cachedEntry(ctx, ref); ok {
		return entry, nil
	}

	v, err, _ := c.sf.Do(capacityKeyPrefix+ref.String(), func() (interface{}, error) {
		if entry, ok := c.cachedEntry(ctx, ref); ok {
			return entry, nil
		}

		gen := c.generation.Load()
		a, err := load(ctx)
		if err != nil {
			return nil, err
		}
		entry := shared.EntryFromActivity(a)
		if gen == c.generation.Load() {
			c.store(ctx, ref, entry)
			if gen != c.generation.Load() {
				c.backend.Delete(ctx, countKeyPrefix+entry.ActivityID)
			}
		}
		return entry, nil
	})
	if err != nil {
		return shared.CapacityEntry{}, err
	}
	return v.(shared.CapacityEntry), nil
}

func (c *CapacityCache) Slots(ctx context.Context, load func(ctx context.Context) ([]shared.SlotSnapshot, error)) ([]shared.SlotSnapshot, error) {
	if snaps, ok := c.cachedSlots(ctx); ok {
		return snaps, nil
	}

	v, err, _ := c.sf.Do(slotsKey, func() (interface{}, error) {
		if snaps, ok := c.cachedSlots(ctx); ok {
			return snaps, nil
		}

		gen := c.generation.Load()
		snaps, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if gen == c.generation.Load() {
			if raw, mErr := json.Marshal(snaps); mErr == nil {
				c.backend.Set(ctx, slotsKey, string(raw), c.countTTL)
				if gen != c.generation.Load() {
					c.backend.Delete(ctx, slotsKey)
				}
			}
		}
		return snaps, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]shared.SlotSnapshot), nil
}

// Invalidate drops the counters of the given activities and the full snapshot.
// Capacity records stay: admission never changes them.
func (c *CapacityCache) Invalidate(ctx context.Context, activityIDs ...string) {
	c.generation.Add(1)

	keys := make([]string, 0, len(activityIDs)+1)
	for _, id := range activityIDs {
		keys = append(keys, countKeyPrefix+id)
	}
	keys = append(keys, slotsKey)
	c.backend.Delete(ctx, keys...)
}

func (c *CapacityCache) cachedEntry(ctx context.Context, ref slot.Ref) (shared.CapacityEntry, bool) {
	raw, ok := c.backend.Get(ctx, capacityKeyPrefix+ref.String())
	if !ok {
		return shared.CapacityEntry{}, false
	}
	var rec capacityRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		slog.Warn("dropping undecodable capacity entry", "ref", ref.String(), "error", err.Error())
		c.backend.Delete(ctx, capacityKeyPrefix+ref.String())
		return shared.CapacityEntry{}, false
	}

	rawCount, ok := c.backend.Get(ctx, countKeyPrefix+rec.ActivityID)
	if !ok {
		return shared.CapacityEntry{}, false
	}
	count, err := strconv.Atoi(rawCount)
	if err != nil {
		c.backend.Delete(ctx, countKeyPrefix+rec.ActivityID)
		return shared.CapacityEntry{}, false
	}

	return shared.CapacityEntry{
		RowID:      rec.RowID,
		ActivityID: rec.ActivityID,
		Title:      rec.Title,
		Capacity:   rec.Capacity,
		Counter:    count,
	}, true
}

func (c *CapacityCache) cachedSlots(ctx context.Context) ([]shared.SlotSnapshot, bool) {
	raw, ok := c.backend.Get(ctx, slotsKey)
	if !ok {
		return nil, false
	}
	var snaps []shared.SlotSnapshot
	if err := json.Unmarshal([]byte(raw), &snaps); err != nil {
		c.backend.Delete(ctx, slotsKey)
		return nil, false
	}
	return snaps, true
}

func (c *CapacityCache) store(ctx context.Context, ref slot.Ref, entry shared.CapacityEntry) {
	raw, err := json.Marshal(capacityRecord{
		RowID:      entry.RowID,
		ActivityID: entry.ActivityID,
		Title:      entry.Title,
		Capacity:   entry.Capacity,
	})
	if err != nil {
		return
	}

	// index under both spellings so row and text lookups share the entry
	c.backend.Set(ctx, capacityKeyPrefix+ref.String(), string(raw), c.capacityTTL)
	if entry.RowID > 0 {
		c.backend.Set(ctx, capacityKeyPrefix+slot.RowRef(entry.RowID).String(), string(raw), c.capacityTTL)
	}
	c.backend.Set(ctx, capacityKeyPrefix+slot.TextRef(entry.ActivityID).String(), string(raw), c.capacityTTL)
	c.backend.Set(ctx, countKeyPrefix+entry.ActivityID, strconv.Itoa(entry.Counter), c.countTTL)
}
