// Package cache holds the single shared snapshot slot.
package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"coinoracle/internal/metrics"
	"coinoracle/internal/snapshot"
)

// Refresher runs one full aggregation cycle.
type Refresher interface {
	Aggregate(ctx context.Context) *snapshot.Snapshot
}

// SnapshotCache amortizes client requests into at most one upstream fan-out
// per TTL window. Concurrent requests during a refresh share the in-flight
// cycle instead of amplifying load on rate-limited upstreams.
type SnapshotCache struct {
	refresher Refresher
	ttl       time.Duration
	metrics   *metrics.Metrics

	mu        sync.RWMutex
	snap      *snapshot.Snapshot
	refreshed time.Time

	group singleflight.Group
	// now is swapped out by tests.
	now func() time.Time
}

func New(refresher Refresher, ttl time.Duration, m *metrics.Metrics) *SnapshotCache {
	return &SnapshotCache{
		refresher: refresher,
		ttl:       ttl,
		metrics:   m,
		now:       time.Now,
	}
}

// Get returns the cached snapshot while it is younger than the TTL,
// refreshing it otherwise. The returned snapshot is shared and must not be
// mutated by callers.
func (c *SnapshotCache) Get(ctx context.Context) (*snapshot.Snapshot, error) {
	c.mu.RLock()
	snap, refreshed := c.snap, c.refreshed
	c.mu.RUnlock()
	if snap != nil && c.now().Sub(refreshed) < c.ttl {
		return snap, nil
	}

	v, err, _ := c.group.Do("snapshot", func() (any, error) {
		// A racing caller may have refreshed while we queued.
		c.mu.RLock()
		snap, refreshed := c.snap, c.refreshed
		c.mu.RUnlock()
		if snap != nil && c.now().Sub(refreshed) < c.ttl {
			return snap, nil
		}

		// The refresh outcome is shared by every caller within the TTL, so
		// it must not die with whichever request happened to trigger it.
		// The aggregator bounds the cycle with its own fetch timeout.
		started := c.now()
		fresh := c.refresher.Aggregate(context.WithoutCancel(ctx))
		c.metrics.ObserveRefresh(c.now().Sub(started).Seconds())

		c.mu.Lock()
		c.snap = fresh
		c.refreshed = c.now()
		c.mu.Unlock()
		return fresh, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*snapshot.Snapshot), nil
}

// Age reports the current snapshot's age. ok is false until the first
// refresh has populated the slot.
func (c *SnapshotCache) Age() (age time.Duration, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snap == nil {
		return 0, false
	}
	return c.now().Sub(c.refreshed), true
}
