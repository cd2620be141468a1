package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"coinoracle/internal/snapshot"
)

type countingRefresher struct {
	calls atomic.Int64
	block chan struct{}
}

func (r *countingRefresher) Aggregate(context.Context) *snapshot.Snapshot {
	if r.block != nil {
		<-r.block
	}
	n := r.calls.Add(1)
	return &snapshot.Snapshot{Timestamp: n, Prices: snapshot.NewPriceBook()}
}

func TestGet_WithinTTL_ReturnsSameSnapshot(t *testing.T) {
	r := &countingRefresher{}
	c := New(r, time.Minute, nil)

	first, err := c.Get(context.Background())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	second, err := c.Get(context.Background())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if first != second {
		t.Fatal("expected the identical cached instance within TTL")
	}
	if got := r.calls.Load(); got != 1 {
		t.Fatalf("refreshes = %d, want 1", got)
	}
}

func TestGet_AfterTTL_TriggersExactlyOneRefresh(t *testing.T) {
	r := &countingRefresher{}
	c := New(r, time.Minute, nil)

	now := time.Unix(1724668800, 0)
	c.now = func() time.Time { return now }

	if _, err := c.Get(context.Background()); err != nil {
		t.Fatalf("get: %v", err)
	}

	now = now.Add(59 * time.Second)
	if _, err := c.Get(context.Background()); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got := r.calls.Load(); got != 1 {
		t.Fatalf("refreshes before expiry = %d, want 1", got)
	}

	now = now.Add(2 * time.Second)
	snap, err := c.Get(context.Background())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got := r.calls.Load(); got != 2 {
		t.Fatalf("refreshes after expiry = %d, want 2", got)
	}
	if snap.Timestamp != 2 {
		t.Fatalf("stale snapshot served after expiry: %+v", snap)
	}
}

func TestGet_ConcurrentCallers_ShareOneRefresh(t *testing.T) {
	r := &countingRefresher{block: make(chan struct{})}
	c := New(r, time.Minute, nil)

	const callers = 8
	results := make([]*snapshot.Snapshot, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			snap, err := c.Get(context.Background())
			if err != nil {
				t.Errorf("get: %v", err)
				return
			}
			results[i] = snap
		}(i)
	}

	// Release the in-flight cycle once all callers are queued behind it.
	time.Sleep(50 * time.Millisecond)
	close(r.block)
	wg.Wait()

	if got := r.calls.Load(); got != 1 {
		t.Fatalf("refreshes = %d, want 1 (single-flight)", got)
	}
	for i := 1; i < callers; i++ {
		if results[i] != results[0] {
			t.Fatal("concurrent callers must share the in-flight refresh result")
		}
	}
}

// ctxSensitiveRefresher degrades like the real aggregator would when its
// context is already dead: it returns an empty snapshot instead of data.
type ctxSensitiveRefresher struct{}

func (ctxSensitiveRefresher) Aggregate(ctx context.Context) *snapshot.Snapshot {
	snap := &snapshot.Snapshot{Prices: snapshot.NewPriceBook()}
	if ctx.Err() != nil {
		return snap
	}
	snap.Timestamp = 1
	return snap
}

func TestGet_CallerDisconnect_DoesNotPoisonCache(t *testing.T) {
	c := New(ctxSensitiveRefresher{}, time.Minute, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The disconnected caller still triggers the refresh; the cycle must
	// run to completion regardless.
	first, err := c.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if first.Timestamp != 1 {
		t.Fatal("refresh ran on the disconnected caller's context")
	}

	// A healthy caller within the TTL must see the full snapshot, not a
	// degraded one stored by the disconnect.
	second, err := c.Get(context.Background())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if second.Timestamp != 1 {
		t.Fatalf("degraded snapshot served within TTL: %+v", second)
	}
}

func TestAge_UnpopulatedAndPopulated(t *testing.T) {
	r := &countingRefresher{}
	c := New(r, time.Minute, nil)

	if _, ok := c.Age(); ok {
		t.Fatal("age must report unpopulated before first refresh")
	}

	now := time.Unix(1724668800, 0)
	c.now = func() time.Time { return now }
	if _, err := c.Get(context.Background()); err != nil {
		t.Fatalf("get: %v", err)
	}

	now = now.Add(12 * time.Second)
	age, ok := c.Age()
	if !ok || age != 12*time.Second {
		t.Fatalf("age = %v, %v", age, ok)
	}
}
