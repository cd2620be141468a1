// Package ratelimit enforces the per-client request quota.
package ratelimit

import (
	"sync"
	"time"
)

// SlidingWindow counts admitted calls per client over a trailing window.
// Each check prunes expired timestamps; rejected attempts are not recorded,
// so hammering a full window does not extend the lockout.
type SlidingWindow struct {
	quota  int
	window time.Duration

	mu    sync.Mutex
	calls map[string][]time.Time
	// now is swapped out by tests.
	now func() time.Time
}

func NewSlidingWindow(quota int, window time.Duration) *SlidingWindow {
	return &SlidingWindow{
		quota:  quota,
		window: window,
		calls:  make(map[string][]time.Time),
		now:    time.Now,
	}
}

// Admit reports whether clientID may make another call, recording the call
// when admitted.
func (l *SlidingWindow) Admit(clientID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)
	kept := l.calls[clientID][:0]
	for _, ts := range l.calls[clientID] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= l.quota {
		l.calls[clientID] = kept
		return false
	}
	l.calls[clientID] = append(kept, now)
	return true
}

// Quota returns the configured per-window limit.
func (l *SlidingWindow) Quota() int { return l.quota }

// Window returns the configured window length.
func (l *SlidingWindow) Window() time.Duration { return l.window }

// Prune drops clients whose whole record has expired. Called periodically
// so idle clients do not accumulate forever.
func (l *SlidingWindow) Prune() {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-l.window)
	for id, calls := range l.calls {
		live := false
		for _, ts := range calls {
			if ts.After(cutoff) {
				live = true
				break
			}
		}
		if !live {
			delete(l.calls, id)
		}
	}
}

// StartPruning prunes on the given interval until stop is closed.
func (l *SlidingWindow) StartPruning(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.Prune()
			case <-stop:
				return
			}
		}
	}()
}
