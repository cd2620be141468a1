package ratelimit

import (
	"testing"
	"time"
)

func TestAdmit_QuotaWithinWindow(t *testing.T) {
	l := NewSlidingWindow(30, time.Hour)
	now := time.Unix(1724668800, 0)
	l.now = func() time.Time { return now }

	for i := 0; i < 30; i++ {
		if !l.Admit("client-a") {
			t.Fatalf("call %d rejected below quota", i+1)
		}
		now = now.Add(time.Second)
	}
	if l.Admit("client-a") {
		t.Fatal("call above quota admitted")
	}
}

func TestAdmit_WindowSlides(t *testing.T) {
	l := NewSlidingWindow(2, time.Hour)
	now := time.Unix(1724668800, 0)
	l.now = func() time.Time { return now }

	if !l.Admit("c") || !l.Admit("c") {
		t.Fatal("initial calls rejected")
	}
	if l.Admit("c") {
		t.Fatal("third call within window admitted")
	}

	// The first call leaves the window; one slot frees up.
	now = now.Add(time.Hour + time.Second)
	if !l.Admit("c") {
		t.Fatal("call after window elapsed rejected")
	}
}

func TestAdmit_RejectedAttemptsNotRecorded(t *testing.T) {
	l := NewSlidingWindow(1, time.Hour)
	now := time.Unix(1724668800, 0)
	l.now = func() time.Time { return now }

	if !l.Admit("c") {
		t.Fatal("first call rejected")
	}
	// Hammering while over quota must not extend the lockout.
	for i := 0; i < 100; i++ {
		now = now.Add(30 * time.Second)
		l.Admit("c")
	}
	now = now.Add(time.Hour) // first admitted call is now expired
	if !l.Admit("c") {
		t.Fatal("lockout extended by rejected attempts")
	}
}

func TestAdmit_ClientsIndependent(t *testing.T) {
	l := NewSlidingWindow(1, time.Hour)
	if !l.Admit("a") {
		t.Fatal("a rejected")
	}
	if !l.Admit("b") {
		t.Fatal("b must have its own window")
	}
	if l.Admit("a") || l.Admit("b") {
		t.Fatal("quota crossed between clients")
	}
}

func TestPrune_DropsExpiredClients(t *testing.T) {
	l := NewSlidingWindow(5, time.Hour)
	now := time.Unix(1724668800, 0)
	l.now = func() time.Time { return now }

	l.Admit("old")
	now = now.Add(2 * time.Hour)
	l.Admit("fresh")
	l.Prune()

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.calls["old"]; ok {
		t.Fatal("expired client retained")
	}
	if _, ok := l.calls["fresh"]; !ok {
		t.Fatal("live client pruned")
	}
}
