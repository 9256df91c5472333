package room

import (
	"testing"
	"time"
)

func TestSchedulerFiresAfterTTL(t *testing.T) {
	s := newMessageScheduler()
	fired := make(chan *expiryHandle, 1)

	handle := s.schedule("alice", 10*time.Millisecond, func(h *expiryHandle) {
		fired <- h
	})

	select {
	case h := <-fired:
		if h != handle {
			t.Fatal("fired with a different handle")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expiry never fired")
	}
	if s.pendingCount() != 0 {
		t.Fatalf("pending = %d after fire", s.pendingCount())
	}
}

func TestSchedulerReplaceStopsPrior(t *testing.T) {
	s := newMessageScheduler()
	fired := make(chan string, 2)

	s.schedule("alice", 20*time.Millisecond, func(*expiryHandle) {
		fired <- "first"
	})
	s.schedule("alice", 40*time.Millisecond, func(*expiryHandle) {
		fired <- "second"
	})

	if s.pendingCount() != 1 {
		t.Fatalf("pending = %d, want 1", s.pendingCount())
	}

	select {
	case which := <-fired:
		if which != "second" {
			t.Fatalf("the %s expiry fired", which)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("replacement expiry never fired")
	}

	select {
	case which := <-fired:
		t.Fatalf("extra %s expiry fired", which)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSchedulerCancelDisarms(t *testing.T) {
	s := newMessageScheduler()
	fired := make(chan struct{}, 1)

	s.schedule("alice", 10*time.Millisecond, func(*expiryHandle) {
		fired <- struct{}{}
	})
	s.cancel("alice")

	if s.pendingCount() != 0 {
		t.Fatalf("pending = %d after cancel", s.pendingCount())
	}
	select {
	case <-fired:
		t.Fatal("canceled expiry fired")
	case <-time.After(50 * time.Millisecond):
	}

	s.cancel("alice")
	s.cancel("never-scheduled")
}

func TestSchedulerClaimRejectsStaleHandle(t *testing.T) {
	s := newMessageScheduler()

	stale := s.schedule("alice", time.Hour, func(*expiryHandle) {})
	current := s.schedule("alice", time.Hour, func(*expiryHandle) {})

	if s.claim(stale) {
		t.Fatal("claimed a superseded handle")
	}
	if !s.claim(current) {
		t.Fatal("failed to claim the live handle")
	}
	if s.claim(current) {
		t.Fatal("claimed the same handle twice")
	}
	s.cancel("alice")
}
