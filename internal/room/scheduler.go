package room

import (
	"sync"
	"time"
)

// expiryHandle identifies one scheduled message expiry. Handle identity is
// the staleness check: a fired timer only acts if it is still the handle on
// record for its name.
type expiryHandle struct {
	name  string
	timer *time.Timer
}

// messageScheduler owns the per-name expiry timers and guarantees at most
// one pending timer per name at any instant.
type messageScheduler struct {
	mu      sync.Mutex
	pending map[string]*expiryHandle
}

func newMessageScheduler() *messageScheduler {
	return &messageScheduler{pending: make(map[string]*expiryHandle)}
}

// schedule arms an expiry for name, replacing and stopping any prior one.
// fire runs on the timer goroutine and receives the handle so the caller can
// re-check staleness under its own lock before mutating anything.
func (s *messageScheduler) schedule(name string, ttl time.Duration, fire func(*expiryHandle)) *expiryHandle {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.pending[name]; ok {
		prev.timer.Stop()
	}

	handle := &expiryHandle{name: name}
	handle.timer = time.AfterFunc(ttl, func() {
		if !s.claim(handle) {
			return
		}
		fire(handle)
	})
	s.pending[name] = handle
	return handle
}

// claim removes handle if it is still the pending expiry for its name. A
// timer that lost the race to a cancel or a superseding schedule gets false.
func (s *messageScheduler) claim(h *expiryHandle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending[h.name] != h {
		return false
	}
	delete(s.pending, h.name)
	return true
}

// cancel disarms the pending expiry for name. Safe to call when nothing is
// scheduled or the timer already fired.
func (s *messageScheduler) cancel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.pending[name]; ok {
		h.timer.Stop()
		delete(s.pending, name)
	}
}

func (s *messageScheduler) pendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
