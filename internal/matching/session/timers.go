package session

import (
	"sync"
	"time"

	"github.com/vietddude/matchfeed/internal/core/clock"
)

// timerSet tracks timers by name. Scheduling a name that already has a
// pending timer replaces it, so same-purpose timers never stack.
type timerSet struct {
	mu     sync.Mutex
	clk    clock.Clock
	timers map[string]clock.Timer
}

func newTimerSet(clk clock.Clock) *timerSet {
	return &timerSet{
		clk:    clk,
		timers: make(map[string]clock.Timer),
	}
}

// Schedule arms fn to run after d, replacing any pending timer of the same name.
func (s *timerSet) Schedule(name string, d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.timers[name]; ok {
		existing.Stop()
	}

	s.timers[name] = s.clk.AfterFunc(d, func() {
		s.remove(name)
		fn()
	})
}

// Stop cancels the named timer if pending.
func (s *timerSet) Stop(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[name]; ok {
		t.Stop()
		delete(s.timers, name)
	}
}

// StopAll cancels every pending timer.
func (s *timerSet) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, t := range s.timers {
		t.Stop()
		delete(s.timers, name)
	}
}

// Pending returns the number of armed timers.
func (s *timerSet) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

func (s *timerSet) remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.timers, name)
}
