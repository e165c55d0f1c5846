// Package debounce coalesces bursts of triggers into a single callback
// invocation after a quiet period.
//
// A Scheduler is either idle or armed with exactly one timer. Trigger
// replaces the pending timer; when a timer expires the scheduler goes
// idle and then runs the callback once. A timer that was replaced or
// stopped never runs the callback, even if it had already expired and
// was waiting for the lock.
package debounce

import (
	"sync"
	"time"
)

type Scheduler struct {
	interval time.Duration
	fn       func()

	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
}

// New returns an idle scheduler that calls fn interval after the last
// Trigger.
func New(interval time.Duration, fn func()) *Scheduler {
	if interval < 0 {
		interval = 0
	}
	return &Scheduler{
		interval: interval,
		fn:       fn,
	}
}

// Trigger (re)arms the scheduler. Only the most recent Trigger within a
// quiet window results in a callback.
func (s *Scheduler) Trigger() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
	}

	s.gen++
	gen := s.gen
	s.timer = time.AfterFunc(s.interval, func() { s.fire(gen) })
}

// Stop cancels the pending timer, if any.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
}

// Pending reports whether a timer is armed.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// SetInterval changes the quiet period for subsequent triggers. A timer
// that is already armed keeps its original deadline.
func (s *Scheduler) SetInterval(d time.Duration) {
	if d < 0 {
		d = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interval = d
}

// Interval returns the current quiet period.
func (s *Scheduler) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

func (s *Scheduler) fire(gen uint64) {
	s.mu.Lock()
	if gen != s.gen {
		// superseded after the timer expired
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.mu.Unlock()

	if s.fn != nil {
		s.fn()
	}
}
