// Package progress tracks how many records of a run have been committed.
package progress

import "sync"

// State is a point-in-time view of a run's progress.
// Completed never exceeds Total.
type State struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// Percent returns completion as a percentage in [0, 100].
func (s State) Percent() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Completed) / float64(s.Total) * 100
}

// Done reports whether every record has been committed.
func (s State) Done() bool {
	return s.Total > 0 && s.Completed == s.Total
}

// Listener is notified with the new state after every change.
type Listener func(State)

// Tracker is a monotonically increasing completion counter. It has no
// influence on control flow; callers observe it for display.
type Tracker struct {
	mu        sync.Mutex
	state     State
	listeners []Listener
}

// NewTracker creates an idle tracker at {0, 0}.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Subscribe registers fn for state changes.
func (t *Tracker) Subscribe(fn Listener) {
	if fn == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, fn)
}

// Reset starts a new run of total records.
func (t *Tracker) Reset(total int) {
	if total < 0 {
		total = 0
	}
	t.set(func(s *State) {
		s.Completed = 0
		s.Total = total
	})
}

// Advance adds n to the completed count, clamped to Total. Non-positive n is ignored.
func (t *Tracker) Advance(n int) {
	if n <= 0 {
		return
	}
	t.set(func(s *State) {
		s.Completed += n
		if s.Completed > s.Total {
			s.Completed = s.Total
		}
	})
}

// Snapshot returns the current state.
func (t *Tracker) Snapshot() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Tracker) set(mutate func(*State)) {
	t.mu.Lock()
	mutate(&t.state)
	state := t.state
	listeners := append([]Listener(nil), t.listeners...)
	t.mu.Unlock()

	for _, fn := range listeners {
		fn(state)
	}
}
