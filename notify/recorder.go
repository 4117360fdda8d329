package notify

import (
	"context"
	"sync"
)

// Recorder is an in-memory sink that keeps every event it receives.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Name() string { return "recorder" }

func (r *Recorder) Send(ctx context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Count returns how many recorded events have the given level.
func (r *Recorder) Count(l Level) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Level == l {
			n++
		}
	}
	return n
}

// Above reports whether any recorded event is more severe than l.
func (r *Recorder) Above(l Level) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ev := range r.events {
		if ev.Level.Slog() > l.Slog() {
			return true
		}
	}
	return false
}
