package testutil

import (
	"context"
	"slices"
	"sync"

	"github.com/KOMKZ/go-yogan-eventbus/event"
)

// Recorder collects listener labels in invocation order; safe across goroutines
type Recorder struct {
	mu     sync.Mutex
	labels []string
}

// NewRecorder creates a recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Add appends a label
func (r *Recorder) Add(label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.labels = append(r.labels, label)
}

// Labels returns a copy of the recorded labels
func (r *Recorder) Labels() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.labels)
}

// Count how many times label was recorded
func (r *Recorder) Count(label string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, l := range r.labels {
		if l == label {
			n++
		}
	}
	return n
}

// Reset drops everything recorded so far
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.labels = nil
}

// Handler an untyped handler recording label
func (r *Recorder) Handler(label string) event.Handler {
	return func(context.Context, event.Event) error {
		r.Add(label)
		return nil
	}
}

// AsyncHandler an async handler recording label, then proceeding
func (r *Recorder) AsyncHandler(label string) event.AsyncHandler {
	return func(_ context.Context, _ event.Event, c *event.Controller) error {
		r.Add(label)
		c.Proceed()
		return nil
	}
}

// Record a typed handler for event.Subscribe recording label
func Record[E any](r *Recorder, label string) func(context.Context, E) error {
	return func(context.Context, E) error {
		r.Add(label)
		return nil
	}
}
