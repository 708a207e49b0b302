package event

import (
	"context"
	"sync"
	"time"
)

// ===== Event fixtures =====

type Animal struct {
	Name string
}

type Dog struct {
	Animal
	Breed string
}

type Puppy struct {
	Dog
	AgeWeeks int
}

type Sounder interface {
	Sound() string
}

func (d *Dog) Sound() string { return "woof" }

type OrderPlaced struct {
	BaseEvent
	Cancellation
	OrderID string
}

type UserCreated struct {
	UserID int
}

type ImportJob struct {
	AsyncBase
	Cancellation
	File string
}

type ReindexJob struct {
	AsyncBase
}

// ===== Helpers =====

// recorder collects invocation labels across goroutines
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, label)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *recorder) handler(label string) Handler {
	return func(context.Context, Event) error {
		r.add(label)
		return nil
	}
}

func waitCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 2*time.Second)
}
