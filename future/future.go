// Package future provides a single-assignment result that completes exactly once.
package future

import (
	"context"
	"sync"

	"github.com/KOMKZ/go-yogan-eventbus/errcode"
)

const (
	moduleCode = 21
	moduleName = "future"
)

var (
	// ErrNotDone the future has not completed yet
	ErrNotDone = errcode.Register(errcode.New(moduleCode, 1, moduleName, "future.not_done", "future is not done"))

	// ErrNilFailure Fail was called with a nil error
	ErrNilFailure = errcode.Register(errcode.New(moduleCode, 2, moduleName, "future.nil_failure", "future failed with a nil error"))
)

// Future eventual result of an operation.
// The first Complete or Fail wins; later calls report false and change nothing.
type Future[T any] struct {
	mu        sync.Mutex
	done      chan struct{}
	value     T
	err       error
	callbacks []func(T, error)
}

// New creates a pending future
func New[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Completed returns a future already completed with v
func Completed[T any](v T) *Future[T] {
	f := New[T]()
	f.Complete(v)
	return f
}

// Failed returns a future already failed with err
func Failed[T any](err error) *Future[T] {
	f := New[T]()
	f.Fail(err)
	return f
}

// Complete resolves the future with v
func (f *Future[T]) Complete(v T) bool {
	return f.settle(v, nil)
}

// Fail resolves the future with err (a nil err becomes ErrNilFailure)
func (f *Future[T]) Fail(err error) bool {
	if err == nil {
		err = ErrNilFailure
	}
	var zero T
	return f.settle(zero, err)
}

func (f *Future[T]) settle(v T, err error) bool {
	f.mu.Lock()
	select {
	case <-f.done:
		f.mu.Unlock()
		return false
	default:
	}

	f.value, f.err = v, err
	callbacks := f.callbacks
	f.callbacks = nil
	close(f.done)
	f.mu.Unlock()

	// callbacks run outside the lock so they may touch the future again
	for _, cb := range callbacks {
		cb(v, err)
	}
	return true
}

// Then registers fn to run once the future settles.
// fn runs on the goroutine that settles the future, or immediately when already settled.
func (f *Future[T]) Then(fn func(T, error)) {
	f.mu.Lock()
	select {
	case <-f.done:
		v, err := f.value, f.err
		f.mu.Unlock()
		fn(v, err)
		return
	default:
	}
	f.callbacks = append(f.callbacks, fn)
	f.mu.Unlock()
}

// Done is closed once the future settles
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// IsDone reports whether the future has settled
func (f *Future[T]) IsDone() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Result returns the outcome without blocking; ErrNotDone while pending
func (f *Future[T]) Result() (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	default:
		var zero T
		return zero, ErrNotDone
	}
}

// Wait blocks until the future settles or ctx is done.
// A ctx error does not settle the future.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
