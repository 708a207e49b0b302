package event

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/KOMKZ/go-yogan-eventbus/errcode"
)

const (
	moduleCode = 20
	moduleName = "event"
)

// Usage errors, reported to the caller and never retried
var (
	ErrNilEvent         = errcode.Register(errcode.New(moduleCode, 1, moduleName, "event.nil_event", "event is nil"))
	ErrAsyncEventFired  = errcode.Register(errcode.New(moduleCode, 2, moduleName, "event.async_fired_sync", "async event must be fired with FireAsync"))
	ErrInvalidListener  = errcode.Register(errcode.New(moduleCode, 3, moduleName, "event.invalid_listener", "invalid listener"))
	ErrDispatcherClosed = errcode.Register(errcode.New(moduleCode, 4, moduleName, "event.dispatcher_closed", "dispatcher is closed"))
	ErrExecutorRejected = errcode.Register(errcode.New(moduleCode, 5, moduleName, "event.executor_rejected", "executor rejected async dispatch"))
)

// ErrStopPropagation stops event propagation (not considered an error)
// When the listener returns this error, subsequent listeners do not execute, but Fire does not return an error
var ErrStopPropagation = errors.New("stop propagation")

// ListenerError a listener failed while handling an event
type ListenerError struct {
	Listener  *Listener
	EventType reflect.Type
	Err       error
}

func (e *ListenerError) Error() string {
	return fmt.Sprintf("event: listener %s failed on %s: %v", e.Listener.Name(), e.EventType, e.Err)
}

func (e *ListenerError) Unwrap() error {
	return e.Err
}

// PanicError a recovered panic from an async chain listener
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("listener panicked: %v", e.Value)
}

// Unwrap exposes the panic value when it is an error
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
