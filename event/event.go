// Package event is an in-process publish/subscribe engine.
//
// Listeners register against a reflect.Type. A fired event reaches every
// listener registered on its concrete type, on the structs it embeds
// (transitively) and on any registered interface it implements, ordered by
// (priority, registration order).
package event

import (
	"reflect"
	"sync/atomic"
	"time"
)

// Event anything that can be fired. A listener on Event receives every event.
type Event interface{}

// Named events that carry their own name (used in logs)
type Named interface {
	Name() string
}

// BaseEvent base class for events, can be embedded into specific event structs
type BaseEvent struct {
	name       string
	occurredAt time.Time
}

// NewEvent creates a base event
func NewEvent(name string) BaseEvent {
	return BaseEvent{
		name:       name,
		occurredAt: time.Now(),
	}
}

// Name returns the event name
func (e BaseEvent) Name() string {
	return e.name
}

// OccurredAt returns the event occurrence time
func (e BaseEvent) OccurredAt() time.Time {
	return e.occurredAt
}

// Cancellable events carry a one-way cancellation flag.
// Listeners registered without WithIgnoreCancelled are skipped once it is set.
type Cancellable interface {
	Cancel()
	IsCancelled() bool
}

// Cancellation embeddable Cancellable implementation
//
//	type OrderPlaced struct {
//		event.Cancellation
//		OrderID string
//	}
type Cancellation struct {
	cancelled atomic.Bool
}

// Cancel marks the event cancelled; it never clears
func (c *Cancellation) Cancel() {
	c.cancelled.Store(true)
}

// IsCancelled reports whether Cancel was called
func (c *Cancellation) IsCancelled() bool {
	return c.cancelled.Load()
}

// AsyncEvent events dispatched through FireAsync.
// Implemented only by embedding AsyncBase.
type AsyncEvent interface {
	Event
	asyncEvent()
}

// AsyncBase marks the embedding struct as an AsyncEvent
type AsyncBase struct{}

func (AsyncBase) asyncEvent() {}

var (
	eventType      = reflect.TypeOf((*Event)(nil)).Elem()
	asyncEventType = reflect.TypeOf((*AsyncEvent)(nil)).Elem()

	// embedded helpers never act as dispatch targets
	helperTypes = map[reflect.Type]struct{}{
		reflect.TypeOf(BaseEvent{}):    {},
		reflect.TypeOf(Cancellation{}): {},
		reflect.TypeOf(AsyncBase{}):    {},
	}
)

// eventName label for logs: Named.Name() when set, else the Go type
func eventName(e Event) string {
	if n, ok := e.(Named); ok {
		if name := n.Name(); name != "" {
			return name
		}
	}
	return reflect.TypeOf(e).String()
}

// isNilEvent reports untyped nil and typed nil pointers
func isNilEvent(e Event) bool {
	if e == nil {
		return true
	}
	v := reflect.ValueOf(e)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}
