package event

import (
	"context"
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"sync/atomic"
)

// Handler synchronous listener function.
// Returning an error stops the remaining listeners; ErrStopPropagation stops them without an error.
type Handler func(ctx context.Context, e Event) error

// AsyncHandler listener on the FireAsync chain.
// The chain advances only after c.Proceed() is called, possibly from another goroutine.
type AsyncHandler func(ctx context.Context, e Event, c *Controller) error

// Listener one registration. Immutable once registered.
type Listener struct {
	eventType       reflect.Type
	priority        int8
	ignoreCancelled bool
	once            bool
	seq             uint64
	owner           any
	name            string

	handler      Handler
	asyncHandler AsyncHandler

	spent atomic.Bool // once listeners: set by the first invocation
}

// ListenerOption listener registration options
type ListenerOption func(*Listener)

// WithIgnoreCancelled the listener still runs after the event was cancelled
func WithIgnoreCancelled() ListenerOption {
	return func(l *Listener) {
		l.ignoreCancelled = true
	}
}

// WithOwner binds the listener to a subscribing object.
// A second registration with the same owner on the same event type returns the first listener.
func WithOwner(owner any) ListenerOption {
	return func(l *Listener) {
		l.owner = owner
	}
}

// WithName sets the diagnostic label
func WithName(name string) ListenerOption {
	return func(l *Listener) {
		l.name = name
	}
}

// WithOnce runs the listener at most once and then unregisters it
func WithOnce() ListenerOption {
	return func(l *Listener) {
		l.once = true
	}
}

// EventType the type the listener is registered on
func (l *Listener) EventType() reflect.Type { return l.eventType }

// Priority lower runs first
func (l *Listener) Priority() int8 { return l.priority }

// IgnoresCancelled whether the listener runs for cancelled events
func (l *Listener) IgnoresCancelled() bool { return l.ignoreCancelled }

// IsAsync whether the listener takes a Controller
func (l *Listener) IsAsync() bool { return l.asyncHandler != nil }

// Name diagnostic label
func (l *Listener) Name() string { return l.name }

// Owner subscribing object, nil for plain handlers
func (l *Listener) Owner() any { return l.owner }

func (l *Listener) String() string {
	var flags []string
	if l.ignoreCancelled {
		flags = append(flags, "ignoreCancelled")
	}
	if l.IsAsync() {
		flags = append(flags, "async")
	}
	if l.once {
		flags = append(flags, "once")
	}
	s := fmt.Sprintf("%s [priority=%d seq=%d", l.name, l.priority, l.seq)
	if len(flags) > 0 {
		s += " " + strings.Join(flags, ",")
	}
	return s + "]"
}

// before total order: priority, then registration sequence
func (l *Listener) before(o *Listener) bool {
	if l.priority != o.priority {
		return l.priority < o.priority
	}
	return l.seq < o.seq
}

func compareListeners(a, b *Listener) int {
	switch {
	case a.before(b):
		return -1
	case b.before(a):
		return 1
	default:
		return 0
	}
}

// claim reports whether the listener may run; once listeners succeed a single time
func (l *Listener) claim() bool {
	if !l.once {
		return true
	}
	return l.spent.CompareAndSwap(false, true)
}

// funcName best-effort name of a function value
func funcName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return ""
	}
	if f := runtime.FuncForPC(v.Pointer()); f != nil {
		return f.Name()
	}
	return ""
}
