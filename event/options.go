package event

import (
	"github.com/KOMKZ/go-yogan-eventbus/logger"
	"go.opentelemetry.io/otel/trace"
)

// Executor runs the first step of an async chain.
// *ants.Pool satisfies it.
type Executor interface {
	Submit(task func()) error
}

// DispatcherOption Dispatcher configuration options
type DispatcherOption func(*Dispatcher)

// WithLogger sets the logger (default: nop)
func WithLogger(l *logger.CtxZapLogger) DispatcherOption {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithExecutor runs async chains on ex instead of the calling goroutine.
// FireAsync returns as soon as the first step is submitted.
func WithExecutor(ex Executor) DispatcherOption {
	return func(d *Dispatcher) {
		d.executor = ex
	}
}

// WithMetrics records dispatch metrics; m must be registered with a meter to take effect
func WithMetrics(m *EventMetrics) DispatcherOption {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// WithTracer sets the tracer for event.fire spans (default: otel global provider)
func WithTracer(t trace.Tracer) DispatcherOption {
	return func(d *Dispatcher) {
		if t != nil {
			d.tracer = t
		}
	}
}
