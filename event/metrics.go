package event

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	modeSync  = "sync"
	modeAsync = "async"

	resultOK      = "ok"
	resultError   = "error"
	resultStopped = "stopped"
)

// EventMetricsConfig holds configuration for Event metrics
type EventMetricsConfig struct {
	Enabled        bool
	RecordInflight bool
}

// EventMetrics implements component.MetricsProvider for Event instrumentation.
// A nil *EventMetrics records nothing.
type EventMetrics struct {
	config     EventMetricsConfig
	meter      metric.Meter
	registered atomic.Bool
	mu         sync.Mutex

	// Metrics instruments
	eventsFired      metric.Int64Counter         // Events fired
	listenersInvoked metric.Int64Counter         // Listener invocations
	fireDuration     metric.Float64Histogram     // Fire duration (async: until the chain ends)
	bakes            metric.Int64Counter         // Baked cache lookups
	inflight         metric.Int64ObservableGauge // Pending async chains (optional)

	inflightCallback atomic.Pointer[func() int64]
}

// NewEventMetrics creates a new Event metrics provider
func NewEventMetrics(cfg EventMetricsConfig) *EventMetrics {
	return &EventMetrics{
		config: cfg,
	}
}

// MetricsName returns the metrics group name
func (m *EventMetrics) MetricsName() string {
	return "event"
}

// IsMetricsEnabled returns whether metrics collection is enabled
func (m *EventMetrics) IsMetricsEnabled() bool {
	return m.config.Enabled
}

// RegisterMetrics registers all Event metrics with the provided Meter
func (m *EventMetrics) RegisterMetrics(meter metric.Meter) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.registered.Load() {
		return nil
	}

	m.meter = meter
	var err error

	m.eventsFired, err = meter.Int64Counter(
		"event_fired_total",
		metric.WithDescription("Total number of events fired"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return err
	}

	m.listenersInvoked, err = meter.Int64Counter(
		"event_listener_invoked_total",
		metric.WithDescription("Total number of listener invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return err
	}

	m.fireDuration, err = meter.Float64Histogram(
		"event_fire_duration_seconds",
		metric.WithDescription("Event fire duration distribution"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	m.bakes, err = meter.Int64Counter(
		"event_bake_total",
		metric.WithDescription("Baked listener cache lookups by result"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return err
	}

	if m.config.RecordInflight {
		m.inflight, err = meter.Int64ObservableGauge(
			"event_async_inflight",
			metric.WithDescription("Async event chains not yet completed"),
			metric.WithUnit("{chain}"),
			metric.WithInt64Callback(m.collectInflight),
		)
		if err != nil {
			return err
		}
	}

	m.registered.Store(true)
	return nil
}

func (m *EventMetrics) collectInflight(_ context.Context, observer metric.Int64Observer) error {
	if cb := m.inflightCallback.Load(); cb != nil {
		observer.Observe((*cb)())
	}
	return nil
}

// SetInflightCallback sets the source of the inflight gauge
func (m *EventMetrics) SetInflightCallback(callback func() int64) {
	m.inflightCallback.Store(&callback)
}

// RecordFired records one Fire or one finished FireAsync chain
func (m *EventMetrics) RecordFired(ctx context.Context, eventType, mode string, duration time.Duration) {
	if !m.IsRegistered() {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("event", eventType),
		attribute.String("mode", mode),
	)
	m.eventsFired.Add(ctx, 1, attrs)
	m.fireDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordInvoked records one listener invocation
func (m *EventMetrics) RecordInvoked(ctx context.Context, eventType, result string) {
	if !m.IsRegistered() {
		return
	}

	m.listenersInvoked.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event", eventType),
		attribute.String("result", result),
	))
}

// RecordBake records a baked cache lookup
func (m *EventMetrics) RecordBake(ctx context.Context, hit bool) {
	if !m.IsRegistered() {
		return
	}

	result := "miss"
	if hit {
		result = "hit"
	}
	m.bakes.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// IsRegistered returns whether metrics have been registered
func (m *EventMetrics) IsRegistered() bool {
	return m != nil && m.registered.Load()
}
