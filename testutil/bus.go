// Package testutil helps tests stand up a dispatcher and assert on what it did.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/KOMKZ/go-yogan-eventbus/event"
	"github.com/KOMKZ/go-yogan-eventbus/logger"
	"github.com/panjf2000/ants/v2"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// DefaultWaitTimeout bounds every wait helper
const DefaultWaitTimeout = 2 * time.Second

// BusTestContext the pieces a bus test usually needs
type BusTestContext struct {
	Dispatcher *event.Dispatcher
	Logger     *logger.TestCtxLogger
	Reader     *sdkmetric.ManualReader // nil unless Metrics was set
	Pool       *ants.Pool              // nil unless PoolSize > 0
}

// BusTestOptions bus test options
type BusTestOptions struct {
	// PoolSize runs async chains on an ants pool; 0 runs them on the caller
	PoolSize int

	// Metrics wires EventMetrics to a ManualReader
	Metrics bool

	// Extra dispatcher options applied last
	Options []event.DispatcherOption

	// SetupFunc registers listeners before the test body runs
	SetupFunc func(*BusTestContext) error
}

// NewBusTestContext builds a dispatcher with an in-memory logger.
// Cleanup is registered with t, so callers need no defer.
//
//	bus := testutil.NewBusTestContext(t, testutil.BusTestOptions{PoolSize: 4, Metrics: true})
//	rec := testutil.NewRecorder()
//	_, _ = event.Subscribe(bus.Dispatcher, 0, testutil.Record[*OrderPlaced](rec, "audit"))
//	testutil.MustFire(t, bus.Dispatcher, &OrderPlaced{})
func NewBusTestContext(t testing.TB, opts BusTestOptions) *BusTestContext {
	t.Helper()

	ctx := &BusTestContext{Logger: logger.NewTestCtxLogger()}
	dispatcherOpts := []event.DispatcherOption{event.WithLogger(ctx.Logger.Logger())}

	if opts.PoolSize > 0 {
		pool, err := ants.NewPool(opts.PoolSize)
		if err != nil {
			t.Fatalf("create ants pool failed: %v", err)
		}
		ctx.Pool = pool
		dispatcherOpts = append(dispatcherOpts, event.WithExecutor(pool))
	}

	if opts.Metrics {
		ctx.Reader = sdkmetric.NewManualReader()
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(ctx.Reader))
		m := event.NewEventMetrics(event.EventMetricsConfig{Enabled: true, RecordInflight: true})
		if err := m.RegisterMetrics(mp.Meter("event")); err != nil {
			t.Fatalf("register event metrics failed: %v", err)
		}
		dispatcherOpts = append(dispatcherOpts, event.WithMetrics(m))
	}

	ctx.Dispatcher = event.NewDispatcher(append(dispatcherOpts, opts.Options...)...)

	t.Cleanup(func() {
		ctx.Dispatcher.Close()
		if ctx.Pool != nil {
			_ = ctx.Pool.ReleaseTimeout(DefaultWaitTimeout)
		}
	})

	if opts.SetupFunc != nil {
		if err := opts.SetupFunc(ctx); err != nil {
			t.Fatalf("bus setup failed: %v", err)
		}
	}

	return ctx
}

// MustFire fires synchronously and fails the test on error
func MustFire(t testing.TB, d *event.Dispatcher, e event.Event) {
	t.Helper()
	if err := d.Fire(context.Background(), e); err != nil {
		t.Fatalf("fire %T failed: %v", e, err)
	}
}

// FireAndWait runs an async chain and waits for it, bounded by DefaultWaitTimeout.
// A chain that never settles fails the test instead of hanging it.
func FireAndWait(t testing.TB, d *event.Dispatcher, e event.AsyncEvent) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), DefaultWaitTimeout)
	defer cancel()

	f := d.FireAsync(context.Background(), e)
	_, err := f.Wait(ctx)
	if err != nil && ctx.Err() != nil && !f.IsDone() {
		t.Fatalf("async chain for %T did not settle within %s", e, DefaultWaitTimeout)
	}
	return err
}
