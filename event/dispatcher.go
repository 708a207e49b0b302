package event

import (
	"context"
	"errors"
	"reflect"
	"sync/atomic"
	"time"

	"github.com/KOMKZ/go-yogan-eventbus/logger"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/KOMKZ/go-yogan-eventbus/event"

// Dispatcher event dispatcher.
// Registration and firing are safe for concurrent use; no lock is held while listeners run.
type Dispatcher struct {
	id       string
	store    *store
	resolver *resolver
	baked    *bakedCache

	nextSeq      atomic.Uint64
	interceptors atomic.Pointer[[]Interceptor]
	closed       atomic.Bool
	inflight     atomic.Int64 // pending async chains

	logger   *logger.CtxZapLogger
	executor Executor
	metrics  *EventMetrics
	tracer   trace.Tracer
}

// NewDispatcher creates an event dispatcher
func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	s := &store{}
	r := newResolver()
	d := &Dispatcher{
		id:       uuid.NewString(),
		store:    s,
		resolver: r,
		baked:    newBakedCache(s, r),
		logger:   logger.NewNopLogger(),
		tracer:   otel.Tracer(tracerName),
	}

	for _, opt := range opts {
		opt(d)
	}

	d.logger = d.logger.With(zap.String("bus_id", d.id))
	if d.metrics != nil {
		d.metrics.SetInflightCallback(d.inflight.Load)
	}
	return d
}

// ID unique dispatcher id
func (d *Dispatcher) ID() string {
	return d.id
}

// Close rejects further Fire and FireAsync calls. Chains already running finish normally.
func (d *Dispatcher) Close() {
	if d.closed.CompareAndSwap(false, true) {
		d.logger.Debug("dispatcher closed")
	}
}

// IsClosed whether Close was called
func (d *Dispatcher) IsClosed() bool {
	return d.closed.Load()
}

// Use registers an interceptor around synchronous dispatch
func (d *Dispatcher) Use(interceptor Interceptor) {
	if interceptor == nil {
		return
	}
	for {
		cur := d.interceptors.Load()
		var next []Interceptor
		if cur != nil {
			next = append(next, *cur...)
		}
		next = append(next, interceptor)
		if d.interceptors.CompareAndSwap(cur, &next) {
			return
		}
	}
}

// RegisterListener registers h for events of type t (and its subtypes)
func (d *Dispatcher) RegisterListener(t reflect.Type, priority int8, h Handler, opts ...ListenerOption) (*Listener, error) {
	l, _, err := d.registerHandler(t, priority, h, opts)
	return l, err
}

// RegisterAsyncListener registers h on the FireAsync chain; t must implement AsyncEvent
func (d *Dispatcher) RegisterAsyncListener(t reflect.Type, priority int8, h AsyncHandler, opts ...ListenerOption) (*Listener, error) {
	l, _, err := d.registerAsyncHandler(t, priority, h, opts)
	return l, err
}

func (d *Dispatcher) registerHandler(t reflect.Type, priority int8, h Handler, opts []ListenerOption) (*Listener, bool, error) {
	if h == nil {
		return nil, false, ErrInvalidListener.WithMsgf("nil handler for %v", t)
	}
	return d.register(&Listener{
		eventType: t,
		priority:  priority,
		name:      funcName(h),
		handler:   h,
	}, opts)
}

func (d *Dispatcher) registerAsyncHandler(t reflect.Type, priority int8, h AsyncHandler, opts []ListenerOption) (*Listener, bool, error) {
	if h == nil {
		return nil, false, ErrInvalidListener.WithMsgf("nil async handler for %v", t)
	}
	if t != nil && !t.Implements(asyncEventType) {
		return nil, false, ErrInvalidListener.WithMsgf("%v does not implement event.AsyncEvent", t)
	}
	return d.register(&Listener{
		eventType:    t,
		priority:     priority,
		name:         funcName(h),
		asyncHandler: h,
	}, opts)
}

// register stores l unless its (type, owner) pair is taken; added reports
// whether l itself went in or the existing listener was returned.
func (d *Dispatcher) register(l *Listener, opts []ListenerOption) (*Listener, bool, error) {
	if l.eventType == nil {
		return nil, false, ErrInvalidListener.WithMsgf("nil event type")
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.owner != nil && !reflect.TypeOf(l.owner).Comparable() {
		return nil, false, ErrInvalidListener.WithMsgf("owner %T is not comparable", l.owner)
	}
	l.seq = d.nextSeq.Add(1)

	learned := d.resolver.learn(l.eventType)
	actual, added := d.store.add(l)
	if !added {
		d.logger.Debug("duplicate listener owner, keeping existing",
			zap.Stringer("listener", actual))
		return actual, false, nil
	}
	evicted := d.baked.invalidate(l.eventType)

	d.logger.Debug("listener registered",
		zap.Stringer("type", l.eventType),
		zap.Stringer("listener", l),
		zap.Bool("new_interface", learned),
		zap.Int("evicted", evicted))
	return l, true, nil
}

// UnregisterListener removes l; unknown or already removed listeners are ignored
func (d *Dispatcher) UnregisterListener(l *Listener) {
	if l == nil || !d.store.remove(l) {
		return
	}
	evicted := d.baked.invalidate(l.eventType)
	d.logger.Debug("listener unregistered",
		zap.Stringer("type", l.eventType),
		zap.Stringer("listener", l),
		zap.Int("evicted", evicted))
}

// ListenersFor returns the merged, ordered listeners a concrete type dispatches to.
// The slice is shared; callers must not modify it.
func (d *Dispatcher) ListenersFor(t reflect.Type) []*Listener {
	listeners, _ := d.baked.get(t)
	return listeners
}

func (d *Dispatcher) listenersFor(ctx context.Context, t reflect.Type) []*Listener {
	listeners, hit := d.baked.get(t)
	d.metrics.RecordBake(ctx, hit)
	return listeners
}

// Fire delivers e to every applicable listener on the calling goroutine.
//
// Cancelled Cancellable events skip listeners that do not ignore cancellation.
// The first listener error stops the sequence and is returned as *ListenerError.
// Listener panics are not recovered.
func (d *Dispatcher) Fire(ctx context.Context, e Event) error {
	if isNilEvent(e) {
		return ErrNilEvent
	}
	if _, ok := e.(AsyncEvent); ok {
		return ErrAsyncEventFired.WithData("type", reflect.TypeOf(e).String())
	}
	if d.closed.Load() {
		return ErrDispatcherClosed
	}
	if ctx == nil {
		ctx = context.Background()
	}

	t := reflect.TypeOf(e)
	ctx, span := d.tracer.Start(ctx, "event.fire",
		trace.WithAttributes(attribute.String("event.type", t.String())))
	defer span.End()
	start := time.Now()

	listeners := d.listenersFor(ctx, t)
	run := func(ctx context.Context, e Event) error {
		return d.invokeAll(ctx, e, listeners)
	}
	if interceptors := d.interceptors.Load(); interceptors != nil {
		run = chainInterceptors(*interceptors, run)
	}

	err := run(ctx, e)
	if errors.Is(err, ErrStopPropagation) {
		err = nil
	}

	d.metrics.RecordFired(ctx, t.String(), modeSync, time.Since(start))
	d.logger.DebugCtx(ctx, "event fired",
		zap.String("event", eventName(e)),
		zap.Int("listeners", len(listeners)),
		zap.Bool("failed", err != nil))
	span.SetAttributes(attribute.Int("event.listeners", len(listeners)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (d *Dispatcher) invokeAll(ctx context.Context, e Event, listeners []*Listener) error {
	cancellable, _ := e.(Cancellable)
	label := reflect.TypeOf(e).String()

	for _, l := range listeners {
		if skipCancelled(cancellable, l) || l.IsAsync() || !l.claim() {
			continue
		}

		err := l.handler(ctx, e)
		if l.once {
			d.UnregisterListener(l)
		}

		switch {
		case err == nil:
			d.metrics.RecordInvoked(ctx, label, resultOK)
		case errors.Is(err, ErrStopPropagation):
			d.metrics.RecordInvoked(ctx, label, resultStopped)
			return ErrStopPropagation
		default:
			d.metrics.RecordInvoked(ctx, label, resultError)
			return &ListenerError{Listener: l, EventType: reflect.TypeOf(e), Err: err}
		}
	}
	return nil
}

// skipCancelled the cancellation skip rule shared by Fire and FireAsync
func skipCancelled(c Cancellable, l *Listener) bool {
	return c != nil && c.IsCancelled() && !l.ignoreCancelled
}
