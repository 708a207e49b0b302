package event

import (
	"context"
	"errors"
	"reflect"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/KOMKZ/go-yogan-eventbus/future"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type chainState int

const (
	chainPending chainState = iota
	chainCompleted
	chainFailed
)

func (s chainState) String() string {
	switch s {
	case chainPending:
		return "pending"
	case chainCompleted:
		return "completed"
	case chainFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Controller the right to advance an async chain past one listener.
// Only the first Proceed or Fail counts; calls on a finished chain are ignored.
type Controller struct {
	chain *chain
	step  int
	used  atomic.Bool
}

// Proceed lets the next listener run. Safe to call from any goroutine,
// before or after the listener returns.
func (c *Controller) Proceed() {
	if c.used.CompareAndSwap(false, true) {
		c.chain.proceed(c.step)
	}
}

// Fail ends the chain; the future fails with err wrapped in *ListenerError
func (c *Controller) Fail(err error) {
	if c.used.CompareAndSwap(false, true) {
		c.chain.fail(c.step, err)
	}
}

// chain state machine of one FireAsync call: pending(index) -> completed | failed.
// index moves on Proceed and past skipped listeners; one goroutine at a time runs listeners.
type chain struct {
	d           *Dispatcher
	ctx         context.Context
	event       AsyncEvent
	eventType   reflect.Type
	cancellable Cancellable
	listeners   []*Listener
	future      *future.Future[struct{}]
	span        trace.Span
	start       time.Time

	mu       sync.Mutex
	state    chainState
	index    int
	invoking bool // a run loop is inside a listener
	advanced bool // Proceed arrived during that invocation
}

// FireAsync runs the listeners of e one at a time, each waiting for the previous
// one to call Controller.Proceed. The returned future completes when the chain
// ends and fails with the first listener error, recovered panic or ctx error.
//
// Without an executor the chain starts on the calling goroutine; after that it
// continues on whichever goroutine calls Proceed. A listener that never proceeds
// leaves the future pending, callers should bound Wait with a context.
func (d *Dispatcher) FireAsync(ctx context.Context, e AsyncEvent) *future.Future[struct{}] {
	if isNilEvent(e) {
		return future.Failed[struct{}](ErrNilEvent)
	}
	if d.closed.Load() {
		return future.Failed[struct{}](ErrDispatcherClosed)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	t := reflect.TypeOf(e)
	ctx, span := d.tracer.Start(ctx, "event.fire_async",
		trace.WithAttributes(attribute.String("event.type", t.String())))

	c := &chain{
		d:         d,
		ctx:       ctx,
		event:     e,
		eventType: t,
		listeners: d.listenersFor(ctx, t),
		future:    future.New[struct{}](),
		span:      span,
		start:     time.Now(),
	}
	c.cancellable, _ = e.(Cancellable)
	span.SetAttributes(attribute.Int("event.listeners", len(c.listeners)))
	d.inflight.Add(1)

	if d.executor == nil {
		c.run()
		return c.future
	}
	if err := d.executor.Submit(c.run); err != nil {
		d.logger.ErrorCtx(ctx, "async dispatch rejected by executor",
			zap.Stringer("type", t),
			zap.Error(err))
		c.finish(chainFailed, ErrExecutorRejected.Wrap(err))
	}
	return c.future
}

// run invokes listeners until one holds on to its controller or the chain ends.
// Synchronous proceeds loop here instead of recursing.
func (c *chain) run() {
	for {
		c.mu.Lock()
		if c.state != chainPending || c.invoking {
			c.mu.Unlock()
			return
		}
		l, ok := c.nextLocked()
		if !ok {
			c.mu.Unlock()
			c.finish(chainCompleted, nil)
			return
		}
		if err := c.ctx.Err(); err != nil {
			c.mu.Unlock()
			c.finish(chainFailed, err)
			return
		}
		step := c.index
		c.invoking = true
		c.advanced = false
		c.mu.Unlock()

		err := c.invoke(l, &Controller{chain: c, step: step})
		if l.once {
			c.d.UnregisterListener(l)
		}

		// a failing listener must end the chain before a late Proceed can resume it
		state, result := chainPending, resultOK
		switch {
		case err == nil:
		case errors.Is(err, ErrStopPropagation):
			state, result, err = chainCompleted, resultStopped, nil
		default:
			state, result = chainFailed, resultError
			err = &ListenerError{Listener: l, EventType: c.eventType, Err: err}
		}

		c.mu.Lock()
		c.invoking = false
		advanced := c.advanced
		settled := state != chainPending && c.terminateLocked(state)
		c.mu.Unlock()

		c.d.metrics.RecordInvoked(c.ctx, c.eventType.String(), result)
		if state != chainPending {
			if settled {
				c.settle(state, step, err)
			}
			return
		}
		if !advanced {
			// the listener kept its controller; Proceed resumes the chain
			return
		}
	}
}

// nextLocked skips listeners that must not run and returns the one at index
func (c *chain) nextLocked() (*Listener, bool) {
	for c.index < len(c.listeners) {
		l := c.listeners[c.index]
		if skipCancelled(c.cancellable, l) || !l.claim() {
			c.index++
			continue
		}
		return l, true
	}
	return nil, false
}

func (c *chain) invoke(l *Listener, ctrl *Controller) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()

	if l.asyncHandler != nil {
		return l.asyncHandler(c.ctx, c.event, ctrl)
	}
	if err := l.handler(c.ctx, c.event); err != nil {
		return err
	}
	ctrl.Proceed()
	return nil
}

func (c *chain) proceed(step int) {
	c.mu.Lock()
	if c.state != chainPending || step != c.index {
		c.mu.Unlock()
		return
	}
	c.index++
	if c.invoking {
		c.advanced = true
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	c.run()
}

func (c *chain) fail(step int, err error) {
	if err == nil {
		err = future.ErrNilFailure
	}
	c.mu.Lock()
	if c.state != chainPending || step != c.index {
		c.mu.Unlock()
		return
	}
	l := c.listeners[step]
	c.mu.Unlock()
	c.finish(chainFailed, &ListenerError{Listener: l, EventType: c.eventType, Err: err})
}

// finish moves the chain to a terminal state once and settles the future
func (c *chain) finish(state chainState, err error) {
	c.mu.Lock()
	settled := c.terminateLocked(state)
	index := c.index
	c.mu.Unlock()
	if settled {
		c.settle(state, index, err)
	}
}

func (c *chain) terminateLocked(state chainState) bool {
	if c.state != chainPending {
		return false
	}
	c.state = state
	return true
}

func (c *chain) settle(state chainState, index int, err error) {
	c.d.inflight.Add(-1)
	c.d.metrics.RecordFired(c.ctx, c.eventType.String(), modeAsync, time.Since(c.start))

	if err != nil {
		c.span.RecordError(err)
		c.span.SetStatus(codes.Error, err.Error())
		c.d.logger.WarnCtx(c.ctx, "async event chain failed",
			zap.Stringer("type", c.eventType),
			zap.Int("step", index),
			zap.Error(err))
	}
	c.span.SetAttributes(attribute.String("event.chain_state", state.String()))
	c.span.End()

	if err != nil {
		c.future.Fail(err)
		return
	}
	c.future.Complete(struct{}{})
}
