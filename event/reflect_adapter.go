package event

import (
	"context"
	"reflect"
	"strings"
)

// ListenerMetadata lets an object passed to RegisterObject set per-method options
type ListenerMetadata interface {
	ListenerOptions(method string) (priority int8, ignoreCancelled bool)
}

var (
	contextType    = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType      = reflect.TypeOf((*error)(nil)).Elem()
	controllerType = reflect.TypeOf((*Controller)(nil))
)

// RegisterObject registers every exported method of obj named On* with the shape
//
//	func(ctx context.Context, e E) error
//	func(ctx context.Context, e E, c *event.Controller) error
//
// as a listener on E. obj is the owner of every listener, so registering the
// same object again (or a second method for the same E) returns the existing listener.
func (d *Dispatcher) RegisterObject(obj any, opts ...ListenerOption) ([]*Listener, error) {
	if obj == nil {
		return nil, ErrInvalidListener.WithMsgf("nil listener object")
	}
	v := reflect.ValueOf(obj)
	t := v.Type()
	if !t.Comparable() {
		return nil, ErrInvalidListener.WithMsgf("listener object %v is not comparable", t)
	}
	meta, _ := obj.(ListenerMetadata)

	var listeners, added []*Listener
	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		if !strings.HasPrefix(m.Name, "On") {
			continue
		}
		target, async, ok := listenerSignature(m.Type)
		if !ok {
			continue
		}

		var priority int8
		var ignoreCancelled bool
		if meta != nil {
			priority, ignoreCancelled = meta.ListenerOptions(m.Name)
		}
		lopts := []ListenerOption{WithOwner(obj), WithName(t.String() + "." + m.Name)}
		if ignoreCancelled {
			lopts = append(lopts, WithIgnoreCancelled())
		}
		lopts = append(lopts, opts...)

		method := v.Method(i)
		var l *Listener
		var isNew bool
		var err error
		if async {
			l, isNew, err = d.registerAsyncHandler(target, priority, asyncMethodHandler(method, target), lopts)
		} else {
			l, isNew, err = d.registerHandler(target, priority, methodHandler(method, target), lopts)
		}
		if err != nil {
			// roll back this call only; earlier registrations by obj stay
			for _, a := range added {
				d.UnregisterListener(a)
			}
			return nil, err
		}
		if isNew {
			added = append(added, l)
		}
		if !containsListener(listeners, l) {
			listeners = append(listeners, l)
		}
	}

	if len(listeners) == 0 {
		return nil, ErrInvalidListener.WithMsgf("%v has no On* listener methods", t)
	}
	return listeners, nil
}

// UnregisterObject removes every listener owned by obj and returns how many
func (d *Dispatcher) UnregisterObject(obj any) int {
	if obj == nil || !reflect.TypeOf(obj).Comparable() {
		return 0
	}
	owned := d.store.byOwner(obj)
	for _, l := range owned {
		d.UnregisterListener(l)
	}
	return len(owned)
}

// listenerSignature checks func(recv, context.Context, E[, *Controller]) error
func listenerSignature(mt reflect.Type) (target reflect.Type, async bool, ok bool) {
	if mt.NumOut() != 1 || mt.Out(0) != errorType {
		return nil, false, false
	}
	switch mt.NumIn() {
	case 3:
	case 4:
		if mt.In(3) != controllerType {
			return nil, false, false
		}
		async = true
	default:
		return nil, false, false
	}
	if mt.In(1) != contextType || mt.IsVariadic() {
		return nil, false, false
	}
	return mt.In(2), async, true
}

func methodHandler(method reflect.Value, target reflect.Type) Handler {
	return func(ctx context.Context, e Event) error {
		ev, ok := convertEvent(reflect.ValueOf(e), target)
		if !ok {
			return nil
		}
		return callResult(method.Call([]reflect.Value{reflect.ValueOf(&ctx).Elem(), ev}))
	}
}

func asyncMethodHandler(method reflect.Value, target reflect.Type) AsyncHandler {
	return func(ctx context.Context, e Event, c *Controller) error {
		ev, ok := convertEvent(reflect.ValueOf(e), target)
		if !ok {
			c.Proceed()
			return nil
		}
		return callResult(method.Call([]reflect.Value{reflect.ValueOf(&ctx).Elem(), ev, reflect.ValueOf(c)}))
	}
}

func callResult(out []reflect.Value) error {
	if err, ok := out[0].Interface().(error); ok {
		return err
	}
	return nil
}

func containsListener(listeners []*Listener, l *Listener) bool {
	for _, existing := range listeners {
		if existing == l {
			return true
		}
	}
	return false
}
