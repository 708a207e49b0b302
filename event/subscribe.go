package event

import (
	"context"
	"reflect"
)

// maxEmbedDepth bounds the embedded-field walk in As
const maxEmbedDepth = 16

// TypeOf the reflect.Type registration key for E
//
//	d.RegisterListener(event.TypeOf[*OrderPlaced](), 0, handler)
func TypeOf[E any]() reflect.Type {
	return reflect.TypeOf((*E)(nil)).Elem()
}

// As returns e as E. When e is not an E it looks for an embedded E, so a
// listener on *Animal receives the Animal inside a fired *Dog.
func As[E any](e Event) (E, bool) {
	if v, ok := e.(E); ok {
		return v, true
	}
	var zero E
	if e == nil {
		return zero, false
	}
	v, ok := convertEvent(reflect.ValueOf(e), TypeOf[E]())
	if !ok {
		return zero, false
	}
	return v.Interface().(E), true
}

// Subscribe registers a typed handler for E
//
//	event.Subscribe(d, 0, func(ctx context.Context, e *OrderPlaced) error {
//		return notify(ctx, e.OrderID)
//	})
func Subscribe[E any](d *Dispatcher, priority int8, fn func(context.Context, E) error, opts ...ListenerOption) (*Listener, error) {
	if fn == nil {
		return nil, ErrInvalidListener.WithMsgf("nil handler for %v", TypeOf[E]())
	}
	h := func(ctx context.Context, e Event) error {
		v, ok := As[E](e)
		if !ok {
			return nil
		}
		return fn(ctx, v)
	}
	opts = append([]ListenerOption{WithName(funcName(fn))}, opts...)
	return d.RegisterListener(TypeOf[E](), priority, h, opts...)
}

// SubscribeAsync registers a typed FireAsync chain handler for E
func SubscribeAsync[E AsyncEvent](d *Dispatcher, priority int8, fn func(context.Context, E, *Controller) error, opts ...ListenerOption) (*Listener, error) {
	if fn == nil {
		return nil, ErrInvalidListener.WithMsgf("nil async handler for %v", TypeOf[E]())
	}
	h := func(ctx context.Context, e Event, c *Controller) error {
		v, ok := As[E](e)
		if !ok {
			c.Proceed()
			return nil
		}
		return fn(ctx, v, c)
	}
	opts = append([]ListenerOption{WithName(funcName(fn))}, opts...)
	return d.RegisterAsyncListener(TypeOf[E](), priority, h, opts...)
}

// convertEvent returns v as target, directly or through an embedded field
func convertEvent(v reflect.Value, target reflect.Type) (reflect.Value, bool) {
	if !v.IsValid() {
		return reflect.Value{}, false
	}
	if v.Type().AssignableTo(target) {
		return v, true
	}
	return embeddedValue(v, target, 0)
}

func embeddedValue(v reflect.Value, target reflect.Type, depth int) (reflect.Value, bool) {
	if depth > maxEmbedDepth {
		return reflect.Value{}, false
	}
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}

	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.Anonymous || !f.IsExported() {
			continue
		}
		fv := v.Field(i)
		if found, ok := matchField(fv, target); ok {
			return found, true
		}
	}
	// breadth before depth, so the shallowest embedding wins
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.Anonymous || !f.IsExported() {
			continue
		}
		if found, ok := embeddedValue(v.Field(i), target, depth+1); ok {
			return found, true
		}
	}
	return reflect.Value{}, false
}

func matchField(fv reflect.Value, target reflect.Type) (reflect.Value, bool) {
	ft := fv.Type()
	switch {
	case ft.AssignableTo(target):
		if ft.Kind() == reflect.Pointer && fv.IsNil() {
			return reflect.Value{}, false
		}
		return fv, true
	case ft.Kind() == reflect.Pointer && ft.Elem().AssignableTo(target):
		if fv.IsNil() {
			return reflect.Value{}, false
		}
		return fv.Elem(), true
	case fv.CanAddr() && reflect.PointerTo(ft).AssignableTo(target):
		return fv.Addr(), true
	}
	return reflect.Value{}, false
}
