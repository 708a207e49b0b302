package event

import (
	"reflect"
	"slices"
	"sync"
	"sync/atomic"
)

// resolver computes the dispatch targets of a concrete event type:
// the type, its embedded struct ancestors, and the known interfaces it implements.
type resolver struct {
	mu     sync.Mutex // serializes learn
	ifaces atomic.Pointer[[]reflect.Type]

	ancestors sync.Map // reflect.Type -> []reflect.Type
}

func newResolver() *resolver {
	r := &resolver{}
	known := []reflect.Type{eventType}
	r.ifaces.Store(&known)
	return r
}

// learn adds an interface to the known set; reports whether it was new
func (r *resolver) learn(iface reflect.Type) bool {
	if iface.Kind() != reflect.Interface {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cur := *r.ifaces.Load()
	if slices.Contains(cur, iface) {
		return false
	}
	next := make([]reflect.Type, len(cur), len(cur)+1)
	copy(next, cur)
	next = append(next, iface)
	r.ifaces.Store(&next)
	return true
}

// known snapshot of the known interfaces
func (r *resolver) known() []reflect.Type {
	return *r.ifaces.Load()
}

// resolve returns t plus every supertype, sorted by name
func (r *resolver) resolve(t reflect.Type) []reflect.Type {
	set := append([]reflect.Type{t}, r.embedded(t)...)
	for _, iface := range r.known() {
		if iface != t && t.Implements(iface) {
			set = append(set, iface)
		}
	}
	sortTypes(set)
	return set
}

// embedded struct ancestors of t, with t's pointer-ness
func (r *resolver) embedded(t reflect.Type) []reflect.Type {
	if cached, ok := r.ancestors.Load(t); ok {
		return cached.([]reflect.Type)
	}

	ptr := t.Kind() == reflect.Pointer
	root := t
	if ptr {
		root = t.Elem()
	}

	var found []reflect.Type
	seen := map[reflect.Type]struct{}{root: {}}
	queue := []reflect.Type{root}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.Kind() != reflect.Struct {
			continue
		}
		for i := 0; i < cur.NumField(); i++ {
			f := cur.Field(i)
			if !f.Anonymous || !f.IsExported() {
				continue
			}
			ft := f.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() != reflect.Struct {
				continue
			}
			if _, helper := helperTypes[ft]; helper {
				continue
			}
			if _, dup := seen[ft]; dup {
				continue
			}
			seen[ft] = struct{}{}
			queue = append(queue, ft)
			if ptr {
				found = append(found, reflect.PointerTo(ft))
			} else {
				found = append(found, ft)
			}
		}
	}

	r.ancestors.Store(t, found)
	return found
}
