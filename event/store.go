package event

import (
	"reflect"
	"sort"
	"sync"
)

// listenerSeq immutable, sorted listener slice for one event type
type listenerSeq struct {
	items []*Listener
}

// insert returns a copy with l at its sorted position
func (s *listenerSeq) insert(l *Listener) *listenerSeq {
	idx := sort.Search(len(s.items), func(i int) bool {
		return l.before(s.items[i])
	})
	items := make([]*Listener, 0, len(s.items)+1)
	items = append(items, s.items[:idx]...)
	items = append(items, l)
	items = append(items, s.items[idx:]...)
	return &listenerSeq{items: items}
}

// without returns a copy minus l, nil when nothing is left
func (s *listenerSeq) without(l *Listener) (*listenerSeq, bool) {
	for i, item := range s.items {
		if item != l {
			continue
		}
		if len(s.items) == 1 {
			return nil, true
		}
		items := make([]*Listener, 0, len(s.items)-1)
		items = append(items, s.items[:i]...)
		items = append(items, s.items[i+1:]...)
		return &listenerSeq{items: items}, true
	}
	return s, false
}

func (s *listenerSeq) findOwner(owner any) *Listener {
	for _, item := range s.items {
		if item.owner != nil && item.owner == owner {
			return item
		}
	}
	return nil
}

// store event type -> *listenerSeq.
// Writers swap whole sequences per key; an empty key is deleted.
type store struct {
	entries sync.Map
}

// add inserts l. With an owner already present for the key it returns that listener and false.
func (s *store) add(l *Listener) (*Listener, bool) {
	for {
		cur, ok := s.entries.Load(l.eventType)
		if !ok {
			if _, loaded := s.entries.LoadOrStore(l.eventType, &listenerSeq{items: []*Listener{l}}); !loaded {
				return l, true
			}
			continue
		}

		seq := cur.(*listenerSeq)
		if l.owner != nil {
			if existing := seq.findOwner(l.owner); existing != nil {
				return existing, false
			}
		}
		if s.entries.CompareAndSwap(l.eventType, cur, seq.insert(l)) {
			return l, true
		}
	}
}

// remove deletes l by identity
func (s *store) remove(l *Listener) bool {
	for {
		cur, ok := s.entries.Load(l.eventType)
		if !ok {
			return false
		}

		next, found := cur.(*listenerSeq).without(l)
		if !found {
			return false
		}
		if next == nil {
			if s.entries.CompareAndDelete(l.eventType, cur) {
				return true
			}
			continue
		}
		if s.entries.CompareAndSwap(l.eventType, cur, next) {
			return true
		}
	}
}

// lookup returns the current sequence for t; callers must not modify it
func (s *store) lookup(t reflect.Type) []*Listener {
	if cur, ok := s.entries.Load(t); ok {
		return cur.(*listenerSeq).items
	}
	return nil
}

// byOwner every listener registered with owner
func (s *store) byOwner(owner any) []*Listener {
	var found []*Listener
	s.entries.Range(func(_, v any) bool {
		for _, l := range v.(*listenerSeq).items {
			if l.owner != nil && l.owner == owner {
				found = append(found, l)
			}
		}
		return true
	})
	return found
}

// types registered event types sorted by name
func (s *store) types() []reflect.Type {
	var types []reflect.Type
	s.entries.Range(func(k, _ any) bool {
		types = append(types, k.(reflect.Type))
		return true
	})
	sortTypes(types)
	return types
}

func sortTypes(types []reflect.Type) {
	sort.Slice(types, func(i, j int) bool {
		return types[i].String() < types[j].String()
	})
}
