package event

import (
	"fmt"
	"reflect"
	"slices"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// maxBakeAttempts bounds rebakes when registrations keep racing a miss
const maxBakeAttempts = 3

// bakedGroup merged, sorted listeners for one concrete type
type bakedGroup struct {
	hierarchy map[reflect.Type]struct{}
	listeners []*Listener
}

func (g *bakedGroup) covers(t reflect.Type) bool {
	_, ok := g.hierarchy[t]
	return ok
}

// bakedCache concrete type -> *bakedGroup.
// generation is bumped by every store mutation before eviction; a bake that
// sees it move after publishing removes its own group.
type bakedCache struct {
	groups     sync.Map
	generation atomic.Uint64
	flight     singleflight.Group

	store    *store
	resolver *resolver
}

func newBakedCache(s *store, r *resolver) *bakedCache {
	return &bakedCache{store: s, resolver: r}
}

// get returns the listeners for t, baking on a miss
func (c *bakedCache) get(t reflect.Type) ([]*Listener, bool) {
	if g, ok := c.groups.Load(t); ok {
		return g.(*bakedGroup).listeners, true
	}

	// a flight started before the last mutation must not be joined
	v, _, _ := c.flight.Do(flightKey(t, c.generation.Load()), func() (any, error) {
		return c.bake(t), nil
	})
	return v.([]*Listener), false
}

func (c *bakedCache) bake(t reflect.Type) []*Listener {
	var g *bakedGroup
	for attempt := 0; attempt < maxBakeAttempts; attempt++ {
		gen := c.generation.Load()
		g = c.compute(t)
		c.groups.Store(t, g)
		if c.generation.Load() == gen {
			return g.listeners
		}
		c.groups.CompareAndDelete(t, g)
	}
	// still racing: serve the last snapshot uncached
	return g.listeners
}

// compute merges the store entries of every type in t's hierarchy
func (c *bakedCache) compute(t reflect.Type) *bakedGroup {
	hierarchy := c.resolver.resolve(t)
	g := &bakedGroup{hierarchy: make(map[reflect.Type]struct{}, len(hierarchy))}
	for _, h := range hierarchy {
		g.hierarchy[h] = struct{}{}
		g.listeners = append(g.listeners, c.store.lookup(h)...)
	}
	slices.SortStableFunc(g.listeners, compareListeners)
	return g
}

// invalidate evicts every group depending on t.
// For an interface t, groups of implementing types are evicted too, since
// they were baked before t was known.
func (c *bakedCache) invalidate(t reflect.Type) int {
	c.generation.Add(1)

	iface := t.Kind() == reflect.Interface
	evicted := 0
	c.groups.Range(func(k, v any) bool {
		g := v.(*bakedGroup)
		if g.covers(t) || (iface && k.(reflect.Type).Implements(t)) {
			if c.groups.CompareAndDelete(k, v) {
				evicted++
			}
		}
		return true
	})
	return evicted
}

// peek returns the baked group for t without populating
func (c *bakedCache) peek(t reflect.Type) (*bakedGroup, bool) {
	g, ok := c.groups.Load(t)
	if !ok {
		return nil, false
	}
	return g.(*bakedGroup), true
}

// size number of baked groups
func (c *bakedCache) size() int {
	n := 0
	c.groups.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// flightKey identifies t at generation gen for singleflight
// (type names are not unique across packages)
func flightKey(t reflect.Type, gen uint64) string {
	return fmt.Sprintf("%p/%d", t, gen)
}
