package event

import (
	"fmt"
	"reflect"
	"strings"
)

// CountListenersFor number of listeners a fire of t would reach.
// Uses the baked group when present and never bakes.
func (d *Dispatcher) CountListenersFor(t reflect.Type) int {
	if t == nil {
		return 0
	}
	if g, ok := d.baked.peek(t); ok {
		return len(g.listeners)
	}
	n := 0
	for _, h := range d.resolver.resolve(t) {
		n += len(d.store.lookup(h))
	}
	return n
}

// DebugListenersFor registered and baked listeners of t, for diagnostics
func (d *Dispatcher) DebugListenersFor(t reflect.Type) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Listeners for %v\n", t)
	if t == nil {
		return b.String()
	}

	registered := d.store.lookup(t)
	fmt.Fprintf(&b, "  registered (%d):\n", len(registered))
	for _, l := range registered {
		fmt.Fprintf(&b, "    - %s\n", l)
	}

	g, ok := d.baked.peek(t)
	if !ok {
		b.WriteString("  baked: not baked\n")
		return b.String()
	}
	hierarchy := make([]reflect.Type, 0, len(g.hierarchy))
	for h := range g.hierarchy {
		hierarchy = append(hierarchy, h)
	}
	sortTypes(hierarchy)
	names := make([]string, len(hierarchy))
	for i, h := range hierarchy {
		names[i] = h.String()
	}
	fmt.Fprintf(&b, "  baked (%d) over [%s]:\n", len(g.listeners), strings.Join(names, ", "))
	for _, l := range g.listeners {
		fmt.Fprintf(&b, "    - %s (on %v)\n", l, l.eventType)
	}
	return b.String()
}

// DebugAll every registered type with its listeners
func (d *Dispatcher) DebugAll() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dispatcher %s (baked groups: %d, known interfaces: %d)\n",
		d.id, d.baked.size(), len(d.resolver.known()))

	types := d.store.types()
	if len(types) == 0 {
		b.WriteString("(Empty)\n")
		return b.String()
	}
	for _, t := range types {
		listeners := d.store.lookup(t)
		fmt.Fprintf(&b, "%v (%d):\n", t, len(listeners))
		for _, l := range listeners {
			fmt.Fprintf(&b, "  - %s\n", l)
		}
	}
	return b.String()
}
