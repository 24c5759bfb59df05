package connection

import (
	"reflect"
	"sync"
)

// Listener receives dispatched events. data is the decoded JSON value for
// "message" and nil for every other category.
//
// Listeners are removed by equality, so implementations must be comparable,
// including any values held in interface fields. Pointer receivers are the
// usual choice.
type Listener interface {
	Handle(data any)
}

type funcListener struct {
	fn func(data any)
}

func (l *funcListener) Handle(data any) { l.fn(data) }

// NewListener wraps fn in a Listener. Every call returns a distinct listener,
// so keep the result to pass to Off later.
func NewListener(fn func(data any)) Listener {
	return &funcListener{fn: fn}
}

// registry holds ordered listeners per category. Slices are replaced, never
// mutated in place, so snapshots stay valid during dispatch.
type registry struct {
	mu        sync.RWMutex
	listeners map[Event][]Listener
}

func newRegistry() *registry {
	r := &registry{listeners: make(map[Event][]Listener, len(Events))}
	for _, ev := range Events {
		r.listeners[ev] = nil
	}
	return r
}

// add appends l to ev. Returns false for unknown categories and listeners
// that cannot be compared.
func (r *registry) add(ev Event, l Listener) bool {
	if !ev.Valid() || !comparableListener(l) {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.listeners[ev]
	next := make([]Listener, len(cur), len(cur)+1)
	copy(next, cur)
	r.listeners[ev] = append(next, l)
	return true
}

// remove drops every occurrence of l from ev.
func (r *registry) remove(ev Event, l Listener) {
	if !ev.Valid() || !comparableListener(l) {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.listeners[ev]
	next := make([]Listener, 0, len(cur))
	for _, existing := range cur {
		if existing != l {
			next = append(next, existing)
		}
	}
	r.listeners[ev] = next
}

// snapshot returns the listeners for ev in registration order.
func (r *registry) snapshot(ev Event) []Listener {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.listeners[ev]
}

// count returns the number of registrations for ev.
func (r *registry) count(ev Event) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.listeners[ev])
}

// comparableListener reports whether l can be compared with == without
// panicking. The dynamic value is checked, so a struct whose interface field
// holds a slice or map is rejected.
func comparableListener(l Listener) bool {
	return l != nil && reflect.ValueOf(l).Comparable()
}
