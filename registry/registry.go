package registry

import (
	"sort"

	"github.com/wippyai/webbridge"
)

// Registry maps instance ids to bindings.
type Registry struct {
	entries   map[int]webbridge.Binding
	observers []Observer
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		entries: make(map[int]webbridge.Binding),
	}
}

// Insert stores b under id. It returns false without change if id is
// negative or already present.
func (r *Registry) Insert(id int, b webbridge.Binding) bool {
	if id < 0 || b == nil {
		return false
	}
	if _, exists := r.entries[id]; exists {
		return false
	}
	r.entries[id] = b
	r.notify(Event{Type: EventCreated, ID: id, Binding: b})
	return true
}

// Get retrieves a binding by id.
func (r *Registry) Get(id int) (webbridge.Binding, bool) {
	b, ok := r.entries[id]
	return b, ok
}

// Principal returns the binding at id 0.
func (r *Registry) Principal() (webbridge.Binding, bool) {
	return r.Get(Principal)
}

// Remove drops an entry and returns (binding, true) if it was present.
func (r *Registry) Remove(id int) (webbridge.Binding, bool) {
	b, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	delete(r.entries, id)
	r.notify(Event{Type: EventDisposed, ID: id, Binding: b})
	return b, true
}

// Clear drops all entries, highest id first so the principal goes last.
func (r *Registry) Clear() {
	ids := r.IDs()
	for i := len(ids) - 1; i >= 0; i-- {
		r.Remove(ids[i])
	}
}

// Len returns the number of live instances.
func (r *Registry) Len() int {
	return len(r.entries)
}

// IDs returns live ids in ascending order.
func (r *Registry) IDs() []int {
	ids := make([]int, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Each visits entries in ascending id order until fn returns false.
func (r *Registry) Each(fn func(id int, b webbridge.Binding) bool) {
	for _, id := range r.IDs() {
		if !fn(id, r.entries[id]) {
			return
		}
	}
}

// Subscribe adds an observer for lifecycle events.
func (r *Registry) Subscribe(o Observer) {
	r.observers = append(r.observers, o)
}

// Unsubscribe removes an observer.
func (r *Registry) Unsubscribe(o Observer) {
	for i, obs := range r.observers {
		if obs == o {
			r.observers = append(r.observers[:i], r.observers[i+1:]...)
			return
		}
	}
}

func (r *Registry) notify(e Event) {
	for _, o := range r.observers {
		o.OnInstanceEvent(e)
	}
}
