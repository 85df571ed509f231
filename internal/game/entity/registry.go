package entity

import (
	"fmt"

	"github.com/elliotchance/orderedmap/v2"
)

// Registry tracks live entities in spawn order.
// It is not safe for concurrent use; the simulation loop owns it.
type Registry struct {
	entries *orderedmap.OrderedMap[ID, Entity]
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: orderedmap.NewOrderedMap[ID, Entity]()}
}

// Add registers e under its ID.
//
// Precondition: e must be non-nil with a non-empty ID.
// Postcondition: Returns an error if the ID is empty or already registered.
func (r *Registry) Add(e Entity) error {
	if e == nil {
		return fmt.Errorf("entity registry: nil entity")
	}
	id := e.ID()
	if id.Empty() {
		return fmt.Errorf("entity registry: empty id")
	}
	if _, exists := r.entries.Get(id); exists {
		return fmt.Errorf("entity registry: %q already registered", id)
	}
	r.entries.Set(id, e)
	return nil
}

// Remove unregisters id. Removing an unknown ID is a no-op.
//
// Postcondition: Get(id) reports false.
func (r *Registry) Remove(id ID) {
	r.entries.Delete(id)
}

// Get returns the entity registered under id.
func (r *Registry) Get(id ID) (Entity, bool) {
	return r.entries.Get(id)
}

// Len returns the number of registered entities.
func (r *Registry) Len() int {
	return r.entries.Len()
}

// All returns the registered entities in registration order.
// The slice is a new allocation.
func (r *Registry) All() []Entity {
	out := make([]Entity, 0, r.entries.Len())
	for el := r.entries.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value)
	}
	return out
}

// Lookup returns the entity registered under id resolved to capability T.
//
// Postcondition: ok is false if id is unknown or the entity lacks T.
func Lookup[T any](r *Registry, id ID) (T, bool) {
	e, ok := r.Get(id)
	if !ok {
		var zero T
		return zero, false
	}
	return As[T](e)
}

// Collect returns every registered entity implementing T, in registration order.
func Collect[T any](r *Registry) []T {
	var out []T
	for el := r.entries.Front(); el != nil; el = el.Next() {
		if v, ok := el.Value.(T); ok {
			out = append(out, v)
		}
	}
	return out
}
