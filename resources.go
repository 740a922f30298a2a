package tenkai

import "reflect"

// Resources manages the world's shared singletons, at most one value per
// type. It uses a slice for storage and a map for type-to-ID lookup so that
// descriptor compilation and scoped access both resolve in O(1).
type Resources struct {
	items  []any
	typeID map[reflect.Type]uint8
}

// add stores a resource held behind a pointer and returns its ID, keyed by
// the pointee type. Panics if a resource of the same type already exists or
// the type registry is full.
func (r *Resources) add(res any) uint8 {
	if res == nil {
		panic("tenkai: cannot add nil resource")
	}
	t := reflect.TypeOf(res).Elem()
	if r.typeID == nil {
		r.typeID = make(map[reflect.Type]uint8, 8)
	}
	if _, ok := r.typeID[t]; ok {
		panic("tenkai: resource of the same type already exists")
	}
	if len(r.items) >= MaxResourceTypes {
		panic("tenkai: too many resource types")
	}
	id := uint8(len(r.items))
	r.items = append(r.items, res)
	r.typeID[t] = id
	return id
}

// lookup returns the ID for a resource type, if registered.
func (r *Resources) lookup(t reflect.Type) (uint8, bool) {
	id, ok := r.typeID[t]
	return id, ok
}

// get retrieves the resource by ID, or nil.
func (r *Resources) get(id uint8) any {
	if int(id) >= len(r.items) {
		return nil
	}
	return r.items[id]
}

// AddResource stores a shared resource singleton in the world. The value is
// held as *T so systems granted write access mutate it in place. Panics if a
// resource of type T was already added.
func AddResource[T any](w *World, value T) {
	v := value
	w.resources.add(&v)
}

// HasResource reports whether a resource of type T exists in the world.
func HasResource[T any](w *World) bool {
	_, ok := w.resources.lookup(reflect.TypeFor[T]())
	return ok
}
