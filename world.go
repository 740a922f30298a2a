package tenkai

import (
	"reflect"
	"sync"
)

// componentRegistry assigns stable uint8 IDs to component types.
type componentRegistry struct {
	typeToID map[reflect.Type]uint8
	idToType [MaxComponentTypes]reflect.Type
	nextID   uint16
}

func (r *componentRegistry) register(t reflect.Type) uint8 {
	if id, ok := r.typeToID[t]; ok {
		return id
	}
	if r.nextID >= MaxComponentTypes {
		panic("tenkai: too many component types")
	}
	id := uint8(r.nextID)
	r.typeToID[t] = id
	r.idToType[id] = t
	r.nextID++
	return id
}

// World is the aggregate registry owning all component tables and shared
// resources for one simulation instance. Systems never hold tables across
// ticks; they are granted scoped, type-checked access for the duration of a
// single execution.
type World struct {
	entities   entityAllocator
	components componentRegistry
	tables     []storageTable // indexed by component ID
	resources  Resources
	bus        EventBus
	lazy       Lazy

	mu        sync.Mutex
	destroyed []Entity // entities killed since the last Maintain
}

// NewWorld creates and initializes a new World with a specified initial
// capacity for entities. It pre-allocates the entity metadata and free-ID
// list to avoid re-allocations during early ticks.
//
// Parameters:
//   - initialCapacity: The number of entities to pre-allocate slots for.
//
// Returns:
//   - The newly created World.
func NewWorld(initialCapacity int) *World {
	return &World{
		entities: newEntityAllocator(initialCapacity),
		components: componentRegistry{
			typeToID: make(map[reflect.Type]uint8, 16),
		},
		tables: make([]storageTable, 0, 16),
	}
}

// RegisterStorage registers component type T with the default dense-vector
// backing and returns its table. Registering the same type twice returns the
// existing table.
func RegisterStorage[T any](w *World) *Table[T] {
	return RegisterStorageWith[T](w, NewVecBacking[T]())
}

// RegisterStorageWith registers component type T with an explicit backing
// strategy. The backing choice is storage-local and invisible to the
// scheduling contract. If T is already registered the existing table is
// returned and the backing is ignored.
func RegisterStorageWith[T any](w *World, backing Backing[T]) *Table[T] {
	t := reflect.TypeFor[T]()
	if id, ok := w.components.typeToID[t]; ok {
		return w.tables[id].(*Table[T])
	}
	id := w.components.register(t)
	table := &Table[T]{world: w, id: id, back: backing}
	w.tables = append(w.tables, table)
	// one-way subscription: destruction events flow to the table, the table
	// never reaches back into the allocator
	Subscribe(&w.bus, func(ev EntityDestroyed) {
		table.dropIndex(ev.Entity.ID)
	})
	return table
}

// tableFor returns the untyped table registered for a type.
func (w *World) tableFor(t reflect.Type) (storageTable, bool) {
	id, ok := w.components.typeToID[t]
	if !ok {
		return nil, false
	}
	return w.tables[id], true
}

// CreateEntity allocates a new live entity with no components. It never
// fails; backing storage grows as needed.
func (w *World) CreateEntity() Entity {
	return w.entities.create()
}

// DestroyEntity validates the handle and kills the entity. The handle is
// invalid from this point on, but component cleanup is deferred: orphaned
// entries are dropped during the next Maintain, before any later tick can
// read that index. The ID becomes reusable only after that same Maintain,
// so a create in the current tick can never collide with the pending
// cleanup. Returns ErrStaleHandle if the entity is already dead or the
// handle's version does not match.
func (w *World) DestroyEntity(e Entity) error {
	if err := w.entities.destroy(e); err != nil {
		return err
	}
	w.mu.Lock()
	w.destroyed = append(w.destroyed, e)
	w.mu.Unlock()
	return nil
}

// IsAlive reports whether the handle refers to a live entity.
func (w *World) IsAlive(e Entity) bool {
	return w.entities.isAlive(e)
}

// Events returns the world's event bus.
func (w *World) Events() *EventBus {
	return &w.bus
}

// Maintain applies all queued lazy updates, then publishes destruction
// events for entities killed since the last call so tables drop their
// orphaned entries, and finally returns the dead IDs to the allocator's
// free list. The dispatcher calls this after the final stage of every tick;
// embedders driving the world manually should call it at their own tick
// boundary.
func (w *World) Maintain() {
	w.lazy.drain(w)

	w.mu.Lock()
	dead := w.destroyed
	w.destroyed = nil
	w.mu.Unlock()
	for _, e := range dead {
		Publish(&w.bus, EntityDestroyed{Entity: e})
	}
	w.entities.recycle(dead)
}

// EachEntity visits every live entity in ascending index order. This is the
// iteration surface external collaborators (e.g. serializers) build on,
// together with per-table iteration via views.
func (w *World) EachEntity(fn func(Entity)) {
	cur := newBitCursor(w.entities.aliveMask())
	for {
		index, ok := cur.next()
		if !ok {
			return
		}
		fn(Entity{ID: index, Version: w.entities.metas[index].version})
	}
}

// Lazy provides deferred world mutation. Updates queued from inside systems
// run with exclusive world access during Maintain, in submission order, so a
// system can schedule structural changes that would otherwise exceed its
// declared access set.
type Lazy struct {
	mu    sync.Mutex
	queue []func(*World)
}

// Exec queues a closure to run against the world at the next Maintain.
func (l *Lazy) Exec(fn func(*World)) {
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
}

func (l *Lazy) drain(w *World) {
	l.mu.Lock()
	queue := l.queue
	l.queue = nil
	l.mu.Unlock()
	for _, fn := range queue {
		fn(w)
	}
}
