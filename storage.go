package tenkai

import (
	"reflect"

	"github.com/kelindar/bitmap"
)

// Backing is the pluggable storage strategy behind a component table. It maps
// an entity index to a value of T and is not concerned with liveness or
// generations; the owning Table tracks presence in a bitmap and never calls
// into a backing for an index it has not inserted.
//
// Implementations need not be safe for concurrent mutation. The scheduler
// guarantees at most one writer per table per stage.
type Backing[T any] interface {
	// Get returns a pointer to the value stored at index. Only called for
	// indices previously passed to Put and not yet removed.
	Get(index uint32) *T
	// Put stores a value at index, growing as needed.
	Put(index uint32, value T)
	// Remove drops the value at index.
	Remove(index uint32)
}

// VecBacking stores components in a flat slice indexed directly by entity
// index. Fastest access, memory proportional to the highest live index. This
// is the default strategy.
type VecBacking[T any] struct {
	data []T
}

// NewVecBacking creates a dense-vector backing.
func NewVecBacking[T any]() *VecBacking[T] {
	return &VecBacking[T]{}
}

func (b *VecBacking[T]) Get(index uint32) *T {
	return &b.data[index]
}

func (b *VecBacking[T]) Put(index uint32, value T) {
	if int(index) >= len(b.data) {
		b.data = extendSlice(b.data, int(index)+1-len(b.data))
	}
	b.data[index] = value
}

func (b *VecBacking[T]) Remove(index uint32) {
	var zero T
	if int(index) < len(b.data) {
		b.data[index] = zero
	}
}

// DenseBacking stores components in a packed slice with a sparse index
// table, a classic sparse set. Values stay contiguous under removal
// (swap-with-last), so memory is proportional to the number of live values.
// Suited to components carried by few entities.
type DenseBacking[T any] struct {
	sparse []int32 // entity index -> dense slot, -1 when absent
	dense  []T
	owners []uint32 // dense slot -> entity index
}

// NewDenseBacking creates a sparse-set backing.
func NewDenseBacking[T any]() *DenseBacking[T] {
	return &DenseBacking[T]{}
}

func (b *DenseBacking[T]) Get(index uint32) *T {
	return &b.dense[b.sparse[index]]
}

func (b *DenseBacking[T]) Put(index uint32, value T) {
	if int(index) >= len(b.sparse) {
		grown := extendSlice(b.sparse, int(index)+1-len(b.sparse))
		for i := len(b.sparse); i < len(grown); i++ {
			grown[i] = -1
		}
		b.sparse = grown
	}
	if slot := b.sparse[index]; slot >= 0 {
		b.dense[slot] = value
		return
	}
	b.sparse[index] = int32(len(b.dense))
	b.dense = append(b.dense, value)
	b.owners = append(b.owners, index)
}

func (b *DenseBacking[T]) Remove(index uint32) {
	if int(index) >= len(b.sparse) || b.sparse[index] < 0 {
		return
	}
	slot := b.sparse[index]
	last := int32(len(b.dense) - 1)
	if slot < last {
		// swap last into the vacated slot
		b.dense[slot] = b.dense[last]
		b.owners[slot] = b.owners[last]
		b.sparse[b.owners[slot]] = slot
	}
	b.dense = b.dense[:last]
	b.owners = b.owners[:last]
	b.sparse[index] = -1
}

// MapBacking stores components in a hash map. Suited to very sparse
// components over large index ranges.
type MapBacking[T any] struct {
	data map[uint32]*T
}

// NewMapBacking creates a hash-map backing.
func NewMapBacking[T any]() *MapBacking[T] {
	return &MapBacking[T]{data: make(map[uint32]*T)}
}

func (b *MapBacking[T]) Get(index uint32) *T {
	return b.data[index]
}

func (b *MapBacking[T]) Put(index uint32, value T) {
	v := value
	b.data[index] = &v
}

func (b *MapBacking[T]) Remove(index uint32) {
	delete(b.data, index)
}

// Table is the component storage for one registered type: a presence bitmap
// over entity indices plus a pluggable Backing holding the values. Tables
// are owned by the World; systems reach them only through scoped access
// handles for the duration of a single execution.
type Table[T any] struct {
	world *World
	id    uint8
	mask  bitmap.Bitmap
	back  Backing[T]
}

// storageTable is the untyped face a Table presents to the World registry.
type storageTable interface {
	componentID() uint8
	componentType() reflect.Type
	dropIndex(index uint32)
}

func (t *Table[T]) componentID() uint8          { return t.id }
func (t *Table[T]) componentType() reflect.Type { return reflect.TypeFor[T]() }

// dropIndex removes the entry for a destroyed entity index, if present.
func (t *Table[T]) dropIndex(index uint32) {
	if t.mask.Contains(index) {
		t.mask.Remove(index)
		t.back.Remove(index)
	}
}

// Get returns a pointer to the component for a live entity. The second
// return is false for dead entities, stale handles, or entities without the
// component.
//
// The Table surface is meant for setup and for external collaborators such
// as serializers, between ticks. Inside a system body use the scoped handles
// instead, so the access contract is enforced.
func (t *Table[T]) Get(e Entity) (*T, bool) {
	if !t.world.entities.isAlive(e) || !t.mask.Contains(e.ID) {
		return nil, false
	}
	return t.back.Get(e.ID), true
}

// Has reports whether a live entity carries this component.
func (t *Table[T]) Has(e Entity) bool {
	return t.world.entities.isAlive(e) && t.mask.Contains(e.ID)
}

// Set inserts or overwrites the component for a live entity. Reports whether
// the handle was valid.
func (t *Table[T]) Set(e Entity, value T) bool {
	if !t.world.entities.isAlive(e) {
		return false
	}
	t.back.Put(e.ID, value)
	t.mask.Set(e.ID)
	return true
}

// Remove drops the component for a live entity. Reports whether a value was
// present.
func (t *Table[T]) Remove(e Entity) bool {
	if !t.world.entities.isAlive(e) || !t.mask.Contains(e.ID) {
		return false
	}
	t.mask.Remove(e.ID)
	t.back.Remove(e.ID)
	return true
}

// Each visits every live entity holding this component, ascending by index.
func (t *Table[T]) Each(fn func(Entity, *T)) {
	alive := t.world.entities.aliveMask()
	cur := newBitCursor(t.mask, alive)
	for {
		index, ok := cur.next()
		if !ok {
			return
		}
		e := Entity{ID: index, Version: t.world.entities.metas[index].version}
		fn(e, t.back.Get(index))
	}
}
