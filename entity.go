package tenkai

import (
	"sync"

	"github.com/kelindar/bitmap"
	"github.com/rotisserie/eris"
)

// Entity represents a unique identifier for an object in the World. It
// combines a 32-bit ID with a 32-bit version to ensure that recycled IDs are
// not confused with new entities. Two handles are equal only if both fields
// match.
type Entity struct {
	// ID is the unique, recyclable identifier for the entity.
	ID uint32
	// Version is a generation counter to protect against stale entity
	// references. A fresh value is assigned each time an entity ID is reused.
	Version uint32
}

// entityMeta holds the internal state of an entity slot.
type entityMeta struct {
	version uint32 // current version, 0 if the slot is dead
}

// entityAllocator issues and recycles entity IDs. Creation and destruction
// are serialized with a mutex so they cannot race storage mutation from a
// concurrently running stage; the planner already keeps conflicting systems
// in separate stages, so the lock is a correctness backstop, not a
// scheduling mechanism.
type entityAllocator struct {
	mu      sync.Mutex
	metas   []entityMeta
	freeIDs []uint32 // stack of recycled entity IDs
	alive   bitmap.Bitmap
	nextVer uint32 // version for the next created entity
}

func newEntityAllocator(initialCapacity int) entityAllocator {
	freeIDs := make([]uint32, initialCapacity)
	for i := range freeIDs {
		// fill freeIDs with [cap-1 .. 0] so IDs are handed out ascending
		freeIDs[i] = uint32(initialCapacity - 1 - i)
	}
	return entityAllocator{
		metas:   make([]entityMeta, initialCapacity),
		freeIDs: freeIDs,
		nextVer: 1,
	}
}

// create pops a free ID (growing the meta table when none remain) and stamps
// it with a fresh version. It never fails.
func (a *entityAllocator) create() Entity {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.freeIDs) == 0 {
		a.expand()
	}
	last := len(a.freeIDs) - 1
	id := a.freeIDs[last]
	a.freeIDs = a.freeIDs[:last]
	a.metas[id].version = a.nextVer
	a.alive.Set(id)
	a.nextVer++
	return Entity{ID: id, Version: a.metas[id].version}
}

// destroy validates the handle and clears liveness. The slot's version is
// zeroed; a later create stamps a version never issued before, so the
// destroyed handle can never match again. The ID is deliberately not
// returned to the free list here: recycling waits until the destruction
// event has flushed (see recycle), otherwise a create in the same tick
// could reuse the index and the deferred cleanup would drop the new, live
// entity's components.
func (a *entityAllocator) destroy(e Entity) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.isAliveLocked(e) {
		return eris.Wrapf(ErrStaleHandle, "destroy entity %d v%d", e.ID, e.Version)
	}
	a.metas[e.ID].version = 0
	a.alive.Remove(e.ID)
	return nil
}

// recycle returns destroyed IDs to the free list. The world calls this
// during Maintain, after every table has dropped its orphaned entries.
func (a *entityAllocator) recycle(dead []Entity) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, e := range dead {
		a.freeIDs = append(a.freeIDs, e.ID)
	}
}

// isAlive reports whether the handle refers to a live entity. Pure query,
// no side effects.
func (a *entityAllocator) isAlive(e Entity) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.isAliveLocked(e)
}

func (a *entityAllocator) isAliveLocked(e Entity) bool {
	if int(e.ID) >= len(a.metas) {
		return false
	}
	m := a.metas[e.ID]
	return m.version != 0 && m.version == e.Version
}

// expand doubles capacity when the free list runs dry.
func (a *entityAllocator) expand() {
	oldCap := len(a.metas)
	newCap := oldCap * 2
	if newCap == 0 {
		newCap = 16
	}
	delta := newCap - oldCap
	a.metas = append(a.metas, make([]entityMeta, delta)...)
	for i := 0; i < delta; i++ {
		a.freeIDs = append(a.freeIDs, uint32(newCap-1-i))
	}
}

// aliveMask exposes the liveness bitmap for query iteration. Callers must
// not mutate it.
func (a *entityAllocator) aliveMask() bitmap.Bitmap {
	return a.alive
}

// EntityDestroyed is published on the world's event bus for every entity
// removed during Maintain. Component tables subscribe to it to drop orphaned
// entries; embedders may subscribe to it as well.
type EntityDestroyed struct {
	Entity Entity
}
