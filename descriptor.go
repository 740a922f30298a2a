package tenkai

import (
	"reflect"

	"github.com/kelindar/bitmap"
	"github.com/rotisserie/eris"
)

// declKind distinguishes what a single access declaration covers.
type declKind uint8

const (
	declComponentRead declKind = iota
	declComponentWrite
	declResourceRead
	declResourceWrite
	declEntityRead
	declEntityWrite
)

// AccessDecl is one entry of a system's access contract. Declarations are
// produced by the generic helpers below and carry a setup hook so that
// component and resource types a descriptor names are materialized in the
// world at plan-build time.
type AccessDecl struct {
	typ   reflect.Type
	kind  declKind
	setup func(*World)
}

// Reads declares shared access to component type T. Multiple systems in the
// same stage may read T concurrently. Component access carries an implied
// read claim on the entity allocator, since iterating a table consults
// liveness.
func Reads[T any]() AccessDecl {
	return AccessDecl{
		typ:   reflect.TypeFor[T](),
		kind:  declComponentRead,
		setup: func(w *World) { RegisterStorage[T](w) },
	}
}

// Writes declares exclusive access to component type T. The planner places
// the declaring system in a stage where no other system touches T.
func Writes[T any]() AccessDecl {
	return AccessDecl{
		typ:   reflect.TypeFor[T](),
		kind:  declComponentWrite,
		setup: func(w *World) { RegisterStorage[T](w) },
	}
}

// ReadsResource declares shared access to the resource singleton of type T.
// If the world has no such resource when the plan is built, a zero value is
// inserted.
func ReadsResource[T any]() AccessDecl {
	return AccessDecl{
		typ:   reflect.TypeFor[T](),
		kind:  declResourceRead,
		setup: setupResource[T],
	}
}

// WritesResource declares exclusive access to the resource singleton of
// type T, inserting a zero value at build time if absent.
func WritesResource[T any]() AccessDecl {
	return AccessDecl{
		typ:   reflect.TypeFor[T](),
		kind:  declResourceWrite,
		setup: setupResource[T],
	}
}

func setupResource[T any](w *World) {
	if !HasResource[T](w) {
		var zero T
		AddResource(w, zero)
	}
}

// ReadsEntities declares shared access to the entity allocator: liveness
// queries and iteration.
func ReadsEntities() AccessDecl {
	return AccessDecl{kind: declEntityRead}
}

// WritesEntities declares exclusive access to the entity allocator: entity
// creation and destruction. Systems creating or destroying entities conflict
// with every other system that touches the allocator — including every
// system with component access, whose iteration reads liveness.
func WritesEntities() AccessDecl {
	return AccessDecl{kind: declEntityWrite}
}

// Descriptor is the static access contract of one system: which component
// types it reads and writes, which resources it touches, and whether it
// drives the entity allocator. It is computed once, before scheduling, and
// never consulted again mid-tick.
type Descriptor struct {
	decls []AccessDecl
}

// NewDescriptor bundles access declarations into a descriptor.
func NewDescriptor(decls ...AccessDecl) *Descriptor {
	return &Descriptor{decls: decls}
}

// accessSet is a descriptor compiled against a world's type registries:
// two bitmaps over the unified access-ID space.
type accessSet struct {
	reads  bitmap.Bitmap
	writes bitmap.Bitmap
}

// conflicts reports whether two systems may not share a stage: one writing
// anything the other reads or writes.
func (a accessSet) conflicts(b accessSet) bool {
	return maskIntersects(a.writes, b.writes) ||
		maskIntersects(a.writes, b.reads) ||
		maskIntersects(a.reads, b.writes)
}

func (a accessSet) canRead(id uint32) bool {
	return a.reads.Contains(id) || a.writes.Contains(id)
}

func (a accessSet) canWrite(id uint32) bool {
	return a.writes.Contains(id)
}

// compile registers every declared type in the world and resolves the
// declarations to access IDs. Fails if the same type appears in both the
// read and the write set of this descriptor.
func (d *Descriptor) compile(w *World) (accessSet, error) {
	var set accessSet
	var touchesComponents bool
	for _, decl := range d.decls {
		if decl.setup != nil {
			decl.setup(w)
		}
		var id uint32
		var write bool
		switch decl.kind {
		case declComponentRead, declComponentWrite:
			id = uint32(w.components.typeToID[decl.typ])
			write = decl.kind == declComponentWrite
			touchesComponents = true
		case declResourceRead, declResourceWrite:
			rid, _ := w.resources.lookup(decl.typ)
			id = resourceAccessOffset + uint32(rid)
			write = decl.kind == declResourceWrite
		case declEntityRead, declEntityWrite:
			id = entityAccessID
			write = decl.kind == declEntityWrite
		}
		if write {
			set.writes.Set(id)
		} else {
			set.reads.Set(id)
		}
	}
	if maskIntersects(set.reads, set.writes) {
		return accessSet{}, eris.Wrapf(ErrOverlappingAccess, "descriptor declares overlapping read and write sets")
	}
	// table iteration consults the alive bitmap, so component access is
	// also a read of allocator state; claiming it here keeps allocator
	// writers out of the same stage
	if touchesComponents && !set.canRead(entityAccessID) {
		set.reads.Set(entityAccessID)
	}
	return set, nil
}
