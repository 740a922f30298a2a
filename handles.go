package tenkai

import (
	"context"
	"reflect"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Access is the scoped, type-checked handle a system receives for the
// duration of one execution. Every fetch is validated against the system's
// compiled descriptor; touching an undeclared type raises an
// AccessViolation panic, which the executor treats as a fatal invariant
// breach rather than a recoverable system failure.
//
// Pointers obtained through a read-declared handle must not be written
// through; the declaration, not the pointer type, is the contract the
// planner proved race-free.
type Access struct {
	world  *World
	system string
	ctx    context.Context
	set    accessSet
}

// Context returns the tick context. Systems performing asynchronous work
// should honor its cancellation.
func (a *Access) Context() context.Context { return a.ctx }

// Lazy returns the world's deferred-update queue. It is reachable from any
// system regardless of declared access; queued closures run with exclusive
// world access at the tick boundary.
func (a *Access) Lazy() *Lazy { return &a.world.lazy }

// Entities returns the entity allocator handle. Requires declared entity
// access (ReadsEntities or WritesEntities).
func (a *Access) Entities() EntityAccess {
	if !a.set.canRead(entityAccessID) {
		panic(&AccessViolation{System: a.system, Type: reflect.TypeFor[Entity](), Mode: "read"})
	}
	return EntityAccess{world: a.world, system: a.system, canWrite: a.set.canWrite(entityAccessID)}
}

// ViewOf returns a read handle for component type T. Requires T in the
// system's read or write set.
func ViewOf[T any](a *Access) View[T] {
	t := reflect.TypeFor[T]()
	id, ok := a.world.components.typeToID[t]
	if !ok || !a.set.canRead(uint32(id)) {
		panic(&AccessViolation{System: a.system, Type: t, Mode: "read"})
	}
	return View[T]{table: a.world.tables[id].(*Table[T])}
}

// MutOf returns a write handle for component type T. Requires T in the
// system's write set.
func MutOf[T any](a *Access) Mut[T] {
	t := reflect.TypeFor[T]()
	id, ok := a.world.components.typeToID[t]
	if !ok || !a.set.canWrite(uint32(id)) {
		panic(&AccessViolation{System: a.system, Type: t, Mode: "write"})
	}
	return Mut[T]{View[T]{table: a.world.tables[id].(*Table[T])}}
}

// ResourceOf returns the resource singleton of type T for reading. Requires
// T in the system's resource read or write set.
func ResourceOf[T any](a *Access) *T {
	return fetchResource[T](a, false)
}

// MutResourceOf returns the resource singleton of type T for mutation.
// Requires T in the system's resource write set.
func MutResourceOf[T any](a *Access) *T {
	return fetchResource[T](a, true)
}

func fetchResource[T any](a *Access, write bool) *T {
	t := reflect.TypeFor[T]()
	mode := "read"
	if write {
		mode = "write"
	}
	rid, ok := a.world.resources.lookup(t)
	if !ok {
		panic(&AccessViolation{System: a.system, Type: t, Mode: mode})
	}
	id := resourceAccessOffset + uint32(rid)
	if write && !a.set.canWrite(id) || !write && !a.set.canRead(id) {
		panic(&AccessViolation{System: a.system, Type: t, Mode: mode})
	}
	return a.world.resources.get(rid).(*T)
}

// View is a scoped read handle over one component table.
type View[T any] struct {
	table *Table[T]
}

// Get returns the component for a live entity. The second return is false
// for dead entities, stale handles, or entities without the component.
func (v View[T]) Get(e Entity) (*T, bool) {
	return v.table.Get(e)
}

// Has reports whether a live entity carries the component.
func (v View[T]) Has(e Entity) bool {
	return v.table.Has(e)
}

// Each visits every live entity holding the component, ascending by entity
// index.
func (v View[T]) Each(fn func(Entity, *T)) {
	v.table.Each(fn)
}

// ParEach visits every live entity holding the component, fanning the work
// out across up to GOMAXPROCS goroutines. The visit function may be called
// concurrently and must not touch any state outside the system's declared
// access. Iteration stops on the first error or context cancellation.
func (v View[T]) ParEach(ctx context.Context, fn func(Entity, *T) error) error {
	type slot struct {
		e Entity
		p *T
	}
	var items []slot
	v.table.Each(func(e Entity, p *T) {
		items = append(items, slot{e, p})
	})
	if len(items) == 0 {
		return nil
	}
	workers := min(runtime.GOMAXPROCS(0), len(items))
	chunk := (len(items) + workers - 1) / workers
	g, ctx := errgroup.WithContext(ctx)
	for start := 0; start < len(items); start += chunk {
		part := items[start:min(start+chunk, len(items))]
		g.Go(func() error {
			for _, it := range part {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := fn(it.e, it.p); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// Mut is a scoped write handle over one component table. It embeds the read
// surface.
type Mut[T any] struct {
	View[T]
}

// Set inserts or overwrites the component for a live entity. Reports false
// for a stale handle.
func (m Mut[T]) Set(e Entity, value T) bool {
	return m.table.Set(e, value)
}

// Remove drops the component from a live entity. Reports whether a value
// was present.
func (m Mut[T]) Remove(e Entity) bool {
	return m.table.Remove(e)
}

// EntityAccess is the scoped handle over the entity allocator.
type EntityAccess struct {
	world    *World
	system   string
	canWrite bool
}

// Create allocates a new live entity. Requires WritesEntities.
func (ea EntityAccess) Create() Entity {
	if !ea.canWrite {
		panic(&AccessViolation{System: ea.system, Type: reflect.TypeFor[Entity](), Mode: "write"})
	}
	return ea.world.CreateEntity()
}

// Destroy kills an entity; its components are dropped at the tick boundary
// while liveness checks hide them immediately. Requires WritesEntities.
// Returns ErrStaleHandle for dead or recycled handles.
func (ea EntityAccess) Destroy(e Entity) error {
	if !ea.canWrite {
		panic(&AccessViolation{System: ea.system, Type: reflect.TypeFor[Entity](), Mode: "write"})
	}
	return ea.world.DestroyEntity(e)
}

// IsAlive reports whether the handle refers to a live entity.
func (ea EntityAccess) IsAlive(e Entity) bool {
	return ea.world.IsAlive(e)
}

// Each visits every live entity.
func (ea EntityAccess) Each(fn func(Entity)) {
	ea.world.EachEntity(fn)
}
