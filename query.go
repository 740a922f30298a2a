package tenkai

// Query2 iterates all live entities carrying both component types, in
// ascending entity-index order. Construct one with QueryOf2 inside a system
// body; both types must be covered by the system's declared access.
//
// Example:
//
//	q := tenkai.QueryOf2[Position, Velocity](a)
//	for q.Next() {
//	    pos, vel := q.Get()
//	    pos.X += vel.X
//	}
type Query2[A, B any] struct {
	a   *Table[A]
	b   *Table[B]
	cur bitCursor
	idx uint32
}

// QueryOf2 creates a query over entities holding both A and B.
func QueryOf2[A, B any](ac *Access) *Query2[A, B] {
	va := ViewOf[A](ac)
	vb := ViewOf[B](ac)
	q := &Query2[A, B]{a: va.table, b: vb.table}
	q.Reset()
	return q
}

// Reset rewinds the query so the same instance can iterate again.
func (q *Query2[A, B]) Reset() {
	q.cur = newBitCursor(q.a.mask, q.b.mask, q.a.world.entities.aliveMask())
}

// Next advances to the next matching entity. Returns false when iteration
// is complete.
func (q *Query2[A, B]) Next() bool {
	idx, ok := q.cur.next()
	q.idx = idx
	return ok
}

// Entity returns the current entity.
func (q *Query2[A, B]) Entity() Entity {
	return Entity{ID: q.idx, Version: q.a.world.entities.metas[q.idx].version}
}

// Get returns pointers to the current entity's components.
func (q *Query2[A, B]) Get() (*A, *B) {
	return q.a.back.Get(q.idx), q.b.back.Get(q.idx)
}

// Query3 iterates all live entities carrying three component types. Same
// contract as Query2.
type Query3[A, B, C any] struct {
	a   *Table[A]
	b   *Table[B]
	c   *Table[C]
	cur bitCursor
	idx uint32
}

// QueryOf3 creates a query over entities holding A, B and C.
func QueryOf3[A, B, C any](ac *Access) *Query3[A, B, C] {
	va := ViewOf[A](ac)
	vb := ViewOf[B](ac)
	vc := ViewOf[C](ac)
	q := &Query3[A, B, C]{a: va.table, b: vb.table, c: vc.table}
	q.Reset()
	return q
}

// Reset rewinds the query so the same instance can iterate again.
func (q *Query3[A, B, C]) Reset() {
	q.cur = newBitCursor(q.a.mask, q.b.mask, q.c.mask, q.a.world.entities.aliveMask())
}

// Next advances to the next matching entity. Returns false when iteration
// is complete.
func (q *Query3[A, B, C]) Next() bool {
	idx, ok := q.cur.next()
	q.idx = idx
	return ok
}

// Entity returns the current entity.
func (q *Query3[A, B, C]) Entity() Entity {
	return Entity{ID: q.idx, Version: q.a.world.entities.metas[q.idx].version}
}

// Get returns pointers to the current entity's components.
func (q *Query3[A, B, C]) Get() (*A, *B, *C) {
	return q.a.back.Get(q.idx), q.b.back.Get(q.idx), q.c.back.Get(q.idx)
}
