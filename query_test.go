package tenkai

import (
	"context"
	"testing"
)

// testAccess compiles a descriptor against the world and returns a scoped
// handle, the way the dispatcher hands one to a running system.
func testAccess(t *testing.T, w *World, decls ...AccessDecl) *Access {
	t.Helper()
	set, err := NewDescriptor(decls...).compile(w)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	return &Access{world: w, system: "test", ctx: context.Background(), set: set}
}

// go test -run ^TestQuery2$ . -count 1
func TestQuery2(t *testing.T) {
	w := NewWorld(8)
	e1 := Spawn2(w, Position{X: 1}, Velocity{VX: 10})
	Spawn(w, Position{X: 2}) // no velocity, must be skipped
	e3 := Spawn2(w, Position{X: 3}, Velocity{VX: 30})

	a := testAccess(t, w, Writes[Position](), Reads[Velocity]())
	q := QueryOf2[Position, Velocity](a)

	var entities []Entity
	var xs []float64
	for q.Next() {
		entities = append(entities, q.Entity())
		p, v := q.Get()
		xs = append(xs, p.X+v.VX)
	}
	if len(entities) != 2 || entities[0] != e1 || entities[1] != e3 {
		t.Fatalf("Expected [e1 e3] in ascending order, got %+v", entities)
	}
	if xs[0] != 11 || xs[1] != 33 {
		t.Errorf("Expected component pairs [11 33], got %v", xs)
	}

	// Reset rewinds the same instance
	q.Reset()
	count := 0
	for q.Next() {
		count++
	}
	if count != 2 {
		t.Errorf("Expected 2 matches after Reset, got %d", count)
	}
}

// go test -run ^TestQuery3$ . -count 1
func TestQuery3(t *testing.T) {
	w := NewWorld(8)
	Spawn2(w, Position{X: 1}, Velocity{})
	e2 := Spawn3(w, Position{X: 2}, Velocity{VX: 5}, Health{Current: 50})

	a := testAccess(t, w, Reads[Position](), Reads[Velocity](), Reads[Health]())
	q := QueryOf3[Position, Velocity, Health](a)

	if !q.Next() {
		t.Fatal("Expected one match")
	}
	if q.Entity() != e2 {
		t.Errorf("Expected %+v, got %+v", e2, q.Entity())
	}
	p, v, h := q.Get()
	if p.X != 2 || v.VX != 5 || h.Current != 50 {
		t.Errorf("Unexpected components: %+v %+v %+v", p, v, h)
	}
	if q.Next() {
		t.Error("Expected iteration to end after one match")
	}
}

// go test -run ^TestQuerySkipsDeadEntities$ . -count 1
func TestQuerySkipsDeadEntities(t *testing.T) {
	w := NewWorld(8)
	Spawn2(w, Position{}, Velocity{})
	e2 := Spawn2(w, Position{}, Velocity{})
	if err := w.DestroyEntity(e2); err != nil {
		t.Fatalf("DestroyEntity failed: %v", err)
	}

	// cleanup has not run yet, liveness alone must hide the entity
	a := testAccess(t, w, Reads[Position](), Reads[Velocity]())
	q := QueryOf2[Position, Velocity](a)
	count := 0
	for q.Next() {
		if q.Entity().ID == e2.ID {
			t.Error("Query visited a destroyed entity")
		}
		count++
	}
	if count != 1 {
		t.Errorf("Expected 1 live match, got %d", count)
	}
}

// go test -run ^TestQueryUndeclaredTypePanics$ . -count 1
func TestQueryUndeclaredTypePanics(t *testing.T) {
	w := NewWorld(8)
	Spawn2(w, Position{}, Velocity{})
	a := testAccess(t, w, Reads[Position]())

	defer func() {
		if _, ok := recover().(*AccessViolation); !ok {
			t.Error("Expected an AccessViolation panic")
		}
	}()
	QueryOf2[Position, Velocity](a)
}

// go test -run ^TestParEach$ . -count 1
func TestParEach(t *testing.T) {
	w := NewWorld(256)
	const n = 200
	for i := 0; i < n; i++ {
		Spawn(w, Health{Current: 1, Max: 10})
	}

	a := testAccess(t, w, Writes[Health]())
	healths := MutOf[Health](a)
	err := healths.ParEach(context.Background(), func(_ Entity, h *Health) error {
		h.Current++
		return nil
	})
	if err != nil {
		t.Fatalf("ParEach failed: %v", err)
	}

	count := 0
	healths.Each(func(_ Entity, h *Health) {
		count++
		if h.Current != 2 {
			t.Fatalf("Expected every entity visited exactly once, got %d", h.Current)
		}
	})
	if count != n {
		t.Errorf("Expected %d entities, got %d", n, count)
	}
}

// go test -run ^TestParEachStopsOnError$ . -count 1
func TestParEachStopsOnError(t *testing.T) {
	w := NewWorld(8)
	for i := 0; i < 4; i++ {
		Spawn(w, Health{})
	}
	a := testAccess(t, w, Reads[Health]())
	err := ViewOf[Health](a).ParEach(context.Background(), func(e Entity, _ *Health) error {
		if e.ID == 2 {
			return context.DeadlineExceeded
		}
		return nil
	})
	if err != context.DeadlineExceeded {
		t.Errorf("Expected the visit error to propagate, got %v", err)
	}
}
