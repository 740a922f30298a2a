package tenkai

import (
	"testing"

	"github.com/rotisserie/eris"
)

// go test -run ^TestCreateEntity$ . -count 1
func TestCreateEntity(t *testing.T) {
	w := NewWorld(4)
	e1 := w.CreateEntity()
	e2 := w.CreateEntity()

	if e1.ID != 0 {
		t.Errorf("Expected first entity ID to be 0, got %d", e1.ID)
	}
	if e1.Version != 1 {
		t.Errorf("Expected first entity version to be 1, got %d", e1.Version)
	}
	if e2.ID != 1 {
		t.Errorf("Expected second entity ID to be 1, got %d", e2.ID)
	}
	if !w.IsAlive(e1) || !w.IsAlive(e2) {
		t.Error("Expected freshly created entities to be alive")
	}
}

// go test -run ^TestDestroyEntity$ . -count 1
func TestDestroyEntity(t *testing.T) {
	w := NewWorld(4)
	e := w.CreateEntity()

	if err := w.DestroyEntity(e); err != nil {
		t.Fatalf("DestroyEntity failed: %v", err)
	}
	if w.IsAlive(e) {
		t.Error("Expected destroyed entity to be dead")
	}
	err := w.DestroyEntity(e)
	if !eris.Is(err, ErrStaleHandle) {
		t.Errorf("Expected ErrStaleHandle on double destroy, got %v", err)
	}
}

// go test -run ^TestStaleHandleAfterReuse$ . -count 1
func TestStaleHandleAfterReuse(t *testing.T) {
	w := NewWorld(4)
	e1 := w.CreateEntity()
	if err := w.DestroyEntity(e1); err != nil {
		t.Fatalf("DestroyEntity failed: %v", err)
	}
	// IDs become reusable at the tick boundary
	w.Maintain()

	e2 := w.CreateEntity()
	if e2.ID != e1.ID {
		t.Fatalf("Expected ID %d to be recycled, got %d", e1.ID, e2.ID)
	}
	if e2.Version == e1.Version {
		t.Error("Expected a fresh version on the recycled ID")
	}
	if w.IsAlive(e1) {
		t.Error("Expected the stale handle to stay dead after reuse")
	}
	if !w.IsAlive(e2) {
		t.Error("Expected the new handle to be alive")
	}
	if !eris.Is(w.DestroyEntity(e1), ErrStaleHandle) {
		t.Error("Expected ErrStaleHandle when destroying through a stale handle")
	}
}

// go test -run ^TestDestroyThenCreateSameTick$ . -count 1
func TestDestroyThenCreateSameTick(t *testing.T) {
	w := NewWorld(4)
	positions := RegisterStorage[Position](w)
	e := Spawn(w, Position{X: 1})
	if err := w.DestroyEntity(e); err != nil {
		t.Fatalf("DestroyEntity failed: %v", err)
	}

	// the dead ID must not be handed out before its cleanup has run
	e2 := w.CreateEntity()
	if e2.ID == e.ID {
		t.Fatalf("ID %d reused before the tick boundary", e.ID)
	}
	positions.Set(e2, Position{X: 42})

	w.Maintain()
	p, ok := positions.Get(e2)
	if !ok || p.X != 42 {
		t.Errorf("Expected the live entity to keep its component across Maintain, got %+v ok=%v", p, ok)
	}
	// from the next tick on the ID is recyclable as usual
	e3 := w.CreateEntity()
	if e3.ID != e.ID {
		t.Errorf("Expected ID %d recycled after Maintain, got %d", e.ID, e3.ID)
	}
	if positions.Has(e3) {
		t.Error("Expected the recycled entity to carry no components")
	}
}

// go test -run ^TestAllocatorExpansion$ . -count 1
func TestAllocatorExpansion(t *testing.T) {
	w := NewWorld(2)
	seen := make(map[uint32]bool)
	for i := 0; i < 100; i++ {
		e := w.CreateEntity()
		if seen[e.ID] {
			t.Fatalf("Duplicate live ID %d", e.ID)
		}
		seen[e.ID] = true
		if !w.IsAlive(e) {
			t.Fatalf("Entity %d not alive after creation", e.ID)
		}
	}
}

// go test -run ^TestIsAliveOutOfRange$ . -count 1
func TestIsAliveOutOfRange(t *testing.T) {
	w := NewWorld(2)
	if w.IsAlive(Entity{ID: 9999, Version: 1}) {
		t.Error("Expected out-of-range handle to be dead")
	}
	if w.IsAlive(Entity{}) {
		t.Error("Expected the zero handle to be dead")
	}
}
