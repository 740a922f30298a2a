package tenkai

import (
	"reflect"
	"testing"
)

// go test -run ^TestResources$ . -count 1
func TestResources(t *testing.T) {
	type clock struct{ Tick int }
	type gravity struct{ G float64 }

	t.Run("AddAndGet", func(t *testing.T) {
		w := NewWorld(0)
		AddResource(w, clock{Tick: 7})
		if !HasResource[clock](w) {
			t.Fatal("Expected resource to exist after AddResource")
		}
		id, ok := w.resources.lookup(reflect.TypeFor[clock]())
		if !ok || id != 0 {
			t.Fatalf("Expected id 0, got %d ok=%v", id, ok)
		}
		c := w.resources.get(id).(*clock)
		if c.Tick != 7 {
			t.Errorf("Expected Tick 7, got %d", c.Tick)
		}
	})

	t.Run("DifferentTypes", func(t *testing.T) {
		w := NewWorld(0)
		AddResource(w, clock{})
		AddResource(w, gravity{G: 9.8})
		id, ok := w.resources.lookup(reflect.TypeFor[gravity]())
		if !ok || id != 1 {
			t.Errorf("Expected id 1, got %d ok=%v", id, ok)
		}
	})

	t.Run("SameTypePanics", func(t *testing.T) {
		w := NewWorld(0)
		AddResource(w, clock{})
		defer func() {
			if recover() == nil {
				t.Error("Expected panic on duplicate resource type")
			}
		}()
		AddResource(w, clock{})
	})

	t.Run("HasMissing", func(t *testing.T) {
		w := NewWorld(0)
		if HasResource[gravity](w) {
			t.Error("Expected false for an unregistered resource")
		}
	})
}

// go test -run ^TestResourceZeroValueAtBuild$ . -count 1
func TestResourceZeroValueAtBuild(t *testing.T) {
	type score struct{ Total int }

	w := NewWorld(0)
	sys := NewSystem(NewDescriptor(WritesResource[score]()), func(*Access) Outcome {
		return Done()
	})
	if _, err := NewBuilder(w).With("scorer", sys).Build(); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if !HasResource[score](w) {
		t.Error("Expected a zero-valued resource inserted at build time")
	}

	// a pre-existing value must not be clobbered
	w2 := NewWorld(0)
	AddResource(w2, score{Total: 5})
	if _, err := NewBuilder(w2).With("scorer", sys).Build(); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	id, _ := w2.resources.lookup(reflect.TypeFor[score]())
	if got := w2.resources.get(id).(*score).Total; got != 5 {
		t.Errorf("Expected existing resource to survive build, got %d", got)
	}
}
