package tenkai

import (
	"fmt"
	"reflect"

	"github.com/rotisserie/eris"
)

// Sentinel errors returned by the world and the dispatcher builder. Callers
// can test for them with eris.Is (or errors.Is).
var (
	// ErrStaleHandle is returned when an operation references an entity that
	// is dead or whose ID has been recycled since the handle was issued.
	ErrStaleHandle = eris.New("entity handle is stale")

	// ErrCyclicDependency is returned by Builder.Build when the explicit
	// ordering constraints between systems form a cycle. Access-conflict
	// edges alone cannot cycle; only contradictory Before/After pins can.
	ErrCyclicDependency = eris.New("explicit ordering constraints form a cycle")

	// ErrDuplicateName is returned by Builder.Build when two systems were
	// registered under the same name.
	ErrDuplicateName = eris.New("system name already registered")

	// ErrUnknownSystem is returned by Builder.Build when a Before or After
	// constraint names a system that was never registered.
	ErrUnknownSystem = eris.New("ordering constraint references unknown system")

	// ErrOverlappingAccess is returned by Builder.Build when a single
	// descriptor declares the same type both read and written.
	ErrOverlappingAccess = eris.New("descriptor declares a type as both read and written")
)

// SystemFailure reports a fault inside one system's body. It is recovered at
// the executor boundary and surfaced through the TickReport; sibling systems
// in the same stage are unaffected.
type SystemFailure struct {
	System string
	Cause  error
}

func (f *SystemFailure) Error() string {
	return fmt.Sprintf("system %q failed: %v", f.System, f.Cause)
}

func (f *SystemFailure) Unwrap() error { return f.Cause }

// AccessViolation reports a system touching a type outside its declared
// access set. A correctly built plan makes this unreachable, so it indicates
// a bug in the embedding code or the planner and is raised as a panic, never
// converted into a recoverable SystemFailure.
type AccessViolation struct {
	System string
	Type   reflect.Type
	Mode   string // "read" or "write"
}

func (v *AccessViolation) Error() string {
	return fmt.Sprintf("system %q has no declared %s access to %v", v.System, v.Mode, v.Type)
}
