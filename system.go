package tenkai

// System is one unit of simulation logic. A system declares its access
// contract once via Descriptor and is then executed by the dispatcher every
// tick with a scoped Access handle covering exactly the declared types.
//
// Run executes on a worker goroutine. It must either complete and return
// Done/Fail, or suspend on external work by returning Await; it must never
// block the worker on I/O directly.
type System interface {
	// Descriptor returns the system's static access contract. It is read
	// once, when the dispatch plan is built.
	Descriptor() *Descriptor

	// Run executes one tick's worth of work using the scoped access handle.
	Run(a *Access) Outcome
}

// Outcome is the result of running a system body (or one of its
// continuations): completion, failure, or suspension on an external event.
type Outcome struct {
	err   error
	ready <-chan struct{}
	cont  func(*Access) Outcome
}

// Done reports successful completion of the system body.
func Done() Outcome {
	return Outcome{}
}

// Fail reports a failure. The error is surfaced through the TickReport as a
// SystemFailure; whether the rest of the tick proceeds depends on the
// dispatcher's failure policy.
func Fail(err error) Outcome {
	return Outcome{err: err}
}

// Await suspends the system until ready is closed (or delivers a value), at
// which point cont runs with the same scoped access. The worker slot is
// released for the duration of the wait: a suspended system costs nothing
// but its parked goroutine. The enclosing stage does not complete until the
// continuation chain resolves.
//
// A suspension may keep the system's declared access conceptually "held"
// across the wait; this is safe because no other system in the stage touches
// the same types, which the planner guarantees.
func Await(ready <-chan struct{}, cont func(*Access) Outcome) Outcome {
	return Outcome{ready: ready, cont: cont}
}

// systemFunc adapts a descriptor plus a function into a System.
type systemFunc struct {
	desc *Descriptor
	run  func(*Access) Outcome
}

// NewSystem wraps a plain function as a System with the given access
// contract. This is the common registration path; implement the System
// interface directly only when the system needs internal state.
func NewSystem(desc *Descriptor, run func(*Access) Outcome) System {
	return &systemFunc{desc: desc, run: run}
}

func (s *systemFunc) Descriptor() *Descriptor { return s.desc }
func (s *systemFunc) Run(a *Access) Outcome   { return s.run(a) }
