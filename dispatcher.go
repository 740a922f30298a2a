package tenkai

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/semaphore"
)

// FailurePolicy selects how a tick proceeds after a system body fails.
type FailurePolicy uint8

const (
	// SkipAndContinue records the failure in the tick report and keeps
	// executing the remaining systems and stages. This is the default: one
	// faulty system should not starve unrelated simulation work, and the
	// report makes the fault impossible to miss.
	SkipAndContinue FailurePolicy = iota

	// AbortTick cancels the remainder of the tick at the next stage
	// boundary once any system fails. Systems that never ran, and
	// suspensions interrupted by the cancellation, report as cancelled.
	AbortTick
)

// Status classifies one system's outcome within a tick.
type Status uint8

const (
	// StatusCancelled means the system never completed: the tick was
	// aborted or the context cancelled before or during its execution.
	StatusCancelled Status = iota
	// StatusCompleted means the system ran to completion.
	StatusCompleted
	// StatusFailed means the system body returned or panicked with an
	// error; see SystemOutcome.Err.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// SystemOutcome reports one system's result for one tick.
type SystemOutcome struct {
	System   string
	Status   Status
	Err      error // *SystemFailure when Status is StatusFailed
	Duration time.Duration
	Resumes  int // times the system suspended and resumed
}

// TickReport enumerates per-system outcomes for one tick.
type TickReport struct {
	Outcomes []SystemOutcome
	Duration time.Duration
}

// Failed returns the outcomes of systems that failed this tick.
func (r *TickReport) Failed() []SystemOutcome {
	var out []SystemOutcome
	for _, o := range r.Outcomes {
		if o.Status == StatusFailed {
			out = append(out, o)
		}
	}
	return out
}

// dispatchItem is one registered system with its compiled access set.
type dispatchItem struct {
	name string
	sys  System
	set  accessSet
}

// Dispatcher executes the immutable plan against its world, one tick per
// Dispatch call. Stages run strictly in order; systems within a stage run
// concurrently on a bounded worker pool. The planner's conflict proof makes
// same-stage accesses race-free, so the executor takes no locks around
// component access.
type Dispatcher struct {
	world   *World
	items   []dispatchItem
	plan    Plan
	workers int64
	policy  FailurePolicy
	sem     *semaphore.Weighted
}

// Plan returns the staged schedule this dispatcher executes.
func (d *Dispatcher) Plan() Plan { return d.plan }

// World returns the world the dispatcher was built against.
func (d *Dispatcher) World() *World { return d.world }

// Dispatch runs one full tick: every stage in plan order, then deferred
// destruction cleanup and lazy updates via Maintain. It blocks until the
// tick resolves, including any suspended system work.
//
// A stage is complete only when every one of its systems has finished —
// systems that suspended and resumed included — which is what makes
// write-after-write and write-after-read hazards across stages safe.
//
// Cancelling ctx is advisory cooperation, not rollback: outstanding
// suspensions report StatusCancelled and partial effects remain.
//
// Dispatch panics with *AccessViolation when a system touched a type outside
// its declared access set. The failure policy never applies to violations.
func (d *Dispatcher) Dispatch(ctx context.Context) (*TickReport, error) {
	start := time.Now()
	report := &TickReport{Outcomes: make([]SystemOutcome, len(d.items))}
	for i := range report.Outcomes {
		report.Outcomes[i] = SystemOutcome{System: d.items[i].name, Status: StatusCancelled}
	}

	tickCtx, abort := context.WithCancel(ctx)
	defer abort()
	var failed atomic.Bool
	var violation atomic.Pointer[AccessViolation]

	for _, stage := range d.plan.stages {
		if tickCtx.Err() != nil {
			break
		}
		var wg sync.WaitGroup
		for _, idx := range stage {
			wg.Add(1)
			go d.execute(tickCtx, abort, idx, &wg, report, &failed, &violation)
		}
		wg.Wait()
		if v := violation.Load(); v != nil {
			// the plan's static race-freedom proof was subverted; this is a
			// bug in the embedding code, never a recoverable system failure
			panic(v)
		}
		if d.policy == AbortTick && failed.Load() {
			break
		}
	}

	d.world.Maintain()
	report.Duration = time.Since(start)
	if err := ctx.Err(); err != nil {
		return report, eris.Wrap(err, "tick cancelled")
	}
	return report, nil
}

// execute runs one system to resolution: the initial body and any
// continuation chain produced by suspensions. A worker slot is held only
// while a body segment is actually running; waits happen off-pool so a
// suspended system never stalls the other systems of its stage.
func (d *Dispatcher) execute(ctx context.Context, abort context.CancelFunc, idx int, wg *sync.WaitGroup, report *TickReport, failed *atomic.Bool, violation *atomic.Pointer[AccessViolation]) {
	defer wg.Done()
	item := d.items[idx]
	out := &report.Outcomes[idx]
	start := time.Now()
	access := &Access{world: d.world, system: item.name, ctx: ctx, set: item.set}

	body := item.sys.Run
	for {
		if err := d.sem.Acquire(ctx, 1); err != nil {
			out.Duration = time.Since(start)
			return // stays cancelled
		}
		outcome, broken := runGuarded(body, access)
		d.sem.Release(1)

		if broken != nil {
			violation.CompareAndSwap(nil, broken)
			abort()
			out.Duration = time.Since(start)
			return
		}

		if outcome.ready == nil {
			out.Duration = time.Since(start)
			if outcome.err != nil {
				out.Status = StatusFailed
				out.Err = &SystemFailure{System: item.name, Cause: outcome.err}
				failed.Store(true)
				if d.policy == AbortTick {
					abort()
				}
			} else {
				out.Status = StatusCompleted
			}
			return
		}

		select {
		case <-outcome.ready:
			out.Resumes++
			body = outcome.cont
		case <-ctx.Done():
			out.Duration = time.Since(start)
			return // stays cancelled
		}
	}
}

// runGuarded executes one body segment, converting panics into failures.
// AccessViolation panics are separated out rather than converted: the
// dispatcher re-raises them on the Dispatch caller's goroutine, since no
// failure policy may paper over a subverted access contract.
func runGuarded(body func(*Access) Outcome, a *Access) (out Outcome, broken *AccessViolation) {
	defer func() {
		if r := recover(); r != nil {
			if v, ok := r.(*AccessViolation); ok {
				broken = v
				return
			}
			if err, ok := r.(error); ok {
				out = Fail(eris.Wrap(err, "system panicked"))
				return
			}
			out = Fail(eris.Errorf("system panicked: %v", r))
		}
	}()
	return body(a), nil
}
