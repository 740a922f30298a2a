package tenkai

import (
	"runtime"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/semaphore"
)

// Builder collects system registrations and turns them into a Dispatcher
// with an immutable, staged execution plan. It runs once at setup; rebuild
// from scratch whenever the system set changes.
type Builder struct {
	world *World
	items []builderItem
	opts  []Option
}

type builderItem struct {
	name   string
	sys    System
	after  []string
	before []string
}

// AddOption attaches an explicit ordering constraint to a registration.
type AddOption func(*builderItem)

// After pins the system to run in a later stage than every named system.
// This is a hard constraint, not a hint.
func After(names ...string) AddOption {
	return func(it *builderItem) { it.after = append(it.after, names...) }
}

// Before pins the system to run in an earlier stage than every named
// system. This is a hard constraint, not a hint.
func Before(names ...string) AddOption {
	return func(it *builderItem) { it.before = append(it.before, names...) }
}

// Option configures the Dispatcher produced by Build.
type Option func(*Dispatcher)

// WithWorkers sets the size of the worker pool. The default is the
// available hardware parallelism.
func WithWorkers(n int) Option {
	return func(d *Dispatcher) { d.workers = int64(n) }
}

// WithFailurePolicy selects how a tick proceeds after a system failure. The
// default is SkipAndContinue.
func WithFailurePolicy(p FailurePolicy) Option {
	return func(d *Dispatcher) { d.policy = p }
}

// NewBuilder creates a dispatcher builder bound to a world. Component and
// resource types named by the registered descriptors are materialized in
// this world when Build runs.
func NewBuilder(w *World, opts ...Option) *Builder {
	return &Builder{world: w, opts: opts}
}

// With registers a system under a unique name. Registration order is
// meaningful: it directs conflict edges and breaks scheduling ties, keeping
// plans reproducible. Returns the builder for chaining; name collisions and
// contract violations surface from Build.
func (b *Builder) With(name string, sys System, opts ...AddOption) *Builder {
	it := builderItem{name: name, sys: sys}
	for _, opt := range opts {
		opt(&it)
	}
	b.items = append(b.items, it)
	return b
}

// Build compiles every descriptor against the world, derives the conflict
// graph and produces the staged plan.
//
// An edge A -> B exists when A and B access a common type with at least one
// side writing, or when an explicit Before/After constraint requires it.
// A conflict edge is oriented to agree with any explicit constraint chain
// between the two systems; only unconstrained pairs fall back to
// registration order. Stages are extracted by repeatedly taking all systems
// with no unscheduled predecessor, in registration order. Conflict edges
// therefore cannot cycle; contradictory explicit constraints can, and fail
// with ErrCyclicDependency.
func (b *Builder) Build() (*Dispatcher, error) {
	n := len(b.items)
	byName := make(map[string]int, n)
	for i, it := range b.items {
		if _, ok := byName[it.name]; ok {
			return nil, eris.Wrapf(ErrDuplicateName, "system %q", it.name)
		}
		byName[it.name] = i
	}

	items := make([]dispatchItem, n)
	for i, it := range b.items {
		set, err := it.sys.Descriptor().compile(b.world)
		if err != nil {
			return nil, eris.Wrapf(err, "system %q", it.name)
		}
		items[i] = dispatchItem{name: it.name, sys: it.sys, set: set}
	}

	succ := make([][]int, n)
	indegree := make([]int, n)
	addEdge := func(from, to int) {
		succ[from] = append(succ[from], to)
		indegree[to]++
	}
	explicit := make([][]int, n)
	for i, it := range b.items {
		for _, name := range it.after {
			dep, ok := byName[name]
			if !ok {
				return nil, eris.Wrapf(ErrUnknownSystem, "system %q declared after %q", it.name, name)
			}
			addEdge(dep, i)
			explicit[dep] = append(explicit[dep], i)
		}
		for _, name := range it.before {
			target, ok := byName[name]
			if !ok {
				return nil, eris.Wrapf(ErrUnknownSystem, "system %q declared before %q", it.name, name)
			}
			addEdge(i, target)
			explicit[i] = append(explicit[i], target)
		}
	}
	reach := reachability(explicit)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if !items[i].set.conflicts(items[j].set) {
				continue
			}
			// a Before/After chain pinning j ahead of i overrides the
			// registration-order default
			if reach[j][i] {
				addEdge(j, i)
			} else {
				addEdge(i, j)
			}
		}
	}

	plan, err := layer(succ, indegree, items)
	if err != nil {
		return nil, err
	}

	d := &Dispatcher{
		world:   b.world,
		items:   items,
		plan:    plan,
		workers: int64(runtime.GOMAXPROCS(0)),
		policy:  SkipAndContinue,
	}
	for _, opt := range b.opts {
		opt(d)
	}
	if d.workers < 1 {
		d.workers = 1
	}
	d.sem = semaphore.NewWeighted(d.workers)
	return d, nil
}

// reachability computes, for each system, the set of systems it must
// precede through the explicit constraint edges, transitively. The graphs
// involved are setup-sized, so a plain DFS per node is fine.
func reachability(adj [][]int) [][]bool {
	n := len(adj)
	reach := make([][]bool, n)
	for i := range reach {
		reach[i] = make([]bool, n)
		stack := append([]int(nil), adj[i]...)
		for len(stack) > 0 {
			j := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if reach[i][j] {
				continue
			}
			reach[i][j] = true
			stack = append(stack, adj[j]...)
		}
	}
	return reach
}

// layer performs the stable topological layering: each stage is the set of
// systems whose predecessors have all been scheduled, ordered by
// registration index so identical inputs always yield identical plans.
func layer(succ [][]int, indegree []int, items []dispatchItem) (Plan, error) {
	n := len(items)
	names := make([]string, n)
	for i, it := range items {
		names[i] = it.name
	}

	var stages [][]int
	ready := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if indegree[i] == 0 {
			ready = append(ready, i)
		}
	}
	scheduled := 0
	for len(ready) > 0 {
		sort.Ints(ready)
		stage := ready
		ready = nil
		for _, i := range stage {
			for _, j := range succ[i] {
				indegree[j]--
				if indegree[j] == 0 {
					ready = append(ready, j)
				}
			}
		}
		stages = append(stages, stage)
		scheduled += len(stage)
	}
	if scheduled < n {
		var stuck []string
		for i := 0; i < n; i++ {
			if indegree[i] > 0 {
				stuck = append(stuck, names[i])
			}
		}
		return Plan{}, eris.Wrapf(ErrCyclicDependency, "unschedulable systems: %s", strings.Join(stuck, ", "))
	}
	return Plan{stages: stages, names: names}, nil
}

// Plan is the immutable staged schedule computed by Build. It is shared,
// read-only, across all ticks until the dispatcher is rebuilt.
type Plan struct {
	stages [][]int
	names  []string
}

// Stages returns the plan as stage-ordered lists of system names.
func (p Plan) Stages() [][]string {
	out := make([][]string, len(p.stages))
	for i, stage := range p.stages {
		out[i] = make([]string, len(stage))
		for j, idx := range stage {
			out[i][j] = p.names[idx]
		}
	}
	return out
}

// NumStages returns the number of stages in the plan.
func (p Plan) NumStages() int { return len(p.stages) }
