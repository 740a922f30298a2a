// Package tenkai implements a data-oriented simulation runtime with a
// conflict-aware, asynchronous system scheduler.
//
// Features:
// - Generation-checked entity handles with ID recycling.
// - Per-type component tables with pluggable backing storage (dense vector,
//   sparse set, hash map), max 256 component types.
// - Systems declare their component and resource access up front; a
//   dispatcher builder turns the declarations into an immutable plan of
//   stages, each stage a set of systems proven free of data races.
// - A tick executor runs each stage on a bounded worker pool. A system body
//   may suspend on external work and resume later without holding a worker
//   slot; a stage completes only when every suspended body has resolved.
// - Deferred entity-destruction cleanup and lazy world updates applied at
//   the tick boundary.
package tenkai

// MaxComponentTypes defines the maximum number of unique component types that
// can be registered in a World. This value is fixed at 256.
const MaxComponentTypes = 256

// MaxResourceTypes defines the maximum number of unique shared resource types
// that can be registered in a World. This value is fixed at 256.
const MaxResourceTypes = 256

// Access IDs form a single space covering everything a system can declare:
// component types occupy [0, MaxComponentTypes), resource types occupy
// [MaxComponentTypes, MaxComponentTypes+MaxResourceTypes), and the entity
// allocator itself gets the sentinel slot after both ranges.
const (
	resourceAccessOffset = MaxComponentTypes
	entityAccessID       = MaxComponentTypes + MaxResourceTypes
)
