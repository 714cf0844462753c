package runtime

import (
	"sort"

	"github.com/wippyai/hmr-runtime/future"
	"github.com/wippyai/hmr-runtime/interop"
)

// ID is an opaque bundler-assigned module identifier, stable within a build.
type ID string

// Factory produces a module's exports exactly once per installation, given
// the context ABI, the module record, and the initial export object.
// Updates install a new factory under the same id; an installed factory is
// never mutated.
type Factory func(ctx *Context, m *Module, exports *interop.Object) error

// Module is the per-id record in the module cache. Exactly one record
// exists per id; disposal replaces it wholesale, records are never merged.
type Module struct {
	ID ID

	// Exports is the mutable export container. It starts as an
	// *interop.Object; a value-style factory may replace it with any
	// value via Context.SetExports.
	Exports any

	// Namespace is the namespace-style view, set by a namespace
	// declaration or synthesized on first namespace import.
	Namespace *interop.Object

	// Err poisons the record: set at most once, by the first factory
	// failure. Later requests re-return it without re-running the
	// factory, until an update disposes the record.
	Err error

	// Parents and Children are the dependency edges maintained by the
	// graph tracker. Accurate only at quiescence; cycles are permitted.
	Parents  map[ID]bool
	Children map[ID]bool

	// Hot is the per-incarnation hot-replacement state.
	Hot *HotState

	// async is set when the factory declared itself asynchronous; it is
	// what importers receive instead of Exports.
	async *future.ModuleExports

	loaded bool
}

func newModule(id ID, data map[string]any) *Module {
	m := &Module{
		ID:       id,
		Exports:  interop.NewObject(),
		Parents:  make(map[ID]bool),
		Children: make(map[ID]bool),
	}
	m.Hot = newHotState(m, data)
	return m
}

// Loaded reports whether the factory ran to completion.
func (m *Module) Loaded() bool {
	return m.loaded
}

// Async returns the shared async completion, or nil for a synchronous
// module.
func (m *Module) Async() *future.ModuleExports {
	return m.async
}

// exportsValue is what an importer receives: the shared async wrapper for
// an async module, the raw export container otherwise.
func (m *Module) exportsValue() any {
	if m.async != nil {
		return m.async
	}
	return m.Exports
}

// parentIDs returns the current parent set in sorted order, for
// deterministic graph walks.
func (m *Module) parentIDs() []ID {
	ids := make([]ID, 0, len(m.Parents))
	for id := range m.Parents {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
