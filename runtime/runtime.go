package runtime

import (
	"sort"

	"github.com/wippyai/hmr-runtime/chunk"
	"github.com/wippyai/hmr-runtime/errors"
	"github.com/wippyai/hmr-runtime/interop"
)

// Options configures runtime behavior.
type Options struct {
	// AutoAcceptRoots makes chunk-runtime roots absorb updates that
	// bubble all the way up. With it disabled such an update is rejected
	// as unaccepted.
	AutoAcceptRoots bool

	// CompileFactory turns source text carried by an update payload into
	// a factory. Required only for source-carrying updates.
	CompileFactory func(src string) (Factory, error)
}

// DefaultOptions returns default runtime configuration.
func DefaultOptions() Options {
	return Options{
		AutoAcceptRoots: true,
	}
}

// Runtime owns all per-build mutable state: the module cache, the factory
// registry, the chunk-runtime roots, the surviving hot data bags and the
// self-invalidation queue. Nothing is ambient; two runtimes never collide.
//
// Runtime is strictly single-threaded and cooperative: it must be owned by
// one goroutine, or the caller must synchronize. No operation blocks;
// asynchronous factories defer through package future.
type Runtime struct {
	cache     map[ID]*Module
	factories map[ID]Factory
	roots     map[ID]bool
	hotData   map[ID]map[string]any
	pending   []ID
	opts      Options
}

// New creates a new Runtime with the given options.
func New(opts Options) *Runtime {
	return &Runtime{
		cache:     make(map[ID]*Module),
		factories: make(map[ID]Factory),
		roots:     make(map[ID]bool),
		hotData:   make(map[ID]map[string]any),
		opts:      opts,
	}
}

// NewWithDefaults creates a new Runtime with default options.
func NewWithDefaults() *Runtime {
	return New(DefaultOptions())
}

// Options returns the configuration.
func (rt *Runtime) Options() Options {
	return rt.opts
}

// Module returns the cached record for id, if one exists. Requesting a
// record never creates one; instantiation is always lazy.
func (rt *Runtime) Module(id ID) (*Module, bool) {
	m, ok := rt.cache[id]
	return m, ok
}

// HasFactory reports whether a factory is installed for id.
func (rt *Runtime) HasFactory(id ID) bool {
	_, ok := rt.factories[id]
	return ok
}

// ModuleIDs returns the ids of all cached records, sorted.
func (rt *Runtime) ModuleIDs() []ID {
	ids := make([]ID, 0, len(rt.cache))
	for id := range rt.cache {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// InstallChunk decodes a flat chunk payload and installs its factories.
//
// When an id in a group already bears an installed factory, every co-located
// new id in that group is forced onto that same factory object — a shared
// factory is never duplicated by re-delivery.
func (rt *Runtime) InstallChunk(path string, items []any) error {
	groups, err := chunk.Decode(items)
	if err != nil {
		return err
	}

	for _, g := range groups {
		factory, err := asFactory(g.Factory)
		if err != nil {
			return err
		}

		for _, raw := range g.IDs {
			if existing, ok := rt.factories[ID(raw)]; ok {
				factory = existing
				break
			}
		}

		for _, raw := range g.IDs {
			id := ID(raw)
			if _, ok := rt.factories[id]; !ok {
				rt.factories[id] = factory
			}
		}
	}

	debugf("installed chunk %q: %d group(s)", path, len(groups))
	return nil
}

func asFactory(v any) (Factory, error) {
	switch f := v.(type) {
	case Factory:
		return f, nil
	case func(*Context, *Module, *interop.Object) error:
		return Factory(f), nil
	default:
		return nil, errors.InvalidPayload("payload element %T is not a factory", v)
	}
}

// RunEntry designates id as a chunk-runtime root and requires it.
func (rt *Runtime) RunEntry(id ID) (any, error) {
	rt.roots[id] = true
	m, err := rt.getOrInstantiate(id, entryReason())
	if err != nil {
		return nil, err
	}
	return m.exportsValue(), nil
}

// Require is the host-level require entry point. Factories import their
// dependencies through their Context instead, so edges are recorded.
func (rt *Runtime) Require(id ID) (any, error) {
	m, err := rt.getOrInstantiate(id, entryReason())
	if err != nil {
		return nil, err
	}
	return m.exportsValue(), nil
}

// Roots returns the designated chunk-runtime roots, sorted.
func (rt *Runtime) Roots() []ID {
	ids := make([]ID, 0, len(rt.roots))
	for id := range rt.roots {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (rt *Runtime) queueInvalidation(id ID) {
	rt.pending = append(rt.pending, id)
	debugf("module %q queued self-invalidation", id)
}

func (rt *Runtime) drainInvalidations() []string {
	if len(rt.pending) == 0 {
		return nil
	}
	out := make([]string, len(rt.pending))
	for i, id := range rt.pending {
		out[i] = string(id)
	}
	rt.pending = nil
	return out
}

// takeHotData removes and returns the data bag left by the previous
// incarnation of id.
func (rt *Runtime) takeHotData(id ID) map[string]any {
	data, ok := rt.hotData[id]
	if !ok {
		return nil
	}
	delete(rt.hotData, id)
	return data
}
