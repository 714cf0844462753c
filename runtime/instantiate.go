package runtime

import (
	"fmt"
	"strings"

	"github.com/wippyai/hmr-runtime/errors"
	"github.com/wippyai/hmr-runtime/interop"
)

type reasonKind int

const (
	reasonEntry reasonKind = iota
	reasonImport
	reasonUpdate
)

// reason says why a module is being demanded. The three reasons produce
// distinguishable missing-factory errors, which is how a stale cache after
// a bad update gets diagnosed.
type reason struct {
	kind    reasonKind
	parents []ID
}

func entryReason() reason {
	return reason{kind: reasonEntry}
}

func importReason(parent ID) reason {
	return reason{kind: reasonImport, parents: []ID{parent}}
}

func updateReason(parents []ID) reason {
	return reason{kind: reasonUpdate, parents: parents}
}

func (r reason) String() string {
	switch r.kind {
	case reasonImport:
		return fmt.Sprintf("imported by %q", r.parents[0])
	case reasonUpdate:
		quoted := make([]string, len(r.parents))
		for i, p := range r.parents {
			quoted[i] = fmt.Sprintf("%q", p)
		}
		return fmt.Sprintf("re-instantiated by update, parents [%s]", strings.Join(quoted, " "))
	default:
		return "runtime entry of chunk"
	}
}

// getOrInstantiate returns the record for id, creating and executing it on
// a cache miss.
//
// The record is registered in the cache before its factory runs, so a
// circular import resolves to the same partially-populated record instead
// of recursing. Dependency edges are recorded both before the factory
// (optimistically, to capture cycles) and after it (to cover an
// intervening disposal).
func (rt *Runtime) getOrInstantiate(id ID, why reason) (*Module, error) {
	if m, ok := rt.cache[id]; ok {
		if m.Err != nil {
			// Poisoned: re-return, never re-execute.
			return nil, m.Err
		}
		rt.link(m, why.parents)
		return m, nil
	}

	factory, ok := rt.factories[id]
	if !ok {
		return nil, errors.MissingFactory(string(id), why.String())
	}

	m := newModule(id, rt.takeHotData(id))
	m.Hot.bind(rt)
	rt.cache[id] = m
	rt.link(m, why.parents)

	debugf("instantiating %q (%s)", id, why)

	ctx := &Context{rt: rt, m: m}
	exports, _ := m.Exports.(*interop.Object)
	if err := runFactory(factory, ctx, m, exports); err != nil {
		m.Err = errors.FactoryFailed(string(id), err)
		return nil, m.Err
	}
	m.loaded = true

	rt.link(m, why.parents)

	// A module that was simultaneously value- and namespace-accessed
	// under circular import holds two views; reconcile them once.
	if m.Namespace != nil {
		if raw, ok := m.Exports.(*interop.Object); !ok || raw != m.Namespace {
			interop.MergeViews(m.Namespace, m.Exports)
		}
	}

	return m, nil
}

// runFactory converts a factory panic into an ordinary error so it poisons
// the record like any other factory failure.
func runFactory(f Factory, ctx *Context, m *Module, exports *interop.Object) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("factory panic: %v", r)
		}
	}()
	return f(ctx, m, exports)
}

// link records parent edges for a child, with set semantics: duplicate
// edges are no-ops. Removal happens only during disposal.
func (rt *Runtime) link(child *Module, parents []ID) {
	for _, pid := range parents {
		child.Parents[pid] = true
		if p, ok := rt.cache[pid]; ok {
			p.Children[child.ID] = true
		}
	}
}
