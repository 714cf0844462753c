package runtime

import (
	"github.com/wippyai/hmr-runtime/errors"
	"github.com/wippyai/hmr-runtime/future"
	"github.com/wippyai/hmr-runtime/interop"
)

// Context is the bound object passed into a factory: the ABI factories are
// compiled against. Its surface — export declaration, dynamic re-export,
// namespace import, require, async import and hot registration — stays
// stable across payload format versions.
type Context struct {
	rt *Runtime
	m  *Module
}

// ID returns the id of the module being instantiated.
func (c *Context) ID() ID {
	return c.m.ID
}

// Hot returns the module's hot-replacement registration surface.
func (c *Context) Hot() *HotState {
	return c.m.Hot
}

// DeclareNamespace declares namespace-style exports: the export object is
// sealed and one live binding installed per entry. Declaring twice on the
// same exports object is an error.
func (c *Context) DeclareNamespace(bindings map[string]interop.Binding) error {
	obj, ok := c.m.Exports.(*interop.Object)
	if !ok {
		return errors.InvalidInput(errors.PhaseInterop,
			"cannot declare a namespace on replaced value-style exports")
	}
	if err := obj.DeclareNamespace(string(c.m.ID), bindings); err != nil {
		return err
	}
	c.m.Namespace = obj
	return nil
}

// SetExports replaces the module's export container with an arbitrary
// value (value-style convention). The async snapshot follows along for a
// factory that already declared itself asynchronous.
func (c *Context) SetExports(v any) {
	c.m.Exports = v
	if c.m.async != nil {
		c.m.async.SetSnapshot(v)
	}
}

// Require resolves a dependency value-style: the raw export container, or
// the shared async wrapper when the dependency is an async module. Records
// the dependency edge.
func (c *Context) Require(id ID) (any, error) {
	dep, err := c.rt.getOrInstantiate(id, importReason(c.m.ID))
	if err != nil {
		return nil, err
	}
	return dep.exportsValue(), nil
}

// ImportNamespace resolves a dependency namespace-style. An existing
// namespace on the target is reused; otherwise one is synthesized and
// cached on the target's record. With explicit interop a literal "default"
// property on the target becomes the default binding directly.
func (c *Context) ImportNamespace(id ID, explicit bool) (*interop.Object, error) {
	dep, err := c.rt.getOrInstantiate(id, importReason(c.m.ID))
	if err != nil {
		return nil, err
	}
	return c.rt.namespaceOf(dep, explicit), nil
}

// DynamicReexport re-exports everything from id through obj: the
// dependency's exports join obj's ordered, identity-deduplicated source
// list, consulted for any property not present on obj itself.
func (c *Context) DynamicReexport(obj *interop.Object, id ID) error {
	dep, err := c.rt.getOrInstantiate(id, importReason(c.m.ID))
	if err != nil {
		return err
	}
	if src, ok := dep.Exports.(*interop.Object); ok {
		obj.AddSource(src)
		return nil
	}
	// Value-style source: go through its namespace view.
	obj.AddSource(c.rt.namespaceOf(dep, false))
	return nil
}

// ImportAsync is the dynamic-import entry point. The returned deferred
// resolves to the dependency's namespace once the dependency (and its
// async subtree, if any) completed; failures reject it instead of being
// thrown into the importer.
func (c *Context) ImportAsync(id ID) *future.Deferred {
	d := future.New()

	dep, err := c.rt.getOrInstantiate(id, importReason(c.m.ID))
	if err != nil {
		d.Reject(err)
		return d
	}

	if dep.async != nil && !dep.async.Settled() {
		rt := c.rt
		dep.async.OnSettle(func(_ any, err error) {
			if err != nil {
				d.Reject(err)
				return
			}
			d.Resolve(rt.namespaceOf(dep, false))
		})
		return d
	}

	if dep.async != nil {
		if _, err := dep.async.Result(); err != nil {
			d.Reject(err)
			return d
		}
	}

	d.Resolve(c.rt.namespaceOf(dep, false))
	return d
}

// Async declares the module asynchronous and runs its body under the
// continuation protocol. Importers receive the shared completion instead
// of the raw exports, so every importer awaits the same result.
func (c *Context) Async(body future.Body, hasAwait bool) {
	c.m.async = future.NewModuleExports(c.m.Exports, hasAwait)
	future.Run(c.m.async, body)
}

// namespaceOf returns the namespace view of a module, synthesizing and
// caching it on first use.
func (rt *Runtime) namespaceOf(m *Module, explicit bool) *interop.Object {
	if m.Namespace != nil {
		return m.Namespace
	}
	ns := interop.AsNamespace(m.Exports, explicit)
	m.Namespace = ns
	return ns
}
