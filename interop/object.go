package interop

import (
	"sort"

	"github.com/wippyai/hmr-runtime/errors"
)

// KeyDefault is the binding name used for the default export.
const KeyDefault = "default"

// reservedKeys never fall through to dynamic re-export sources.
var reservedKeys = map[string]bool{
	KeyDefault: true,
}

// Binding describes one named export. The three encodings let re-exported
// live bindings coexist with literal values:
//
//   - plain value: Get and Set nil, Value used as-is
//   - read-only live binding: Get set, Set nil
//   - writable live binding: Get and Set both set
type Binding struct {
	Value any
	Get   func() any
	Set   func(any)
}

type prop struct {
	value any
	get   func() any
	set   func(any)
}

func (p *prop) read() any {
	if p.get != nil {
		return p.get()
	}
	return p.value
}

// Object is the mutable export container passed to factories. Before a
// namespace declaration it behaves like a plain property bag; after
// DeclareNamespace it is sealed and properties become the declared live
// bindings.
//
// Object is not safe for concurrent use; the runtime is single-threaded
// by construction.
type Object struct {
	props     map[string]*prop
	order     []string
	proto     *Object
	sources   []*Object
	sealed    bool
	namespace bool
}

// NewObject creates an empty export object.
func NewObject() *Object {
	return &Object{props: make(map[string]*prop)}
}

// NewObjectWithProto creates an export object with a prototype. Property
// enumeration for namespace synthesis walks the prototype chain; a nil
// prototype is the built-in root.
func NewObjectWithProto(proto *Object) *Object {
	o := NewObject()
	o.proto = proto
	return o
}

// IsNamespace reports whether DeclareNamespace ran on this object.
func (o *Object) IsNamespace() bool {
	return o.namespace
}

// Sealed reports whether the object accepts new properties.
func (o *Object) Sealed() bool {
	return o.sealed
}

// Proto returns the prototype object, or nil at the root.
func (o *Object) Proto() *Object {
	return o.proto
}

func (o *Object) define(name string, b Binding) {
	if _, exists := o.props[name]; !exists {
		o.order = append(o.order, name)
	}
	o.props[name] = &prop{value: b.Value, get: b.Get, set: b.Set}
}

// Set assigns a property. On a sealed object only properties declared with
// a setter accept writes; everything else is a sealed error.
func (o *Object) Set(name string, v any) error {
	if p, ok := o.props[name]; ok {
		if p.set != nil {
			p.set(v)
			return nil
		}
		if o.sealed {
			return errors.Sealed(name)
		}
		p.value = v
		p.get = nil
		return nil
	}
	if o.sealed {
		return errors.Sealed(name)
	}
	o.define(name, Binding{Value: v})
	return nil
}

// GetOwn reads a property defined directly on this object.
func (o *Object) GetOwn(name string) (any, bool) {
	if p, ok := o.props[name]; ok {
		return p.read(), true
	}
	return nil, false
}

// HasOwn reports whether the property is defined directly on this object.
func (o *Object) HasOwn(name string) bool {
	_, ok := o.props[name]
	return ok
}

// Get reads a property. Lookup order: own properties, then dynamic
// re-export sources in registration order (skipped for reserved keys),
// then the prototype chain.
func (o *Object) Get(name string) (any, bool) {
	if v, ok := o.GetOwn(name); ok {
		return v, true
	}
	if !reservedKeys[name] {
		for _, src := range o.sources {
			if v, ok := src.Get(name); ok {
				return v, true
			}
		}
	}
	if o.proto != nil {
		return o.proto.Get(name)
	}
	return nil, false
}

// Keys returns own property names in definition order.
func (o *Object) Keys() []string {
	keys := make([]string, len(o.order))
	copy(keys, o.order)
	return keys
}

// keysAlongProto enumerates own properties along the prototype chain,
// nearest first, deduplicated. The nil prototype terminates the walk.
func (o *Object) keysAlongProto() []string {
	var keys []string
	seen := make(map[string]bool)
	for cur := o; cur != nil; cur = cur.proto {
		for _, name := range cur.order {
			if !seen[name] {
				seen[name] = true
				keys = append(keys, name)
			}
		}
	}
	return keys
}

// AddSource registers a dynamic re-export source ("export * from X").
// Sources are consulted in registration order and deduplicated by
// identity; re-adding a source is a no-op.
func (o *Object) AddSource(src *Object) {
	if src == nil || src == o {
		return
	}
	for _, existing := range o.sources {
		if existing == src {
			return
		}
	}
	o.sources = append(o.sources, src)
}

// Sources returns the registered re-export sources in order.
func (o *Object) Sources() []*Object {
	return o.sources
}

// DeclareNamespace seals the object and installs one property per binding.
// Binding names are installed in sorted order so enumeration is stable.
// Declaring a namespace twice on the same object is an error, never a
// silent second definition.
func (o *Object) DeclareNamespace(id string, bindings map[string]Binding) error {
	if o.namespace {
		return errors.AlreadyDeclared(id)
	}

	names := make([]string, 0, len(bindings))
	for name := range bindings {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		o.define(name, bindings[name])
	}

	o.namespace = true
	o.sealed = true
	return nil
}
