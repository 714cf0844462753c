package interop

// AsNamespace converts arbitrary exports into namespace-style exports.
//
// If the target is already a namespace object it is reused as-is. An
// ordinary export object is wrapped in a synthesized namespace that
// enumerates every own property along the target's prototype chain and
// exposes each as a live getter back to the source, so later writes to the
// target stay visible.
//
// The default binding depends on the interop mode: with explicit interop
// requested, a property literally named "default" on the target becomes the
// namespace's default binding directly; otherwise the whole raw value is
// the default. A non-object value always becomes the default binding.
//
// Callers cache the synthesized namespace on the module record; AsNamespace
// itself is pure.
func AsNamespace(target any, explicit bool) *Object {
	obj, isObject := target.(*Object)
	if isObject && obj.IsNamespace() {
		return obj
	}

	ns := NewObject()

	if isObject {
		src := obj
		for _, name := range obj.keysAlongProto() {
			if name == KeyDefault {
				continue
			}
			bound := name
			ns.define(bound, Binding{Get: func() any {
				v, _ := src.Get(bound)
				return v
			}})
		}
		if explicit && hasAlongProto(obj, KeyDefault) {
			ns.define(KeyDefault, Binding{Get: func() any {
				v, _ := src.Get(KeyDefault)
				return v
			}})
		} else {
			ns.define(KeyDefault, Binding{Value: target})
		}
	} else {
		ns.define(KeyDefault, Binding{Value: target})
	}

	ns.namespace = true
	ns.sealed = true
	return ns
}

func hasAlongProto(o *Object, name string) bool {
	for cur := o; cur != nil; cur = cur.proto {
		if cur.HasOwn(name) {
			return true
		}
	}
	return false
}

// MergeViews reconciles a module's namespace with its raw exports after a
// factory returns. Under circular import a module can be value-accessed and
// namespace-accessed while only partially populated; once the factory
// finishes, properties that only exist on the raw exports are exposed on
// the namespace as live getters.
//
// Runs at most once per instantiation, after the factory.
func MergeViews(ns *Object, raw any) {
	if ns == nil {
		return
	}

	if obj, ok := raw.(*Object); ok {
		if obj == ns {
			return
		}
		for _, name := range obj.keysAlongProto() {
			if ns.HasOwn(name) {
				continue
			}
			src, bound := obj, name
			ns.define(bound, Binding{Get: func() any {
				v, _ := src.Get(bound)
				return v
			}})
		}
		return
	}

	if raw != nil && !ns.HasOwn(KeyDefault) {
		ns.define(KeyDefault, Binding{Value: raw})
	}
}
