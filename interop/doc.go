// Package interop converts between the two export calling conventions a
// bundled program mixes freely: value-style (a single mutable export) and
// namespace-style (a sealed set of named, potentially live bindings).
//
// The central type is Object, the mutable export container handed to every
// factory. A namespace-style factory declares its bindings once:
//
//	exports.DeclareNamespace("lib", map[string]interop.Binding{
//	    "answer": {Value: 42},
//	    "count":  {Get: func() any { return count }},
//	})
//
// A value-style consumer importing that module sees the object directly; a
// namespace-style consumer importing a value-style module goes through
// AsNamespace, which synthesizes live getters back to the source.
//
// Re-exporting everything from several modules uses an ordered source
// chain, consulted for any property not found on the primary exports:
//
//	exports.AddSource(depA)
//	exports.AddSource(depB)
//
// Objects are not safe for concurrent use; the runtime that owns them is
// single-threaded by construction.
package interop
