// Package runtime implements the module runtime a bundler injects into its
// build output: module cache, factory registry, the context ABI factories
// are compiled against, the dependency graph tracker, and the hot update
// engine.
//
// # Quick Start
//
//	rt := runtime.New(runtime.DefaultOptions())
//
//	err := rt.InstallChunk("main", []any{
//	    "lib", libFactory,
//	    "app", appFactory,
//	})
//
//	exports, err := rt.RunEntry("app")
//
// # Instantiation
//
// Records are created lazily, on first demand, never eagerly. A record is
// registered in the cache before its factory runs, so circular imports
// resolve to the same partially-populated record. A factory failure poisons
// the record: the error is re-returned on every later request without
// re-executing, until an update disposes the record. A missing factory is a
// hard error whose message distinguishes how the module was demanded.
//
// # Hot Updates
//
// ApplyUpdate classifies each changed module by walking the dependency
// graph upward: a change is absorbed by the nearest self-accepting ancestor
// or an auto-accepting root, declined fatally by a self-declining module,
// or rejected as unaccepted when it reaches a non-accepting root. Rejection
// happens before any disposal, so a failed update never leaves the cache
// partially applied. Self-invalidations queued during an apply are drained
// in an explicit work loop rather than by recursion.
//
// # Thread Safety
//
// Runtime is NOT thread-safe. It is strictly single-threaded and
// cooperative: one goroutine owns it, every operation runs to completion,
// and waiting happens only through package future. Serializing concurrent
// updates is the host's responsibility.
package runtime
