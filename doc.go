// Package hmrruntime provides the module runtime and hot-module-replacement
// engine that a bundler injects into its build output.
//
// The runtime is the miniature operating system a bundled program runs
// inside: it owns module identity, lazy instantiation, interop between the
// two export calling conventions, asynchronous dependency resolution without
// native suspension, and — during development — safe replacement of
// already-executed module code without restarting the program.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	hmr-runtime/         Root package with the context ABI version
//	├── runtime/         Runtime instance: module cache, factory registry,
//	│                    instantiation, context ABI, dependency graph,
//	│                    hot state and the update engine
//	├── interop/         Export objects, namespace synthesis and the
//	│                    dynamic re-export chain
//	├── future/          Deferred values and the async module protocol
//	├── chunk/           Chunk payload decoding and update instructions
//	└── errors/          Structured error types for debugging
//
// # Quick Start
//
// Install a chunk and require its entry module:
//
//	rt := runtime.New(runtime.DefaultOptions())
//
//	err := rt.InstallChunk("main", []any{
//	    "lib", libFactory,
//	    "app", appFactory,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	exports, err := rt.RunEntry("app")
//	fmt.Println(exports)
//
// Apply a hot update delivered by the host transport:
//
//	err = rt.ApplyUpdate(runtime.Update{
//	    Instructions: []chunk.Instruction{
//	        {Chunk: "main", Kind: chunk.KindPartial, Added: []string{"app"}},
//	    },
//	    Factories: map[runtime.ID]runtime.Factory{"app": appFactoryV2},
//	})
//
// # Execution Model
//
// The runtime is strictly single-threaded and cooperative. Every public
// operation runs to completion; "waiting" on asynchronous dependencies is
// entirely queue driven (see package future). A Runtime must be owned by a
// single goroutine, or access must be synchronized by the caller. Update
// application is not preemptible: serializing concurrent updates is the
// host's responsibility.
//
// # Error Model
//
// A missing factory is always a hard, descriptive error, never a silent
// empty result. A factory that fails permanently poisons its module record:
// later requests re-return the same error without re-running the factory,
// until an update disposes the record. A rejected update (no accepting
// ancestor, or an explicit decline) is fatal to the whole update and leaves
// the module cache untouched; the caller is expected to fall back to a full
// reload of the host.
package hmrruntime
