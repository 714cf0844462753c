// Package future provides the async coordination layer of the runtime:
// explicit deferred values with waiter lists, and the continuation protocol
// async module factories are compiled against.
//
// Factories run start-to-finish with no native pause/resume. A factory that
// depends on an unresolved module registers its dependencies through the
// handle callback and finishes through the done callback:
//
//	future.Run(ex, func(handle future.HandleFunc, done future.DoneFunc) {
//	    resolved, pending := handle([]any{depY, depZ})
//	    if pending == nil {
//	        use(resolved)
//	        done(nil)
//	        return
//	    }
//	    pending.OnSettle(func(v any, err error) {
//	        if err != nil {
//	            done(err)
//	            return
//	        }
//	        use(v.([]any))
//	        done(nil)
//	    })
//	})
//
// Every importer of an async module awaits the same shared ModuleExports.
// Errors propagate only through the wrapped-dependency error slot to
// transitive dependents, never synchronously into unrelated code.
//
// There is no timeout: a queue that never settles means dependents never
// resolve. That is a caller-visible liveness property, not an engine error.
package future
