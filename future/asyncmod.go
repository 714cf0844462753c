package future

// ModuleExports is the async module wrapper: the deferred completion of a
// module whose factory used an unresolved dependency. It carries the
// module's current export snapshot while the body is still running, so
// circular importers observe partial exports instead of nothing.
//
// Only this package constructs ModuleExports; the concrete type is the
// private tag that distinguishes an async module from an ordinary deferred
// value.
type ModuleExports struct {
	Deferred
	snapshot any
	hasQueue bool
}

// NewModuleExports creates the shared completion for one async module.
// A queue is owned only when the body actually awaits (hasAwait); a body
// that merely returns a deferred value settles through the Deferred alone.
func NewModuleExports(snapshot any, hasAwait bool) *ModuleExports {
	return &ModuleExports{snapshot: snapshot, hasQueue: hasAwait}
}

// Snapshot returns the current export snapshot. After resolution the
// settled value takes over.
func (m *ModuleExports) Snapshot() any {
	if m.State() == StateResolved {
		v, _ := m.Result()
		return v
	}
	return m.snapshot
}

// SetSnapshot replaces the export snapshot (a factory reassigning its
// value-style exports mid-body).
func (m *ModuleExports) SetSnapshot(v any) {
	m.snapshot = v
}

// HasQueue reports whether this module owns a pending queue.
func (m *ModuleExports) HasQueue() bool {
	return m.hasQueue
}

// Dep is a dependency normalized by WrapDependency: a current snapshot, a
// subscribe-on-completion hook, and an optional terminal error.
type Dep struct {
	snapshot func() any
	settled  bool
	err      error
	deferred *Deferred
}

// Settled reports whether the dependency already completed.
func (d *Dep) Settled() bool {
	return d.settled
}

// Err returns the terminal error, if any.
func (d *Dep) Err() error {
	return d.err
}

// Exports returns the dependency's current export snapshot.
func (d *Dep) Exports() any {
	return d.snapshot()
}

// OnComplete subscribes to completion. Already-settled dependencies notify
// immediately.
func (d *Dep) OnComplete(fn func(error)) {
	if d.settled {
		fn(d.err)
		return
	}
	d.deferred.OnSettle(func(_ any, err error) {
		fn(err)
	})
}

// WrapDependency normalizes any dependency into a Dep. Async module
// wrappers and plain deferred values subscribe on their completion;
// everything else wraps as no-op-complete.
func WrapDependency(dep any) *Dep {
	switch v := dep.(type) {
	case *ModuleExports:
		if v.Settled() {
			val, err := v.Result()
			return &Dep{snapshot: func() any { return val }, settled: true, err: err}
		}
		return &Dep{snapshot: v.Snapshot, deferred: &v.Deferred}
	case *Deferred:
		if v.Settled() {
			val, err := v.Result()
			return &Dep{snapshot: func() any { return val }, settled: true, err: err}
		}
		return &Dep{snapshot: func() any { val, _ := v.Result(); return val }, deferred: v}
	default:
		return &Dep{snapshot: func() any { return dep }, settled: true}
	}
}

// HandleFunc is handed to an async module body to register its async
// dependencies. If every dependency already resolved it returns the
// resolved export list synchronously and a nil Deferred (no suspension
// cost). Otherwise it returns a Deferred that resolves to the export list,
// in declared order, once every still-pending dependency notifies.
type HandleFunc func(deps []any) ([]any, *Deferred)

// DoneFunc is the body's completion callback. A nil error resolves the
// shared result; a non-nil error stores it. Either way the pending queue
// flushes so dependents settle promptly rather than hang.
type DoneFunc func(err error)

// Body is an async module factory body. It runs start to finish with no
// native suspension; continuation happens through the handle/done pair.
type Body func(handle HandleFunc, done DoneFunc)

// Run executes an async module body against its shared completion.
//
// The dependent-notification guarantee holds by construction: a module's
// completion settles only inside done, which the body calls after its own
// dependency Deferred settled, so a dependent is notified only after all
// its direct (and transitively, their) async dependencies notified. The
// queue-of-queues shape lets independent parts of a body proceed without
// eagerly awaiting an entire subtree: each handle call owns its own
// counter.
func Run(ex *ModuleExports, body Body) {
	handle := func(deps []any) ([]any, *Deferred) {
		wrapped := make([]*Dep, len(deps))
		for i, dep := range deps {
			wrapped[i] = WrapDependency(dep)
			if wrapped[i].settled && wrapped[i].err != nil {
				return nil, Rejected(wrapped[i].err)
			}
		}

		// Count each pending completion once, even when the same
		// dependency is declared several times.
		outstanding := 0
		counted := make(map[*Deferred]bool)
		for _, d := range wrapped {
			if d.settled {
				continue
			}
			if counted[d.deferred] {
				continue
			}
			counted[d.deferred] = true
			outstanding++
		}

		collect := func() []any {
			out := make([]any, len(wrapped))
			for i, d := range wrapped {
				out[i] = d.Exports()
			}
			return out
		}

		if outstanding == 0 {
			return collect(), nil
		}

		result := New()
		for deferred := range counted {
			remaining := &outstanding
			deferred.OnSettle(func(_ any, err error) {
				if err != nil {
					result.Reject(err)
					return
				}
				*remaining--
				if *remaining == 0 {
					result.Resolve(collect())
				}
			})
		}
		return nil, result
	}

	done := func(err error) {
		if err != nil {
			ex.Reject(err)
			return
		}
		ex.Resolve(ex.Snapshot())
	}

	body(handle, done)
}
