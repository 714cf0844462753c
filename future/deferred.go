package future

// State of a Deferred.
type State int

const (
	StatePending State = iota
	StateResolved
	StateRejected
)

// Deferred is an explicitly-settled value with a waiter list. There is no
// blocking primitive anywhere in the runtime; "waiting" means registering a
// waiter and returning.
//
// Deferred is single-settle: the first Resolve or Reject wins and later
// calls are no-ops. Not safe for concurrent use; the runtime is
// single-threaded by construction.
type Deferred struct {
	state   State
	value   any
	err     error
	waiters []func(any, error)
}

// New creates a pending Deferred.
func New() *Deferred {
	return &Deferred{}
}

// Resolved creates an already-resolved Deferred.
func Resolved(v any) *Deferred {
	return &Deferred{state: StateResolved, value: v}
}

// Rejected creates an already-rejected Deferred.
func Rejected(err error) *Deferred {
	return &Deferred{state: StateRejected, err: err}
}

// State returns the current state.
func (d *Deferred) State() State {
	return d.state
}

// Settled reports whether the Deferred has resolved or rejected.
func (d *Deferred) Settled() bool {
	return d.state != StatePending
}

// Result returns the settled value and error. Both are zero while pending.
func (d *Deferred) Result() (any, error) {
	return d.value, d.err
}

// Resolve settles the Deferred with a value and flushes waiters in
// registration order. No-op if already settled.
func (d *Deferred) Resolve(v any) {
	if d.state != StatePending {
		return
	}
	d.state = StateResolved
	d.value = v
	d.flush()
}

// Reject settles the Deferred with an error and flushes waiters in
// registration order, so dependents fail promptly rather than hang.
// No-op if already settled.
func (d *Deferred) Reject(err error) {
	if d.state != StatePending {
		return
	}
	d.state = StateRejected
	d.err = err
	d.flush()
}

// OnSettle registers a waiter. If the Deferred is already settled the
// waiter runs immediately. Each waiter runs exactly once.
func (d *Deferred) OnSettle(fn func(any, error)) {
	if d.state != StatePending {
		fn(d.value, d.err)
		return
	}
	d.waiters = append(d.waiters, fn)
}

func (d *Deferred) flush() {
	// Waiters registered during the flush run in the same pass.
	for i := 0; i < len(d.waiters); i++ {
		d.waiters[i](d.value, d.err)
	}
	d.waiters = nil
}
