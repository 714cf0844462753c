package runtime

type acceptMode int

const (
	acceptNone acceptMode = iota
	acceptFlag
	acceptHandler
)

// HotState is a module incarnation's hot-replacement declarations. It is
// created fresh on every instantiation and discarded with its record; only
// the data bag written by dispose handlers survives into the next
// incarnation.
type HotState struct {
	module *Module

	accepted  acceptMode
	onError   func(error) error
	declined  bool
	invalid   bool
	disposers []func(data map[string]any)
	data      map[string]any

	invalidate func(ID)
}

func newHotState(m *Module, data map[string]any) *HotState {
	return &HotState{module: m, data: data}
}

// bind wires the invalidation queue of the owning runtime.
func (h *HotState) bind(rt *Runtime) {
	h.invalidate = rt.queueInvalidation
}

// Accept declares that this module absorbs its own code updates without
// restarting dependents.
func (h *HotState) Accept() {
	if h.accepted == acceptNone {
		h.accepted = acceptFlag
	}
}

// AcceptWith is the callback form of Accept. The handler governs error
// handling when re-instantiation after an update fails: returning nil means
// the module recovered; returning an error means the handler itself failed
// and the original instantiation error surfaces.
func (h *HotState) AcceptWith(handler func(error) error) {
	h.accepted = acceptHandler
	h.onError = handler
}

// Decline declares that any hot update to this module is fatal.
func (h *HotState) Decline() {
	h.declined = true
}

// Dispose registers a handler run when this incarnation is disposed.
// Handlers run in registration order and share one fresh data bag, which
// becomes the next incarnation's Data.
func (h *HotState) Dispose(fn func(data map[string]any)) {
	h.disposers = append(h.disposers, fn)
}

// Invalidate marks this incarnation outdated and queues it for the next
// update round. Invalidation mid-update does not cancel the current apply.
func (h *HotState) Invalidate() {
	if h.invalid {
		return
	}
	h.invalid = true
	if h.invalidate != nil {
		h.invalidate(h.module.ID)
	}
}

// Data returns the bag written by the previous incarnation's dispose
// handlers, or nil on first instantiation.
func (h *HotState) Data() map[string]any {
	return h.data
}

// Declined reports an explicit self-decline.
func (h *HotState) Declined() bool {
	return h.declined
}

// Invalidated reports a queued self-invalidation.
func (h *HotState) Invalidated() bool {
	return h.invalid
}

// acceptsSelf reports whether the module declared self-acceptance in
// either form.
func (h *HotState) acceptsSelf() bool {
	return h.accepted != acceptNone
}

// runDisposers executes dispose handlers in registration order against a
// fresh data bag and returns it.
func (h *HotState) runDisposers() map[string]any {
	data := make(map[string]any)
	for _, fn := range h.disposers {
		fn(data)
	}
	return data
}
