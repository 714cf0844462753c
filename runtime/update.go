package runtime

import (
	"sort"

	"github.com/wippyai/hmr-runtime/chunk"
	"github.com/wippyai/hmr-runtime/errors"
)

// Update is one update notification delivered by the host transport:
// per-chunk instructions plus replacement code for added/modified ids,
// either as ready factories or as source text for the configured compiler.
type Update struct {
	Instructions []chunk.Instruction
	Factories    map[ID]Factory
	Sources      map[ID]string
}

// ApplyUpdate applies a hot update.
//
// The whole compute/apply cycle is an explicit work loop: self-invalidations
// queued by modules during one pass are captured and processed in the next
// iteration, until the queue drains. A rejected update (unaccepted or
// self-declined path, or a graph invariant violation) aborts before any
// disposal, leaving cache and registry untouched. Re-instantiation failures
// inside an applied pass are collected into a single first-error slot and
// returned only after the pass finishes its sibling work.
func (rt *Runtime) ApplyUpdate(u Update) error {
	factories, err := rt.compileUpdate(u)
	if err != nil {
		return err
	}

	newCode := make([]string, 0, len(factories))
	for id := range factories {
		newCode = append(newCode, string(id))
	}
	sort.Strings(newCode)

	instructions := u.Instructions
	invalidated := rt.drainInvalidations()

	for {
		classified := chunk.Preprocess(instructions, newCode, invalidated)
		if len(classified.Added) == 0 && len(classified.Modified) == 0 && len(classified.Deleted) == 0 {
			return nil
		}

		if err := rt.applyPass(classified, factories); err != nil {
			// Invalidations queued during a failed pass stay queued
			// for the next update.
			return err
		}

		invalidated = rt.drainInvalidations()
		if len(invalidated) == 0 {
			return nil
		}

		// Invalidation rounds reuse the already-installed factories.
		instructions = nil
		newCode = nil
		factories = nil
	}
}

func (rt *Runtime) compileUpdate(u Update) (map[ID]Factory, error) {
	factories := make(map[ID]Factory, len(u.Factories)+len(u.Sources))
	for id, f := range u.Factories {
		factories[id] = f
	}
	for id, src := range u.Sources {
		if _, dup := factories[id]; dup {
			return nil, errors.InvalidInput(errors.PhaseUpdate,
				"module "+string(id)+" carries both a factory and source text")
		}
		if rt.opts.CompileFactory == nil {
			return nil, errors.InvalidInput(errors.PhaseUpdate,
				"update carries source text but no factory compiler is configured")
		}
		f, err := rt.opts.CompileFactory(src)
		if err != nil {
			return nil, errors.Compile(string(id), err)
		}
		factories[id] = f
	}
	return factories, nil
}

type effectKind int

const (
	effectAccepted effectKind = iota
	effectUnaccepted
	effectDeclined
)

type moduleEffect struct {
	kind     effectKind
	chain    []ID
	outdated []ID
}

// computeEffect walks breadth-first upward from id through current parent
// edges, with a visited set guarding against cycles. Every id visited is
// outdated. A designated root either absorbs the change (auto-accept) or
// rejects it carrying the full chain; a declined module rejects fatally; a
// self-accepting, non-invalidated module absorbs without walking through.
// A module with no parents that is neither a root nor self-accepting is an
// invariant violation, not a handled case.
func (rt *Runtime) computeEffect(id ID) (*moduleEffect, error) {
	if _, ok := rt.cache[id]; !ok {
		// Never instantiated: installing new code has no dependents to
		// consider.
		return &moduleEffect{kind: effectAccepted}, nil
	}

	type walkItem struct {
		id    ID
		chain []ID
	}

	visited := map[ID]bool{id: true}
	var outdated []ID
	queue := []walkItem{{id: id, chain: []ID{id}}}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		m := rt.cache[item.id]
		if m == nil {
			// Stale edge to an already-disposed module.
			continue
		}
		outdated = append(outdated, item.id)

		if rt.roots[item.id] {
			if rt.opts.AutoAcceptRoots {
				continue
			}
			return &moduleEffect{kind: effectUnaccepted, chain: item.chain}, nil
		}

		if m.Hot.declined {
			return &moduleEffect{kind: effectDeclined, chain: item.chain}, nil
		}

		if m.Hot.acceptsSelf() && !m.Hot.invalid {
			continue
		}

		parents := m.parentIDs()
		if len(parents) == 0 {
			return nil, errors.Invariant(
				"module has no parents, is not a runtime root, and does not accept updates",
				idsToStrings(item.chain))
		}

		for _, pid := range parents {
			if visited[pid] {
				continue
			}
			visited[pid] = true
			chain := make([]ID, len(item.chain)+1)
			copy(chain, item.chain)
			chain[len(item.chain)] = pid
			queue = append(queue, walkItem{id: pid, chain: chain})
		}
	}

	return &moduleEffect{kind: effectAccepted, outdated: outdated}, nil
}

// selfAcceptor is an outdated self-accepting module captured before
// disposal: its pre-disposal parent list and error handler survive the
// record.
type selfAcceptor struct {
	id      ID
	parents []ID
	onError func(error) error
}

// applyPass runs one compute/apply round.
func (rt *Runtime) applyPass(c chunk.Classified, factories map[ID]Factory) error {
	// Effect walk for every modified id first; any fatal classification
	// aborts before a single disposal, so the cache never ends up
	// partially applied.
	var outdated []ID
	inOutdated := make(map[ID]bool)
	for _, raw := range sortedKeys(c.Modified) {
		eff, err := rt.computeEffect(ID(raw))
		if err != nil {
			return err
		}
		switch eff.kind {
		case effectUnaccepted:
			return errors.NewUpdateRejectedError(errors.ReasonUnaccepted, raw, idsToStrings(eff.chain))
		case effectDeclined:
			return errors.NewUpdateRejectedError(errors.ReasonSelfDeclined, raw, idsToStrings(eff.chain))
		}
		for _, oid := range eff.outdated {
			if !inOutdated[oid] {
				inOutdated[oid] = true
				outdated = append(outdated, oid)
			}
		}
	}

	// Identify self-accepting outdated ids before disposal; only these
	// are re-instantiated directly, the rest are covered transitively by
	// an ancestor.
	var acceptors []selfAcceptor
	for _, oid := range outdated {
		m := rt.cache[oid]
		if m == nil || !m.Hot.acceptsSelf() {
			continue
		}
		acceptors = append(acceptors, selfAcceptor{
			id:      oid,
			parents: m.parentIDs(),
			onError: m.Hot.onError,
		})
	}

	// Dispose outdated incarnations (replace mode: data bag survives),
	// then physically delete removed ids (clear mode).
	for _, oid := range outdated {
		rt.dispose(oid, true)
	}
	for _, raw := range sortedKeys(c.Deleted) {
		id := ID(raw)
		rt.dispose(id, false)
		delete(rt.factories, id)
	}

	// Install new factories only after disposal, so a walk never
	// observes mixed generations.
	for _, raw := range sortedKeys(c.Added) {
		if f, ok := factories[ID(raw)]; ok {
			rt.factories[ID(raw)] = f
		}
	}
	for _, raw := range sortedKeys(c.Modified) {
		if f, ok := factories[ID(raw)]; ok {
			rt.factories[ID(raw)] = f
		}
	}

	// Re-instantiate self-acceptors with their recorded parent lists.
	// Order among them is unconstrained: by construction no acceptor
	// depends on another within one pass. An accept handler governs its
	// module's failure; a handler that itself fails surfaces the
	// original error. The first fatal error is returned only after all
	// sibling work completes.
	var firstErr error
	for _, a := range acceptors {
		_, err := rt.getOrInstantiate(a.id, updateReason(a.parents))
		if err == nil {
			continue
		}
		if a.onError != nil {
			if herr := a.onError(err); herr == nil {
				continue
			}
		}
		if firstErr == nil {
			firstErr = err
		}
	}

	debugf("applied update pass: %d outdated, %d re-instantiated, err=%v",
		len(outdated), len(acceptors), firstErr)
	return firstErr
}

// dispose runs the incarnation's dispose handlers in registration order
// against a fresh data bag, clears its graph bookkeeping, and removes the
// record. In replace mode the data bag is kept for the next incarnation;
// in clear mode everything goes.
func (rt *Runtime) dispose(id ID, keepData bool) {
	m, ok := rt.cache[id]
	if !ok {
		if !keepData {
			delete(rt.hotData, id)
		}
		return
	}

	data := m.Hot.runDisposers()
	if keepData {
		rt.hotData[id] = data
	} else {
		delete(rt.hotData, id)
	}

	for cid := range m.Children {
		if child, ok := rt.cache[cid]; ok {
			delete(child.Parents, id)
		}
	}
	for pid := range m.Parents {
		if parent, ok := rt.cache[pid]; ok {
			delete(parent.Children, id)
		}
	}

	delete(rt.cache, id)
	debugf("disposed %q (keepData=%v)", id, keepData)
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func idsToStrings(ids []ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
