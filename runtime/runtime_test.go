package runtime

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/wippyai/hmr-runtime/errors"
	"github.com/wippyai/hmr-runtime/future"
	"github.com/wippyai/hmr-runtime/interop"
)

func valueFactory(v any) Factory {
	return func(ctx *Context, m *Module, exports *interop.Object) error {
		ctx.SetExports(v)
		return nil
	}
}

func nsFactory(bindings map[string]interop.Binding) Factory {
	return func(ctx *Context, m *Module, exports *interop.Object) error {
		return ctx.DeclareNamespace(bindings)
	}
}

func install(t *testing.T, rt *Runtime, id string, f Factory) {
	t.Helper()
	if err := rt.InstallChunk("test", []any{id, f}); err != nil {
		t.Fatalf("InstallChunk failed: %v", err)
	}
}

func TestRuntime_LazyInstantiation(t *testing.T) {
	rt := NewWithDefaults()
	install(t, rt, "app", valueFactory("app-exports"))
	install(t, rt, "unused", valueFactory("never"))

	if _, err := rt.RunEntry("app"); err != nil {
		t.Fatalf("RunEntry failed: %v", err)
	}

	if _, ok := rt.Module("unused"); ok {
		t.Fatal("No record may exist for an id never requested")
	}
	if _, ok := rt.Module("app"); !ok {
		t.Fatal("Expected record for the requested entry")
	}
}

func TestRuntime_MissingFactoryByReason(t *testing.T) {
	rt := NewWithDefaults()
	install(t, rt, "app", func(ctx *Context, m *Module, exports *interop.Object) error {
		_, err := ctx.Require("ghost")
		return err
	})

	// Entry reason.
	_, err := rt.Require("nowhere")
	if err == nil {
		t.Fatal("Expected missing factory error")
	}
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseInstantiate, Kind: errors.KindMissingFactory}) {
		t.Fatalf("Expected missing_factory, got %v", err)
	}
	if !strings.Contains(err.Error(), "runtime entry of chunk") {
		t.Fatalf("Expected entry reason in message, got %q", err.Error())
	}

	// Import reason, with the demanding parent named.
	_, err = rt.Require("app")
	if err == nil {
		t.Fatal("Expected import failure to propagate")
	}
	if !strings.Contains(err.Error(), `imported by "app"`) {
		t.Fatalf("Expected import reason in message, got %q", err.Error())
	}
}

func TestRuntime_PoisonedRecordNeverReExecutes(t *testing.T) {
	rt := NewWithDefaults()

	runs := 0
	install(t, rt, "bad", func(ctx *Context, m *Module, exports *interop.Object) error {
		runs++
		return fmt.Errorf("attempt %d", runs)
	})

	_, first := rt.Require("bad")
	if first == nil {
		t.Fatal("Expected factory error")
	}

	_, second := rt.Require("bad")
	if second != first {
		t.Fatalf("Expected the identical poisoning error, got %v vs %v", first, second)
	}
	if runs != 1 {
		t.Fatalf("Factory must run exactly once, ran %d times", runs)
	}
}

func TestRuntime_FactoryPanicPoisons(t *testing.T) {
	rt := NewWithDefaults()
	install(t, rt, "panicky", func(ctx *Context, m *Module, exports *interop.Object) error {
		panic("kaboom")
	})

	_, err := rt.Require("panicky")
	if err == nil || !strings.Contains(err.Error(), "kaboom") {
		t.Fatalf("Expected panic converted to poisoning error, got %v", err)
	}

	m, ok := rt.Module("panicky")
	if !ok || m.Err == nil {
		t.Fatal("Expected poisoned record in cache")
	}
}

func TestRuntime_CircularImports(t *testing.T) {
	rt := NewWithDefaults()

	var bViewOfA *interop.Object
	install(t, rt, "a", func(ctx *Context, m *Module, exports *interop.Object) error {
		exports.Set("early", "e")
		if _, err := ctx.Require("b"); err != nil {
			return err
		}
		exports.Set("late", "l")
		return nil
	})
	install(t, rt, "b", func(ctx *Context, m *Module, exports *interop.Object) error {
		ns, err := ctx.ImportNamespace("a", false)
		if err != nil {
			return err
		}
		bViewOfA = ns
		// Mid-cycle, A is partially populated but present.
		if v, _ := ns.Get("early"); v != "e" {
			return fmt.Errorf("expected partial exports, got %v", v)
		}
		exports.Set("from-b", true)
		return nil
	})

	if _, err := rt.Require("a"); err != nil {
		t.Fatalf("Circular require failed: %v", err)
	}

	a, _ := rt.Module("a")
	b, _ := rt.Module("b")
	if !a.Loaded() || !b.Loaded() {
		t.Fatal("Both modules must finish loading")
	}

	// The namespace synthesized mid-cycle gains post-cycle properties via
	// the one-shot interop merge.
	if v, ok := bViewOfA.Get("late"); !ok || v != "l" {
		t.Fatalf("Expected merged view to expose late property, got %v (ok=%v)", v, ok)
	}

	// Edges recorded in both directions of the cycle.
	if !b.Parents["a"] || !a.Children["b"] {
		t.Fatal("Expected a->b edge")
	}
	if !a.Parents["b"] || !b.Children["a"] {
		t.Fatal("Expected b->a edge")
	}
}

func TestRuntime_ValueReexportDefaultIdentity(t *testing.T) {
	rt := NewWithDefaults()

	type widget struct{ n int }
	original := &widget{n: 1}

	install(t, rt, "value", valueFactory(original))
	install(t, rt, "reexport", func(ctx *Context, m *Module, exports *interop.Object) error {
		v, err := ctx.Require("value")
		if err != nil {
			return err
		}
		ctx.SetExports(v)
		return nil
	})

	var def any
	install(t, rt, "consumer", func(ctx *Context, m *Module, exports *interop.Object) error {
		ns, err := ctx.ImportNamespace("reexport", false)
		if err != nil {
			return err
		}
		def, _ = ns.Get("default")
		return nil
	})

	if _, err := rt.Require("consumer"); err != nil {
		t.Fatalf("Require failed: %v", err)
	}
	if def != any(original) {
		t.Fatal("default must be reference-equal to the original value")
	}
}

func TestRuntime_SharedFactoryGroup(t *testing.T) {
	rt := NewWithDefaults()

	var seen []ID
	shared := Factory(func(ctx *Context, m *Module, exports *interop.Object) error {
		seen = append(seen, ctx.ID())
		exports.Set("id", string(ctx.ID()))
		return nil
	})

	if err := rt.InstallChunk("main", []any{"1", "2", shared}); err != nil {
		t.Fatalf("InstallChunk failed: %v", err)
	}

	if _, err := rt.Require("1"); err != nil {
		t.Fatalf("Require 1 failed: %v", err)
	}
	if _, err := rt.Require("2"); err != nil {
		t.Fatalf("Require 2 failed: %v", err)
	}
	if len(seen) != 2 || seen[0] != "1" || seen[1] != "2" {
		t.Fatalf("Expected one run per id, got %v", seen)
	}
}

func TestRuntime_RedeliveryForcesExistingFactory(t *testing.T) {
	rt := NewWithDefaults()

	installed := Factory(func(ctx *Context, m *Module, exports *interop.Object) error {
		exports.Set("gen", 1)
		return nil
	})
	duplicate := Factory(func(ctx *Context, m *Module, exports *interop.Object) error {
		exports.Set("gen", 2)
		return nil
	})

	if err := rt.InstallChunk("main", []any{"1", installed}); err != nil {
		t.Fatalf("InstallChunk failed: %v", err)
	}
	// Re-delivery co-locates the known id 1 with the new id 3; id 3 must
	// land on the already-installed factory object, never the duplicate.
	if err := rt.InstallChunk("main", []any{"1", "3", duplicate}); err != nil {
		t.Fatalf("Redelivery failed: %v", err)
	}

	v, err := rt.Require("3")
	if err != nil {
		t.Fatalf("Require 3 failed: %v", err)
	}
	obj := v.(*interop.Object)
	if g, _ := obj.Get("gen"); g != 1 {
		t.Fatalf("Expected id 3 on the installed factory, got generation %v", g)
	}
}

func TestRuntime_DynamicReexportChain(t *testing.T) {
	rt := NewWithDefaults()

	install(t, rt, "a", nsFactory(map[string]interop.Binding{
		"shared": {Value: "from-a"},
		"only-a": {Value: 1},
	}))
	install(t, rt, "b", nsFactory(map[string]interop.Binding{
		"shared": {Value: "from-b"},
		"only-b": {Value: 2},
	}))
	install(t, rt, "barrel", func(ctx *Context, m *Module, exports *interop.Object) error {
		exports.Set("own", "o")
		if err := ctx.DynamicReexport(exports, "a"); err != nil {
			return err
		}
		return ctx.DynamicReexport(exports, "b")
	})

	v, err := rt.Require("barrel")
	if err != nil {
		t.Fatalf("Require failed: %v", err)
	}
	barrel := v.(*interop.Object)

	if got, _ := barrel.Get("own"); got != "o" {
		t.Fatalf("Expected own property, got %v", got)
	}
	if got, _ := barrel.Get("shared"); got != "from-a" {
		t.Fatalf("Expected first source to win, got %v", got)
	}
	if got, _ := barrel.Get("only-b"); got != 2 {
		t.Fatalf("Expected fallthrough to second source, got %v", got)
	}
}

func TestContext_ImportAsyncResolvesNamespace(t *testing.T) {
	rt := NewWithDefaults()

	install(t, rt, "dep", nsFactory(map[string]interop.Binding{"x": {Value: 1}}))

	var got *interop.Object
	install(t, rt, "app", func(ctx *Context, m *Module, exports *interop.Object) error {
		ctx.ImportAsync("dep").OnSettle(func(v any, err error) {
			if err == nil {
				got = v.(*interop.Object)
			}
		})
		return nil
	})

	if _, err := rt.Require("app"); err != nil {
		t.Fatalf("Require failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected async import to resolve")
	}
	if v, _ := got.Get("x"); v != 1 {
		t.Fatalf("Expected namespace binding, got %v", v)
	}
}

func TestContext_ImportAsyncRejectsFailure(t *testing.T) {
	rt := NewWithDefaults()

	install(t, rt, "bad", func(ctx *Context, m *Module, exports *interop.Object) error {
		return fmt.Errorf("nope")
	})

	var got error
	install(t, rt, "app", func(ctx *Context, m *Module, exports *interop.Object) error {
		ctx.ImportAsync("bad").OnSettle(func(v any, err error) { got = err })
		return nil
	})

	if _, err := rt.Require("app"); err != nil {
		t.Fatalf("Require failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected rejection, not a synchronous throw into the importer")
	}
}

func TestRuntime_AsyncModuleCoordination(t *testing.T) {
	rt := NewWithDefaults()

	// Y resolves immediately.
	install(t, rt, "y", valueFactory("y-exports"))

	// Z completes only after one queued completion.
	var zDone future.DoneFunc
	install(t, rt, "z", func(ctx *Context, m *Module, exports *interop.Object) error {
		ctx.SetExports("z-exports")
		ctx.Async(func(handle future.HandleFunc, done future.DoneFunc) {
			zDone = done
		}, true)
		return nil
	})

	var resolvedOrder []any
	install(t, rt, "x", func(ctx *Context, m *Module, exports *interop.Object) error {
		yv, err := ctx.Require("y")
		if err != nil {
			return err
		}
		zv, err := ctx.Require("z")
		if err != nil {
			return err
		}
		ctx.Async(func(handle future.HandleFunc, done future.DoneFunc) {
			resolved, pending := handle([]any{yv, zv})
			if resolved != nil {
				t.Fatal("X must not continue before Z notifies")
			}
			pending.OnSettle(func(v any, err error) {
				if err != nil {
					done(err)
					return
				}
				resolvedOrder = v.([]any)
				done(nil)
			})
		}, true)
		return nil
	})

	xv, err := rt.Require("x")
	if err != nil {
		t.Fatalf("Require failed: %v", err)
	}
	x := xv.(*future.ModuleExports)
	if x.Settled() {
		t.Fatal("X must stay pending until Z completes")
	}

	zDone(nil)

	if !x.Settled() {
		t.Fatal("X must complete after Z notified")
	}
	if len(resolvedOrder) != 2 || resolvedOrder[0] != "y-exports" || resolvedOrder[1] != "z-exports" {
		t.Fatalf("Expected exports in declared order [y z], got %v", resolvedOrder)
	}
}
