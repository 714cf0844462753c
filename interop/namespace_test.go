package interop

import "testing"

func TestAsNamespace_ReusesExistingNamespace(t *testing.T) {
	o := NewObject()
	if err := o.DeclareNamespace("mod", map[string]Binding{"a": {Value: 1}}); err != nil {
		t.Fatalf("DeclareNamespace failed: %v", err)
	}

	if ns := AsNamespace(o, false); ns != o {
		t.Fatal("An existing namespace must be reused, not re-wrapped")
	}
}

func TestAsNamespace_SynthesizesLiveGetters(t *testing.T) {
	o := NewObject()
	o.Set("x", 1)

	ns := AsNamespace(o, false)
	if !ns.IsNamespace() {
		t.Fatal("Synthesized object must be a namespace")
	}

	if v, _ := ns.Get("x"); v != 1 {
		t.Fatalf("Expected x=1, got %v", v)
	}

	// Later writes to the source stay visible.
	o.Set("x", 2)
	if v, _ := ns.Get("x"); v != 2 {
		t.Fatalf("Expected live getter to observe write, got %v", v)
	}
}

func TestAsNamespace_DefaultIsRawObjectWithoutExplicitInterop(t *testing.T) {
	o := NewObject()
	o.Set("x", 1)

	ns := AsNamespace(o, false)
	v, ok := ns.Get("default")
	if !ok || v != any(o) {
		t.Fatal("Without explicit interop, default must be the raw exports object")
	}
}

func TestAsNamespace_ExplicitInteropUsesLiteralDefault(t *testing.T) {
	inner := "the-default"
	o := NewObject()
	o.Set("default", inner)
	o.Set("named", 2)

	ns := AsNamespace(o, true)
	v, _ := ns.Get("default")
	if v != inner {
		t.Fatalf("Explicit interop must lift the literal default property, got %v", v)
	}
}

func TestAsNamespace_ValueDefaultByReference(t *testing.T) {
	type thing struct{ n int }
	value := &thing{n: 1}

	// A value-style module's raw export wraps as default, reference-equal.
	ns := AsNamespace(value, false)
	v, _ := ns.Get("default")
	if v != any(value) {
		t.Fatal("default must be reference-equal to the original value")
	}
}

func TestAsNamespace_EnumeratesPrototypeChain(t *testing.T) {
	proto := NewObject()
	proto.Set("inherited", "p")

	o := NewObjectWithProto(proto)
	o.Set("own", 1)

	ns := AsNamespace(o, false)
	if v, _ := ns.Get("inherited"); v != "p" {
		t.Fatalf("Expected prototype property on namespace, got %v", v)
	}
	if v, _ := ns.Get("own"); v != 1 {
		t.Fatalf("Expected own property on namespace, got %v", v)
	}
}

func TestMergeViews_ExposesRawOnlyProperties(t *testing.T) {
	ns := NewObject()
	if err := ns.DeclareNamespace("mod", map[string]Binding{"a": {Value: 1}}); err != nil {
		t.Fatalf("DeclareNamespace failed: %v", err)
	}

	raw := NewObject()
	raw.Set("a", "ignored") // already on the namespace
	raw.Set("b", 2)

	MergeViews(ns, raw)

	if v, _ := ns.Get("a"); v != 1 {
		t.Fatalf("Merge must not overwrite namespace bindings, got %v", v)
	}
	if v, _ := ns.Get("b"); v != 2 {
		t.Fatalf("Merge must expose raw-only properties, got %v", v)
	}

	// Live: later writes through the raw view stay visible.
	raw.Set("b", 3)
	if v, _ := ns.Get("b"); v != 3 {
		t.Fatalf("Merged property must be live, got %v", v)
	}
}

func TestMergeViews_ValueExportsBecomeDefault(t *testing.T) {
	ns := NewObject()
	if err := ns.DeclareNamespace("mod", map[string]Binding{"a": {Value: 1}}); err != nil {
		t.Fatalf("DeclareNamespace failed: %v", err)
	}

	MergeViews(ns, "raw-value")

	if v, _ := ns.Get("default"); v != "raw-value" {
		t.Fatalf("Expected raw value as default, got %v", v)
	}
}
