package chunk

import (
	stderrors "errors"
	"reflect"
	"testing"

	"github.com/wippyai/hmr-runtime/errors"
)

type fakeFactory struct{ name string }

func TestDecode_Groups(t *testing.T) {
	fab := &fakeFactory{"ab"}
	fc := &fakeFactory{"c"}

	groups, err := Decode([]any{"a", "b", fab, "c", fc})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if len(groups) != 2 {
		t.Fatalf("Expected 2 groups, got %d", len(groups))
	}
	if !reflect.DeepEqual(groups[0].IDs, []string{"a", "b"}) {
		t.Fatalf("Expected ids [a b], got %v", groups[0].IDs)
	}
	if groups[0].Factory != fab {
		t.Fatal("Expected shared factory on first group")
	}
	if !reflect.DeepEqual(groups[1].IDs, []string{"c"}) {
		t.Fatalf("Expected ids [c], got %v", groups[1].IDs)
	}
}

func TestDecode_Empty(t *testing.T) {
	groups, err := Decode(nil)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(groups) != 0 {
		t.Fatalf("Expected no groups, got %d", len(groups))
	}
}

func TestDecode_FactoryWithoutIDs(t *testing.T) {
	_, err := Decode([]any{&fakeFactory{}})
	if err == nil {
		t.Fatal("Expected error for factory not preceded by ids")
	}
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseDecode, Kind: errors.KindInvalidPayload}) {
		t.Fatalf("Expected invalid_payload error, got %v", err)
	}
}

func TestDecode_TrailingIDs(t *testing.T) {
	if _, err := Decode([]any{"a", &fakeFactory{}, "b"}); err == nil {
		t.Fatal("Expected error for trailing ids without a factory")
	}
}

func TestDecode_NilElement(t *testing.T) {
	if _, err := Decode([]any{"a", nil}); err == nil {
		t.Fatal("Expected error for nil payload element")
	}
}
