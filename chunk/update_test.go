package chunk

import "testing"

func TestPreprocess_AddedAndDeleted(t *testing.T) {
	c := Preprocess([]Instruction{
		{Chunk: "main", Kind: KindAdded, Added: []string{"a"}},
		{Chunk: "main", Kind: KindDeleted, Deleted: []string{"d"}},
	}, nil, nil)

	if !c.Added["a"] || len(c.Added) != 1 {
		t.Fatalf("Expected added {a}, got %v", c.Added)
	}
	if !c.Deleted["d"] || len(c.Deleted) != 1 {
		t.Fatalf("Expected deleted {d}, got %v", c.Deleted)
	}
	if len(c.Modified) != 0 {
		t.Fatalf("Expected no modifications, got %v", c.Modified)
	}
}

func TestPreprocess_MoveReclassifiedAsModified(t *testing.T) {
	// Id 7 in both added and deleted of one instruction denotes a move.
	c := Preprocess([]Instruction{
		{Chunk: "main", Kind: KindPartial, Added: []string{"7"}, Deleted: []string{"7"}},
	}, nil, nil)

	if !c.Modified["7"] {
		t.Fatal("Moved id must classify as modified")
	}
	if c.Added["7"] || c.Deleted["7"] {
		t.Fatal("Moved id must be absent from added and deleted")
	}
}

func TestPreprocess_NewCodeWithoutAddIsModified(t *testing.T) {
	c := Preprocess([]Instruction{
		{Chunk: "main", Kind: KindAdded, Added: []string{"fresh"}},
	}, []string{"fresh", "changed"}, nil)

	if !c.Added["fresh"] {
		t.Fatal("Explicitly added id with new code stays added")
	}
	if !c.Modified["changed"] {
		t.Fatal("New code without an explicit add must classify as modified")
	}
}

func TestPreprocess_InvalidationsMergeIntoModified(t *testing.T) {
	c := Preprocess(nil, nil, []string{"stale"})

	if !c.Modified["stale"] {
		t.Fatal("Queued self-invalidation must classify as modified")
	}
}

func TestPreprocess_KindFiltersOppositeList(t *testing.T) {
	// An added-kind instruction ignores a stray deleted list and vice versa.
	c := Preprocess([]Instruction{
		{Chunk: "main", Kind: KindAdded, Added: []string{"a"}, Deleted: []string{"x"}},
		{Chunk: "main", Kind: KindDeleted, Added: []string{"y"}, Deleted: []string{"d"}},
	}, nil, nil)

	if c.Deleted["x"] {
		t.Fatal("added-kind instruction must not delete")
	}
	if c.Added["y"] {
		t.Fatal("deleted-kind instruction must not add")
	}
}

func TestPreprocess_ModificationWinsOverDeletion(t *testing.T) {
	c := Preprocess([]Instruction{
		{Chunk: "a", Kind: KindDeleted, Deleted: []string{"m"}},
	}, []string{"m"}, nil)

	if !c.Modified["m"] || c.Deleted["m"] {
		t.Fatalf("Modification must win over deletion, got modified=%v deleted=%v",
			c.Modified, c.Deleted)
	}
}
