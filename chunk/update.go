package chunk

// InstructionKind tags how an update instruction lists its ids.
type InstructionKind string

const (
	KindAdded   InstructionKind = "added"
	KindDeleted InstructionKind = "deleted"
	KindPartial InstructionKind = "partial"
)

// Instruction describes one chunk's part of an update: ids freshly added,
// ids deleted, or both (partial).
type Instruction struct {
	Chunk   string
	Kind    InstructionKind
	Added   []string
	Deleted []string
}

// Classified is the preprocessed view of an update the engine works from.
// The three sets are disjoint.
type Classified struct {
	Added    map[string]bool
	Modified map[string]bool
	Deleted  map[string]bool
}

// Preprocess classifies the ids of an update pass.
//
//   - An id in both added and deleted of one instruction denotes a move and
//     is reclassified as a plain modification.
//   - Any id carrying new code that no instruction explicitly added is a
//     modification.
//   - Self-invalidations queued since the last run are modifications.
func Preprocess(instructions []Instruction, newCode []string, invalidated []string) Classified {
	c := Classified{
		Added:    make(map[string]bool),
		Modified: make(map[string]bool),
		Deleted:  make(map[string]bool),
	}

	for _, inst := range instructions {
		added := inst.Added
		deleted := inst.Deleted
		switch inst.Kind {
		case KindAdded:
			deleted = nil
		case KindDeleted:
			added = nil
		}

		moved := make(map[string]bool)
		for _, id := range added {
			for _, del := range deleted {
				if id == del {
					moved[id] = true
				}
			}
		}

		for _, id := range added {
			if moved[id] {
				c.Modified[id] = true
			} else {
				c.Added[id] = true
			}
		}
		for _, id := range deleted {
			if !moved[id] {
				c.Deleted[id] = true
			}
		}
	}

	for _, id := range newCode {
		if !c.Added[id] {
			c.Modified[id] = true
		}
	}
	for _, id := range invalidated {
		c.Modified[id] = true
	}

	// Modification wins over deletion recorded by another instruction.
	for id := range c.Modified {
		delete(c.Added, id)
		delete(c.Deleted, id)
	}

	return c
}
