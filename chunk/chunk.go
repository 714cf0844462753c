package chunk

import (
	"github.com/wippyai/hmr-runtime/errors"
)

// Group is one decoded payload entry: one or more module ids sharing a
// single factory object.
type Group struct {
	IDs     []string
	Factory any
}

// Decode splits a flat chunk payload into factory groups. The payload
// alternates one-or-more string ids with one factory of any other type;
// each group is delimited by scanning forward to the first non-id element.
//
//	Decode([]any{"a", "b", factoryAB, "c", factoryC})
//	=> [{["a" "b"] factoryAB} {["c"] factoryC}]
//
// A payload starting with a factory, containing a nil element, or ending
// with ids that never reach a factory is invalid.
func Decode(items []any) ([]Group, error) {
	var groups []Group
	var pending []string

	for i, item := range items {
		if item == nil {
			return nil, errors.InvalidPayload("nil element at index %d", i)
		}
		if id, ok := item.(string); ok {
			pending = append(pending, id)
			continue
		}
		if len(pending) == 0 {
			return nil, errors.InvalidPayload("factory at index %d not preceded by module ids", i)
		}
		groups = append(groups, Group{IDs: pending, Factory: item})
		pending = nil
	}

	if len(pending) > 0 {
		return nil, errors.InvalidPayload("trailing module ids %v without a factory", pending)
	}

	return groups, nil
}
