package file

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/landdiv/landflow/pkg/store"
)

// applyOp mutates a decoded document in place. Dotted fields address nested
// objects; intermediate objects are created for Set and ArrayAppend.
func applyOp(doc map[string]any, op store.Op) error {
	parent, key, err := resolve(doc, op.Field, op.Kind != store.OpUnset)
	if err != nil {
		return err
	}

	if parent == nil {
		return nil // Unset of a missing path
	}

	switch op.Kind {
	case store.OpSet:
		value, err := toJSONValue(op.Value)
		if err != nil {
			return err
		}

		parent[key] = value
	case store.OpArrayAppend:
		value, err := toJSONValue(op.Value)
		if err != nil {
			return err
		}

		existing, ok := parent[key].([]any)
		if !ok && parent[key] != nil {
			return fmt.Errorf("field %q is not an array", op.Field)
		}

		parent[key] = append(existing, value)
	case store.OpIncrement:
		delta, ok := op.Value.(float64)
		if !ok {
			return fmt.Errorf("increment delta for %q is not numeric", op.Field)
		}

		current, _ := parent[key].(float64)
		parent[key] = current + delta
	case store.OpUnset:
		delete(parent, key)
	default:
		return fmt.Errorf("unsupported op kind %d", op.Kind)
	}

	return nil
}

// resolve walks a dotted path and returns the parent object plus the final
// key. With create=false a missing segment resolves to a nil parent.
func resolve(doc map[string]any, field string, create bool) (map[string]any, string, error) {
	parts := strings.Split(field, ".")
	parent := doc

	for _, part := range parts[:len(parts)-1] {
		next, ok := parent[part]
		if !ok || next == nil {
			if !create {
				return nil, "", nil
			}

			child := make(map[string]any)
			parent[part] = child
			parent = child

			continue
		}

		child, ok := next.(map[string]any)
		if !ok {
			return nil, "", fmt.Errorf("field %q is not an object", part)
		}

		parent = child
	}

	return parent, parts[len(parts)-1], nil
}

// toJSONValue normalizes an arbitrary Go value into its decoded-JSON shape
// so stored documents stay uniform regardless of the caller's types.
func toJSONValue(value any) (any, error) {
	if value == nil {
		return nil, nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal field value: %w", err)
	}

	var out any

	err = json.Unmarshal(data, &out)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize field value: %w", err)
	}

	return out, nil
}
