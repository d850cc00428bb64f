//go:build unit || e2e

package testutil

// Field sets key to value. A nil value removes the key.
func Field(key string, value any) func(m map[string]any) {
	return func(m map[string]any) {
		if value == nil {
			delete(m, key)
		} else {
			m[key] = value
		}
	}
}

// SlotField applies Field to the i-th entry of a replace-all "slots" array.
func SlotField(i int, key string, value any) func(m map[string]any) {
	return func(m map[string]any) {
		slots, ok := m["slots"].([]any)
		if !ok || i >= len(slots) {
			return
		}
		if entry, ok := slots[i].(map[string]any); ok {
			Field(key, value)(entry)
		}
	}
}
