//go:build unit || e2e

package testutil

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

// BodyMap turns a request DTO into its JSON object form, so a test can drop or
// corrupt single fields before sending it.
func BodyMap(t *testing.T, v any, muts ...func(map[string]any)) map[string]any {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	for _, f := range muts {
		f(m)
	}
	return m
}

// ReplaceAllBody wraps slot DTOs the way PUT /subjects/:id/reservations expects them.
func ReplaceAllBody(t *testing.T, slots []any, muts ...func(map[string]any)) map[string]any {
	t.Helper()
	return BodyMap(t, map[string]any{"slots": slots}, muts...)
}
