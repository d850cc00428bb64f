//go:build unit

package commands_test

import (
	"strconv"
	"testing"

	"slot-reservation-engine/internal/domain/reservation"

	"github.com/stretchr/testify/require"
)

func ptrInt64(v int64) *int64 { return &v }

func formatRow(id int64) string { return strconv.FormatInt(id, 10) }

func mustSubject(t *testing.T, s string) reservation.SubjectID {
	t.Helper()
	sid, err := reservation.NewSubjectID(s)
	require.NoError(t, err)
	return sid
}
