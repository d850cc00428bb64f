//go:build unit

package reservation_test

import (
	"strings"
	"testing"
	"time"

	"slot-reservation-engine/internal/domain/reservation"
	"slot-reservation-engine/internal/domain/slot"
	"slot-reservation-engine/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSubjectID(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		expected  string
		expectErr bool
	}{
		{name: "trimmed", input: "  subj-1 ", expected: "subj-1"},
		{name: "max length", input: strings.Repeat("a", reservation.MaxSubjectIDLength), expected: strings.Repeat("a", reservation.MaxSubjectIDLength)},
		{name: "too long", input: strings.Repeat("a", reservation.MaxSubjectIDLength+1), expectErr: true},
		{name: "empty", input: "", expectErr: true},
		{name: "blank", input: "   ", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			id, err := reservation.NewSubjectID(tc.input)
			if tc.expectErr {
				assert.True(t, errs.Is(err, errs.ErrInvalidSubject))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, id.String())
		})
	}
}

func TestNewAttachmentRef(t *testing.T) {
	ref, err := reservation.NewAttachmentRef(nil)
	require.NoError(t, err)
	assert.Nil(t, ref)

	blank := "  "
	ref, err = reservation.NewAttachmentRef(&blank)
	require.NoError(t, err)
	assert.Nil(t, ref)

	s := " files/42.pdf "
	ref, err = reservation.NewAttachmentRef(&s)
	require.NoError(t, err)
	assert.Equal(t, "files/42.pdf", ref.String())
	assert.Equal(t, "files/42.pdf", *ref.Ptr())

	long := strings.Repeat("x", reservation.MaxAttachmentRefLength+1)
	_, err = reservation.NewAttachmentRef(&long)
	assert.ErrorIs(t, err, reservation.ErrAttachmentRefTooLong)
}

func TestNewRecord(t *testing.T) {
	subject, err := reservation.NewSubjectID("subj-1")
	require.NoError(t, err)
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	key := slot.ComposeKey("yoga", 2)

	rec := reservation.NewRecord(subject, key, nil, now)

	assert.NotEqual(t, uuid.Nil, rec.ID())
	assert.Equal(t, "subj-1", rec.SubjectID().String())
	assert.Equal(t, key, rec.Key())
	assert.Equal(t, "yoga", rec.ActivityID())
	assert.Equal(t, 2, rec.SlotIndex())
	assert.Nil(t, rec.Attachment())
	assert.Equal(t, now, rec.CreatedAt())
}
