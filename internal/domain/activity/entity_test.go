//go:build unit

package activity_test

import (
	"testing"

	"slot-reservation-engine/internal/domain/activity"
	"slot-reservation-engine/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	testCases := []struct {
		name     string
		id       string
		capacity int
		errIs    error
	}{
		{name: "valid", id: "yoga", capacity: 2},
		{name: "empty id", id: "  ", capacity: 2, errIs: activity.ErrInvalidActivityID},
		{name: "zero capacity", id: "yoga", capacity: 0, errIs: activity.ErrInvalidCapacity},
		{name: "negative capacity", id: "yoga", capacity: -1, errIs: activity.ErrInvalidCapacity},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a, err := activity.New(tc.id, "Morning yoga", tc.capacity)
			if tc.errIs != nil {
				require.ErrorIs(t, err, tc.errIs)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 0, a.Counter())
			assert.Equal(t, tc.capacity, a.Remaining())
		})
	}
}

func TestAdmitAndRelease(t *testing.T) {
	a, err := activity.New("yoga", "Morning yoga", 2)
	require.NoError(t, err)

	require.NoError(t, a.Admit())
	require.NoError(t, a.Admit())
	assert.False(t, a.HasRoom())
	assert.Equal(t, 0, a.Remaining())

	err = a.Admit()
	assert.True(t, errs.Is(err, errs.ErrNoSpotsAvailable))
	assert.Equal(t, 2, a.Counter())

	assert.True(t, a.Release())
	assert.True(t, a.Release())
	assert.False(t, a.Release(), "release below zero is reported")
	assert.Equal(t, 0, a.Counter())
}

func TestOverbooked(t *testing.T) {
	a := activity.Reconstruct(1, "yoga", "Morning yoga", 2, 3)
	assert.True(t, a.Overbooked())
	assert.Equal(t, 0, a.Remaining())

	require.NoError(t, a.SetCounter(2))
	assert.False(t, a.Overbooked())
	assert.ErrorIs(t, a.SetCounter(-1), activity.ErrNegativeCounter)
}
