//go:build unit

package errs_test

import (
	"context"
	"fmt"
	"testing"

	"slot-reservation-engine/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
)

func TestCode(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil has no code", err: nil, want: ""},
		{name: "bare sentinel", err: errs.ErrNoSpotsAvailable, want: errs.CodeNoSpotsAvailable},
		{name: "wrapped sentinel", err: errs.Wrap(errs.ErrSlotNotFound, "resolve activity"), want: errs.CodeSlotNotFound},
		{name: "fmt wrapped sentinel", err: fmt.Errorf("reserve: %w", errs.ErrInvalidSlotIdentifier), want: errs.CodeInvalidSlotIdentifier},
		{name: "marked infrastructure error", err: errs.Mark(context.DeadlineExceeded, errs.ErrTransactionAborted), want: errs.CodeTransactionAborted},
		{name: "unknown error", err: errs.New("boom"), want: errs.CodeInternal},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, errs.Code(tc.err))
		})
	}
}

func TestMark_KeepsOriginalChain(t *testing.T) {
	err := errs.Mark(context.DeadlineExceeded, errs.ErrTransactionAborted)

	assert.True(t, errs.Is(err, errs.ErrTransactionAborted))
	assert.True(t, errs.Is(err, context.DeadlineExceeded))
}
