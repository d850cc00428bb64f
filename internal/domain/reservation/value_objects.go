package reservation

import (
	"strings"

	"slot-reservation-engine/internal/pkg/errs"
)

const (
	MaxSubjectIDLength     = 255
	MaxAttachmentRefLength = 1024
)

var ErrAttachmentRefTooLong = errs.New("attachment reference too long")

// SubjectID identifies the person booking. It is opaque to the engine.
type SubjectID struct {
	value string
}

func NewSubjectID(s string) (SubjectID, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return SubjectID{}, errs.Wrap(errs.ErrInvalidSubject, "subject id is empty")
	}
	if len(t) > MaxSubjectIDLength {
		return SubjectID{}, errs.Wrapf(errs.ErrInvalidSubject, "subject id longer than %d", MaxSubjectIDLength)
	}
	return SubjectID{value: t}, nil
}

func (s SubjectID) String() string { return s.value }

// AttachmentRef points at an uploaded file owned by another service.
type AttachmentRef struct {
	ref string
}

func NewAttachmentRef(s *string) (*AttachmentRef, error) {
	if s == nil {
		return nil, nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil, nil
	}
	if len(t) > MaxAttachmentRefLength {
		return nil, ErrAttachmentRefTooLong
	}
	return &AttachmentRef{ref: t}, nil
}

func (a *AttachmentRef) String() string {
	if a == nil {
		return ""
	}
	return a.ref
}

func (a *AttachmentRef) Ptr() *string {
	if a == nil {
		return nil
	}
	s := a.ref
	return &s
}
