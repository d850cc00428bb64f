package reservation

import (
	"time"

	"slot-reservation-engine/internal/domain/slot"

	"github.com/google/uuid"
)

// Record is one ledger row. Records are never updated in place; a change is a
// delete followed by an insert.
type Record struct {
	id         uuid.UUID
	subjectID  SubjectID
	key        slot.Key
	attachment *AttachmentRef
	createdAt  time.Time
}

func NewRecord(subjectID SubjectID, key slot.Key, attachment *AttachmentRef, now time.Time) *Record {
	return &Record{
		id:         uuid.New(),
		subjectID:  subjectID,
		key:        key,
		attachment: attachment,
		createdAt:  now,
	}
}

func ReconstructRecord(id uuid.UUID, subjectID string, key slot.Key, attachmentRef *string, createdAt time.Time) *Record {
	var att *AttachmentRef
	if attachmentRef != nil {
		att = &AttachmentRef{ref: *attachmentRef}
	}
	return &Record{
		id:         id,
		subjectID:  SubjectID{value: subjectID},
		key:        key,
		attachment: att,
		createdAt:  createdAt,
	}
}

func (r *Record) ID() uuid.UUID              { return r.id }
func (r *Record) SubjectID() SubjectID       { return r.subjectID }
func (r *Record) Key() slot.Key              { return r.key }
func (r *Record) ActivityID() string         { return r.key.ActivityID }
func (r *Record) SlotIndex() int             { return r.key.SlotIndex }
func (r *Record) Attachment() *AttachmentRef { return r.attachment }
func (r *Record) CreatedAt() time.Time       { return r.createdAt }
