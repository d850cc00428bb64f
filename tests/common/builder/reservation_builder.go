//go:build unit || e2e

package builder

import (
	"strconv"
	"time"

	"slot-reservation-engine/internal/domain/reservation"
	"slot-reservation-engine/internal/domain/slot"
	reqdto "slot-reservation-engine/internal/handler/dto/request"
	"slot-reservation-engine/internal/usecase/commands"
	"slot-reservation-engine/internal/usecase/queries"

	"github.com/google/uuid"
)

type ReservationBuilder struct {
	id          uuid.UUID
	subjectID   string
	activityID  string
	slotIndex   int
	activityRow *int64
	attachment  *string
	replaceAll  bool
	createdAt   time.Time
}

func NewReservationBuilder() *ReservationBuilder {
	return &ReservationBuilder{
		id:         uuid.New(),
		subjectID:  "subject-1",
		activityID: "yoga",
		slotIndex:  1,
		createdAt:  time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (b *ReservationBuilder) WithSubject(subjectID string) *ReservationBuilder {
	b.subjectID = subjectID
	return b
}

func (b *ReservationBuilder) WithSlot(activityID string, slotIndex int) *ReservationBuilder {
	b.activityID = activityID
	b.slotIndex = slotIndex
	return b
}

func (b *ReservationBuilder) WithActivityRow(rowID int64) *ReservationBuilder {
	b.activityRow = &rowID
	return b
}

func (b *ReservationBuilder) WithAttachment(ref string) *ReservationBuilder {
	b.attachment = &ref
	return b
}

func (b *ReservationBuilder) WithReplaceAll() *ReservationBuilder {
	b.replaceAll = true
	return b
}

func (b *ReservationBuilder) TimeSlotID() string {
	return b.activityID + "-" + strconv.Itoa(b.slotIndex)
}

func (b *ReservationBuilder) BuildSlotRequestDTO() reqdto.SlotRequest {
	return reqdto.SlotRequest{
		ActivityKey: b.activityID,
		TimeSlotID:  b.TimeSlotID(),
		ActivityRow: b.activityRow,
		Attachment:  b.attachment,
	}
}

func (b *ReservationBuilder) BuildReserveRequestDTO() reqdto.ReserveRequest {
	return reqdto.ReserveRequest{
		SubjectID:   b.subjectID,
		ReplaceAll:  b.replaceAll,
		SlotRequest: b.BuildSlotRequestDTO(),
	}
}

func (b *ReservationBuilder) BuildRecord() *reservation.Record {
	return reservation.ReconstructRecord(b.id, b.subjectID, slot.ComposeKey(b.activityID, b.slotIndex), b.attachment, b.createdAt)
}

func (b *ReservationBuilder) BuildResult() *commands.ReserveResult {
	return &commands.ReserveResult{Records: []*reservation.Record{b.BuildRecord()}}
}

func (b *ReservationBuilder) BuildView() queries.SubjectReservationView {
	return queries.SubjectReservationView{
		ID:         b.id,
		SubjectID:  b.subjectID,
		ActivityID: b.activityID,
		SlotIndex:  b.slotIndex,
		TimeSlotID: b.TimeSlotID(),
		Attachment: b.attachment,
		CreatedAt:  b.createdAt,
	}
}
