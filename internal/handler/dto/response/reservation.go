package response

import (
	"strconv"
	"time"

	"slot-reservation-engine/internal/domain/reservation"
	"slot-reservation-engine/internal/domain/slot"
	"slot-reservation-engine/internal/usecase/commands"
	"slot-reservation-engine/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

const StatusSuccess = "SUCCESS"

type ReservationResponse struct {
	ID            uuid.UUID `json:"id"`
	SubjectID     string    `json:"subjectId"`
	ActivityID    string    `json:"activityId"`
	SlotIndex     int       `json:"slotIndex"`
	TimeSlotID    string    `json:"timeSlotId"`
	AttachmentRef *string   `json:"attachmentRef,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

type ReserveResponse struct {
	Status       string                 `json:"status"`
	Reservations []*ReservationResponse `json:"reservations"`
	Replaced     []*ReservationResponse `json:"replaced,omitempty"`
}

type CancelResponse struct {
	Removed bool `json:"removed"`
}

type AvailabilityResponse struct {
	ActivityRowID int64  `json:"activityRowId"`
	ActivityID    string `json:"activityId"`
	Title         string `json:"title"`
	Capacity      int    `json:"capacity"`
	Reserved      int    `json:"reserved"`
	Available     int    `json:"available"`
}

type SlotAvailabilityResponse struct {
	Key        string `json:"key"`
	ActivityID string `json:"activityId"`
	SlotIndex  int    `json:"slotIndex"`
	TimeSlotID string `json:"timeSlotId"`
	Label      string `json:"label,omitempty"`
	Title      string `json:"title"`
	Capacity   int    `json:"capacity"`
	Reserved   int    `json:"reserved"`
	Available  int    `json:"available"`
}

func FromRecord(rec *reservation.Record) *ReservationResponse {
	return &ReservationResponse{
		ID:            rec.ID(),
		SubjectID:     rec.SubjectID().String(),
		ActivityID:    rec.ActivityID(),
		SlotIndex:     rec.SlotIndex(),
		TimeSlotID:    rec.ActivityID() + "-" + strconv.Itoa(rec.SlotIndex()),
		AttachmentRef: rec.Attachment().Ptr(),
		CreatedAt:     rec.CreatedAt(),
	}
}

func FromReserveResult(res *commands.ReserveResult) *ReserveResponse {
	resp := &ReserveResponse{
		Status:       StatusSuccess,
		Reservations: make([]*ReservationResponse, 0, len(res.Records)),
	}
	for _, rec := range res.Records {
		resp.Reservations = append(resp.Reservations, FromRecord(rec))
	}
	for _, rec := range res.Replaced {
		resp.Replaced = append(resp.Replaced, FromRecord(rec))
	}
	return resp
}

func FromSubjectReservations(views []queries.SubjectReservationView) ([]*ReservationResponse, error) {
	out := make([]*ReservationResponse, 0, len(views))
	for i := range views {
		var r ReservationResponse
		if err := copier.Copy(&r, &views[i]); err != nil {
			return nil, err
		}
		r.AttachmentRef = views[i].Attachment
		out = append(out, &r)
	}
	return out, nil
}

func FromAvailabilityView(v *queries.AvailabilityView) (*AvailabilityResponse, error) {
	var resp AvailabilityResponse
	if err := copier.Copy(&resp, v); err != nil {
		return nil, err
	}
	return &resp, nil
}

func FromSlotAvailability(views []queries.SlotAvailabilityView) ([]*SlotAvailabilityResponse, error) {
	out := make([]*SlotAvailabilityResponse, 0, len(views))
	for i := range views {
		var r SlotAvailabilityResponse
		if err := copier.Copy(&r, &views[i]); err != nil {
			return nil, err
		}
		r.Key = slot.ComposeKey(views[i].ActivityID, views[i].SlotIndex).String()
		out = append(out, &r)
	}
	return out, nil
}

// FromAvailabilityMap flattens canonical keys to their "activity#slot" form.
func FromAvailabilityMap(m map[slot.Key]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k.String()] = v
	}
	return out
}
