package request

import (
	"strings"

	"slot-reservation-engine/internal/usecase/commands"
)

type SlotRequest struct {
	// row id, textual id, or empty to take the activity from the time slot
	ActivityKey string  `json:"activityKey"`
	TimeSlotID  string  `json:"timeSlotId" binding:"required"`
	ActivityRow *int64  `json:"activityRow,omitempty"`
	Attachment  *string `json:"attachmentRef,omitempty"`
}

type ReserveRequest struct {
	SubjectID  string `json:"subjectId" binding:"required"`
	ReplaceAll bool   `json:"replaceAll"`
	SlotRequest
}

type ReplaceAllRequest struct {
	Slots []SlotRequest `json:"slots" binding:"dive"`
}

type ReconcileRequest struct {
	DryRun bool `json:"dryRun"`
}

func (r SlotRequest) ToCommand() commands.SlotRequest {
	return commands.SlotRequest{
		ActivityRef:   strings.TrimSpace(r.ActivityKey),
		TimeSlotID:    strings.TrimSpace(r.TimeSlotID),
		ExplicitRowID: r.ActivityRow,
		Attachment:    r.Attachment,
	}
}

func (r ReserveRequest) ToParams() commands.ReserveParams {
	return commands.ReserveParams{
		SubjectID:   r.SubjectID,
		SlotRequest: r.SlotRequest.ToCommand(),
		ReplaceAll:  r.ReplaceAll,
	}
}

func (r ReplaceAllRequest) ToCommands() []commands.SlotRequest {
	out := make([]commands.SlotRequest, 0, len(r.Slots))
	for _, s := range r.Slots {
		out = append(out, s.ToCommand())
	}
	return out
}
