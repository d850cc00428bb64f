package slot

import (
	"strconv"
	"strings"

	"slot-reservation-engine/internal/pkg/errs"
)

// Ref points at an activity either by numeric row id or by textual id.
type Ref struct {
	RowID      int64
	ActivityID string
}

func RowRef(id int64) Ref { return Ref{RowID: id} }

func TextRef(activityID string) Ref { return Ref{ActivityID: activityID} }

func (r Ref) IsRow() bool { return r.RowID > 0 }

func (r Ref) String() string {
	if r.IsRow() {
		return "row:" + strconv.FormatInt(r.RowID, 10)
	}
	return "id:" + r.ActivityID
}

type TimeSlot struct {
	// Prefix is the embedded activity id, already canonicalized.
	Prefix    string
	SlotIndex int
}

// Request is a booking target after boundary parsing and before store lookup.
type Request struct {
	Activity Ref
	Slot     TimeSlot
}

// Codec applies one variant policy for the whole process.
type Codec struct {
	preserveVariants bool
	maxSlotIndex     int
}

func NewCodec(preserveVariants bool, maxSlotIndex int) Codec {
	return Codec{preserveVariants: preserveVariants, maxSlotIndex: maxSlotIndex}
}

func (c Codec) PreserveVariants() bool { return c.preserveVariants }

func (c Codec) MaxSlotIndex() int { return c.maxSlotIndex }

func (c Codec) Canonicalize(rawID string) string {
	return CanonicalizeActivity(rawID, c.preserveVariants)
}

func (c Codec) ParseRef(raw string) (Ref, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Ref{}, errs.Wrap(errs.ErrInvalidSlotIdentifier, "empty activity reference")
	}
	if isDigits(s) {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n < 1 {
			return Ref{}, errs.Wrapf(errs.ErrInvalidSlotIdentifier, "activity row id %q out of range", raw)
		}
		return RowRef(n), nil
	}
	return TextRef(c.Canonicalize(s)), nil
}

func (c Codec) ParseTimeSlot(timeSlotID string) (TimeSlot, error) {
	prefix, idx, err := splitTimeSlot(timeSlotID)
	if err != nil {
		return TimeSlot{}, err
	}
	if c.maxSlotIndex > 0 && idx > c.maxSlotIndex {
		return TimeSlot{}, errs.Wrapf(errs.ErrInvalidSlotIdentifier, "slot index %d exceeds %d", idx, c.maxSlotIndex)
	}
	return TimeSlot{Prefix: c.Canonicalize(prefix), SlotIndex: idx}, nil
}

// Resolve parses both identifiers of a booking request. An empty activityRef falls
// back to the time slot's own prefix. Textual refs are checked against the prefix
// here; row refs are checked by KeyFor once the row is loaded.
func (c Codec) Resolve(activityRef, timeSlotID string) (Request, error) {
	ts, err := c.ParseTimeSlot(timeSlotID)
	if err != nil {
		return Request{}, err
	}
	if strings.TrimSpace(activityRef) == "" {
		return Request{Activity: TextRef(ts.Prefix), Slot: ts}, nil
	}
	ref, err := c.ParseRef(activityRef)
	if err != nil {
		return Request{}, err
	}
	if !ref.IsRow() && ref.ActivityID != ts.Prefix {
		return Request{}, errs.Wrapf(errs.ErrInvalidSlotIdentifier,
			"time slot %q does not belong to activity %q", timeSlotID, activityRef)
	}
	return Request{Activity: ref, Slot: ts}, nil
}

// KeyFor binds a parsed time slot to the activity it was resolved to.
func (c Codec) KeyFor(activityID string, ts TimeSlot) (Key, error) {
	if c.Canonicalize(activityID) != ts.Prefix {
		return Key{}, errs.Wrapf(errs.ErrInvalidSlotIdentifier,
			"time slot prefix %q does not match activity %q", ts.Prefix, activityID)
	}
	return ComposeKey(activityID, ts.SlotIndex), nil
}
