package slot

import (
	"strconv"
	"strings"

	"slot-reservation-engine/internal/pkg/errs"
)

// Key is the canonical (activity, slot) pair every capacity decision is made against.
// It is comparable and safe to use as a map key.
type Key struct {
	ActivityID string
	SlotIndex  int
}

func ComposeKey(activityID string, slotIndex int) Key {
	return Key{ActivityID: activityID, SlotIndex: slotIndex}
}

func (k Key) String() string {
	return k.ActivityID + "#" + strconv.Itoa(k.SlotIndex)
}

func (k Key) IsZero() bool {
	return k.ActivityID == "" && k.SlotIndex == 0
}

// CanonicalizeActivity strips a trailing "-N" variant suffix unless preserveVariants is set.
// Bare numeric ids have no suffix and come back unchanged.
func CanonicalizeActivity(rawID string, preserveVariants bool) string {
	id := strings.TrimSpace(rawID)
	if preserveVariants {
		return id
	}
	i := strings.LastIndexByte(id, '-')
	if i <= 0 || !isDigits(id[i+1:]) {
		return id
	}
	return id[:i]
}

// ExtractSlotIndex reads the integer after the final '-' of a time slot id.
func ExtractSlotIndex(timeSlotID string) (int, error) {
	_, idx, err := splitTimeSlot(timeSlotID)
	return idx, err
}

func splitTimeSlot(timeSlotID string) (string, int, error) {
	id := strings.TrimSpace(timeSlotID)
	i := strings.LastIndexByte(id, '-')
	if i <= 0 {
		return "", 0, errs.Wrapf(errs.ErrInvalidSlotIdentifier, "time slot %q has no activity prefix", timeSlotID)
	}
	suffix := id[i+1:]
	if !isDigits(suffix) {
		return "", 0, errs.Wrapf(errs.ErrInvalidSlotIdentifier, "time slot %q has no trailing slot index", timeSlotID)
	}
	n, err := strconv.Atoi(suffix)
	if err != nil || n < 1 {
		return "", 0, errs.Wrapf(errs.ErrInvalidSlotIdentifier, "time slot %q has slot index out of range", timeSlotID)
	}
	return id[:i], n, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
