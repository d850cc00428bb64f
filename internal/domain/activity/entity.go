package activity

import (
	"strings"

	"slot-reservation-engine/internal/pkg/errs"
)

var (
	ErrInvalidActivityID = errs.New("activity id must not be empty")
	ErrInvalidCapacity   = errs.New("capacity must be positive")
	ErrNegativeCounter   = errs.New("participant counter must not be negative")
)

// Activity is a bookable offering. Capacity is fixed at creation and shared by all of
// its time slots; counter is the denormalized number of ledger rows.
type Activity struct {
	rowID    int64
	id       string
	title    string
	capacity int
	counter  int
}

func New(id, title string, capacity int) (*Activity, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrInvalidActivityID
	}
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	return &Activity{id: id, title: strings.TrimSpace(title), capacity: capacity}, nil
}

// Reconstruct rebuilds an Activity from storage without validation, so that a
// drifted counter can still be loaded and repaired.
func Reconstruct(rowID int64, id, title string, capacity, counter int) *Activity {
	return &Activity{rowID: rowID, id: id, title: title, capacity: capacity, counter: counter}
}

func (a *Activity) RowID() int64  { return a.rowID }
func (a *Activity) ID() string    { return a.id }
func (a *Activity) Title() string { return a.title }
func (a *Activity) Capacity() int { return a.capacity }
func (a *Activity) Counter() int  { return a.counter }

func (a *Activity) HasRoom() bool {
	return a.counter < a.capacity
}

// Remaining is capacity minus counter, floored at 0.
func (a *Activity) Remaining() int {
	return Remaining(a.capacity, a.counter)
}

// Overbooked reports counter > capacity, the condition reconciliation alarms on.
func (a *Activity) Overbooked() bool {
	return a.counter > a.capacity
}

// Admit takes one spot.
func (a *Activity) Admit() error {
	if !a.HasRoom() {
		return errs.Wrapf(errs.ErrNoSpotsAvailable, "activity %s is full (%d/%d)", a.id, a.counter, a.capacity)
	}
	a.counter++
	return nil
}

// Release gives one spot back. It returns false when the counter was already 0,
// which means the counter and the ledger disagree.
func (a *Activity) Release() bool {
	if a.counter <= 0 {
		a.counter = 0
		return false
	}
	a.counter--
	return true
}

func (a *Activity) SetCounter(n int) error {
	if n < 0 {
		return ErrNegativeCounter
	}
	a.counter = n
	return nil
}

func Remaining(capacity, counter int) int {
	return max(capacity-counter, 0)
}
