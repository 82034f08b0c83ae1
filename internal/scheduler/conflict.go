package scheduler

import (
	"errors"
	"time"
)

var (
	// ErrInvalidInterval is returned when a slot does not start before it ends.
	ErrInvalidInterval = errors.New("scheduler: start must be before end")
	// ErrPastDate is returned when a slot is requested for a date before today.
	ErrPastDate = errors.New("scheduler: date is in the past")
	// ErrPastTime is returned when a slot for today starts before the current minute.
	ErrPastTime = errors.New("scheduler: start time is in the past")
)

// Conflict identifies the existing slot that blocks a candidate.
type Conflict struct {
	// Index is the position of the blocking slot in the existing list.
	Index int
	Slot  Slot
}

// CheckAdmissible validates a candidate slot on date against the reference instant now.
//
// The interval check runs first so that malformed slots are rejected regardless
// of the date. Dates are compared in now's location.
func CheckAdmissible(date Date, slot Slot, now time.Time) error {
	if !slot.Valid() {
		return ErrInvalidInterval
	}

	today := DateOf(now)
	switch date.Compare(today) {
	case -1:
		return ErrPastDate
	case 0:
		if slot.Start < TimeOfDayOf(now) {
			return ErrPastTime
		}
	}
	return nil
}

// DetectConflict returns the first existing slot, in list order, that overlaps candidate.
func DetectConflict(existing []Slot, candidate Slot) (Conflict, bool) {
	for i, slot := range existing {
		if candidate.Overlaps(slot) {
			return Conflict{Index: i, Slot: slot}, true
		}
	}
	return Conflict{}, false
}
