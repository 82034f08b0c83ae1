package application

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/example/roombook/internal/scheduler"
)

var (
	// ErrUnauthorized is returned when no verified identity accompanies a request.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrDuplicateName is returned when a room with the requested name already exists.
	ErrDuplicateName = errors.New("application: room name already exists")
	// ErrNotOwner is returned when the caller does not own the room or booking.
	ErrNotOwner = errors.New("application: caller is not the owner")
	// ErrRoomHasBookings is returned when deleting a room that still has bookings.
	ErrRoomHasBookings = errors.New("application: room has bookings")
	// ErrRoomNotFound is returned when no room carries the requested name.
	ErrRoomNotFound = errors.New("application: room not found")
	// ErrBookingNotFound is returned when no booking matches the requested key.
	ErrBookingNotFound = errors.New("application: booking not found")
	// ErrSlotConflict is matched by *SlotConflictError.
	ErrSlotConflict = errors.New("application: slot conflicts with an existing booking")
	// ErrUsernameTaken is returned when another user already holds the username.
	ErrUsernameTaken = errors.New("application: username already taken")

	ErrInvalidInterval = scheduler.ErrInvalidInterval
	ErrPastDate        = scheduler.ErrPastDate
	ErrPastTime        = scheduler.ErrPastTime
)

// SlotConflictError reports the existing booking that blocks a request.
type SlotConflictError struct {
	Existing Booking
}

// Error implements the error interface.
func (e *SlotConflictError) Error() string {
	return fmt.Sprintf("application: slot conflicts with %q (%s-%s) in %s on %s",
		e.Existing.EventName, e.Existing.Start, e.Existing.End, e.Existing.Room, e.Existing.Date)
}

// Is makes errors.Is(err, ErrSlotConflict) succeed.
func (e *SlotConflictError) Is(target error) bool {
	return target == ErrSlotConflict
}

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	if len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field := range v.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}

// orNil returns v when it holds errors and nil otherwise.
func (v *ValidationError) orNil() error {
	if v.HasErrors() {
		return v
	}
	return nil
}
