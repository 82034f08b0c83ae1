package persistence

import (
	"time"

	"github.com/example/roombook/internal/scheduler"
)

// User is an application account keyed by the identity provider's user id.
type User struct {
	ID       string
	Email    string
	Username string
	// OwnedRoomIDs lists rooms owned by the user in creation order.
	OwnedRoomIDs []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Room is a named, bookable space.
type Room struct {
	ID          string
	Name        string
	OwnerEmail  string
	OwnerUserID string
	CreatedDate scheduler.Date
	// DayIDs lists the room's day ledgers in creation order.
	DayIDs    []string
	CreatedAt time.Time
}

// Day is the booking ledger of one room on one date.
type Day struct {
	ID       string
	RoomID   string
	RoomName string
	Date     scheduler.Date
	Bookings []Booking
	// Version increases on every write to Bookings.
	Version   int64
	CreatedAt time.Time
}

// Booking is a reserved half-open interval on a Day.
type Booking struct {
	EventName   string
	Date        scheduler.Date
	RoomName    string
	Start       scheduler.TimeOfDay
	End         scheduler.TimeOfDay
	OwnerUserID string
}

// Slot returns the booking's interval.
func (b Booking) Slot() scheduler.Slot {
	return scheduler.Slot{Start: b.Start, End: b.End}
}
