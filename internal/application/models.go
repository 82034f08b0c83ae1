package application

import (
	"time"

	"github.com/example/roombook/internal/persistence"
	"github.com/example/roombook/internal/scheduler"
)

// User is an application account as exposed by the services.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	OwnedRoomIDs []string  `json:"owned_room_ids"`
	CreatedAt    time.Time `json:"created_at"`
}

// Room is a named, bookable space.
type Room struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	OwnerEmail  string         `json:"owner_email"`
	OwnerUserID string         `json:"owner_user_id"`
	CreatedDate scheduler.Date `json:"created_date"`
}

// Booking is a reservation of a half-open slot in a room on a date.
type Booking struct {
	EventName   string              `json:"event_name"`
	Room        string              `json:"room"`
	Date        scheduler.Date      `json:"date"`
	Start       scheduler.TimeOfDay `json:"start"`
	End         scheduler.TimeOfDay `json:"end"`
	OwnerUserID string              `json:"owner_user_id"`
}

// Key returns the identifying coordinates of the booking.
func (b Booking) Key() BookingKey {
	return BookingKey{Room: b.Room, Date: b.Date, Start: b.Start, End: b.End}
}

// DaySchedule lists the bookings of one room on one date in booking order.
type DaySchedule struct {
	Date     scheduler.Date `json:"date"`
	Bookings []Booking      `json:"bookings"`
}

// RoomSchedule is a room with every date that has at least one booking.
type RoomSchedule struct {
	Room Room          `json:"room"`
	Days []DaySchedule `json:"days"`
}

// BookingRequest describes a slot to reserve.
type BookingRequest struct {
	Room      string              `json:"room"`
	Date      scheduler.Date      `json:"date"`
	Start     scheduler.TimeOfDay `json:"start"`
	End       scheduler.TimeOfDay `json:"end"`
	EventName string              `json:"event_name"`
}

// Slot returns the requested interval.
func (r BookingRequest) Slot() scheduler.Slot {
	return scheduler.Slot{Start: r.Start, End: r.End}
}

// BookingKey identifies an existing booking.
type BookingKey struct {
	Room  string              `json:"room"`
	Date  scheduler.Date      `json:"date"`
	Start scheduler.TimeOfDay `json:"start"`
	End   scheduler.TimeOfDay `json:"end"`
}

// matches reports whether b sits at exactly this key's interval.
func (k BookingKey) matches(b persistence.Booking) bool {
	return b.Start == k.Start && b.End == k.End
}

// BookingFilter narrows a user's bookings. Zero values match everything.
type BookingFilter struct {
	Date *scheduler.Date
	Room string
}

func userFromPersistence(u persistence.User) User {
	return User{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		OwnedRoomIDs: append([]string(nil), u.OwnedRoomIDs...),
		CreatedAt:    u.CreatedAt,
	}
}

func roomFromPersistence(r persistence.Room) Room {
	return Room{
		ID:          r.ID,
		Name:        r.Name,
		OwnerEmail:  r.OwnerEmail,
		OwnerUserID: r.OwnerUserID,
		CreatedDate: r.CreatedDate,
	}
}

func bookingFromPersistence(b persistence.Booking) Booking {
	return Booking{
		EventName:   b.EventName,
		Room:        b.RoomName,
		Date:        b.Date,
		Start:       b.Start,
		End:         b.End,
		OwnerUserID: b.OwnerUserID,
	}
}

func slotsOf(bookings []persistence.Booking) []scheduler.Slot {
	slots := make([]scheduler.Slot, len(bookings))
	for i, b := range bookings {
		slots[i] = b.Slot()
	}
	return slots
}
