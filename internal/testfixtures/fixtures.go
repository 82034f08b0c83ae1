package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/roombook/internal/application"
	"github.com/example/roombook/internal/identity"
	"github.com/example/roombook/internal/scheduler"
)

var identityCounter uint64

var referenceTime = time.Date(2026, time.March, 10, 9, 30, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// NewIdentity returns a distinct verified identity. An empty name yields a
// generated one.
func NewIdentity(name string) identity.Identity {
	idx := atomic.AddUint64(&identityCounter, 1)
	if name == "" {
		name = fmt.Sprintf("user%03d", idx)
	}
	return identity.Identity{
		UserID: fmt.Sprintf("%s-%03d", name, idx),
		Email:  name + "@example.com",
	}
}

// MustTime parses "HH:MM" and panics on malformed input.
func MustTime(value string) scheduler.TimeOfDay {
	tod, err := scheduler.ParseTimeOfDay(value)
	if err != nil {
		panic(err)
	}
	return tod
}

// BookingOption configures a generated booking request.
type BookingOption func(*application.BookingRequest)

// NewBookingRequest returns a request for room on date from 10:00 to 11:00 with overrides applied.
func NewBookingRequest(room string, date scheduler.Date, opts ...BookingOption) application.BookingRequest {
	req := application.BookingRequest{
		Room:      room,
		Date:      date,
		Start:     MustTime("10:00"),
		End:       MustTime("11:00"),
		EventName: "Planning",
	}
	for _, opt := range opts {
		opt(&req)
	}
	return req
}

// WithSlot overrides the requested interval.
func WithSlot(start, end string) BookingOption {
	return func(req *application.BookingRequest) {
		req.Start = MustTime(start)
		req.End = MustTime(end)
	}
}

// WithEventName overrides the event name.
func WithEventName(name string) BookingOption {
	return func(req *application.BookingRequest) {
		req.EventName = name
	}
}

// WithDate overrides the booking date.
func WithDate(date scheduler.Date) BookingOption {
	return func(req *application.BookingRequest) {
		req.Date = date
	}
}

// KeyOf returns the key addressing the booking req would create.
func KeyOf(req application.BookingRequest) application.BookingKey {
	return application.BookingKey{Room: req.Room, Date: req.Date, Start: req.Start, End: req.End}
}
