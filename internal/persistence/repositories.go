package persistence

import (
	"context"

	"github.com/example/roombook/internal/scheduler"
)

// UserRepository exposes user records.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	// FindUserByUsername expects exactly one match.
	FindUserByUsername(ctx context.Context, username string) (User, error)
	UpdateUsername(ctx context.Context, id, username string) error
}

// RoomRepository exposes room records.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, id string) (Room, error)
	// FindRoomByName expects exactly one match.
	FindRoomByName(ctx context.Context, name string) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
	// DeleteRoom removes the room together with its day ledgers.
	DeleteRoom(ctx context.Context, id string) error
}

// DayFilter narrows day queries.
type DayFilter struct {
	Date *scheduler.Date
}

// DayRepository exposes per-room, per-date booking ledgers.
type DayRepository interface {
	CreateDay(ctx context.Context, day Day) error
	GetDay(ctx context.Context, id string) (Day, error)
	// FindDay returns the ledger for room on date.
	FindDay(ctx context.Context, roomID string, date scheduler.Date) (Day, error)
	ListDaysForRoom(ctx context.Context, roomID string) ([]Day, error)
	ListDays(ctx context.Context, filter DayFilter) ([]Day, error)
	// SaveBookings replaces the ledger's bookings if its version still equals
	// expectedVersion and returns the new version. It fails with ErrStaleVersion otherwise.
	SaveBookings(ctx context.Context, dayID string, expectedVersion int64, bookings []Booking) (int64, error)
}

// Tx is a unit of work spanning all repositories.
type Tx interface {
	Users() UserRepository
	Rooms() RoomRepository
	Days() DayRepository
}

// TxFunc runs inside a transaction. Returning an error rolls the transaction back.
type TxFunc func(ctx context.Context, tx Tx) error

// Store is the persistent store shared by the application services.
type Store interface {
	WithTransaction(ctx context.Context, fn TxFunc) error
	WithReadOnlyTransaction(ctx context.Context, fn TxFunc) error
	Close() error
}
