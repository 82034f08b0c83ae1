package application

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"time"

	"github.com/example/roombook/internal/identity"
	"github.com/example/roombook/internal/persistence"
	"github.com/example/roombook/internal/scheduler"
)

// RoomRegistry creates, removes and lists rooms.
type RoomRegistry struct {
	tx          transactor
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewRoomRegistry constructs a registry with the provided dependencies.
func NewRoomRegistry(store persistence.Store, idGenerator func() string, now func() time.Time) *RoomRegistry {
	return NewRoomRegistryWithLogger(store, idGenerator, now, DefaultRetryPolicy(), nil)
}

// NewRoomRegistryWithLogger constructs a registry with a retry policy and logger.
func NewRoomRegistryWithLogger(store persistence.Store, idGenerator func() string, now func() time.Time, policy RetryPolicy, logger *slog.Logger) *RoomRegistry {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &RoomRegistry{
		tx:          newTransactor(store, policy),
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (r *RoomRegistry) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, r.logger, "RoomRegistry", operation, attrs...)
}

// CreateRoom registers a room named name owned by the caller.
func (r *RoomRegistry) CreateRoom(ctx context.Context, owner identity.Identity, name string) (room Room, err error) {
	if r == nil {
		err = fmt.Errorf("RoomRegistry is nil")
		return
	}
	if owner.IsZero() {
		err = ErrUnauthorized
		return
	}

	name = strings.TrimSpace(name)
	logger := r.loggerWith(ctx, "CreateRoom", "principal_id", owner.UserID, "room_name", name)
	defer func() {
		logOutcome(ctx, logger, err, "failed to create room", "room created", "room_id", room.ID)
	}()

	vErr := &ValidationError{}
	if name == "" {
		vErr.add("name", "name is required")
	}
	if err = vErr.orNil(); err != nil {
		return
	}

	var record persistence.Room
	err = r.tx.write(ctx, logger, func(ctx context.Context, tx persistence.Tx) error {
		now := r.now()
		user, txErr := ensureUser(ctx, tx, owner, now)
		if txErr != nil {
			return txErr
		}

		_, txErr = tx.Rooms().FindRoomByName(ctx, name)
		switch {
		case txErr == nil:
			return ErrDuplicateName
		case !errors.Is(txErr, persistence.ErrNotFound):
			return fmt.Errorf("find room %q: %w", name, txErr)
		}

		record = persistence.Room{
			ID:          r.idGenerator(),
			Name:        name,
			OwnerEmail:  user.Email,
			OwnerUserID: user.ID,
			CreatedDate: scheduler.DateOf(now),
			CreatedAt:   now,
		}
		return mapRoomRepoError(tx.Rooms().CreateRoom(ctx, record))
	})
	if err != nil {
		return
	}

	room = roomFromPersistence(record)
	return
}

// DeleteRoom removes the caller's room named name. Rooms with any booking are kept.
func (r *RoomRegistry) DeleteRoom(ctx context.Context, owner identity.Identity, name string) (err error) {
	if r == nil {
		return fmt.Errorf("RoomRegistry is nil")
	}
	if owner.IsZero() {
		return ErrUnauthorized
	}

	name = strings.TrimSpace(name)
	logger := r.loggerWith(ctx, "DeleteRoom", "principal_id", owner.UserID, "room_name", name)
	defer func() {
		logOutcome(ctx, logger, err, "failed to delete room", "room deleted")
	}()

	return r.tx.write(ctx, logger, func(ctx context.Context, tx persistence.Tx) error {
		room, txErr := findRoom(ctx, tx, name)
		if txErr != nil {
			return txErr
		}
		if room.OwnerUserID != owner.UserID {
			return ErrNotOwner
		}

		days, txErr := tx.Days().ListDaysForRoom(ctx, room.ID)
		if txErr != nil {
			return fmt.Errorf("list days of room %q: %w", name, txErr)
		}
		for _, day := range days {
			if len(day.Bookings) > 0 {
				return ErrRoomHasBookings
			}
		}

		return mapRoomRepoError(tx.Rooms().DeleteRoom(ctx, room.ID))
	})
}

// ListRooms yields every room ordered by name. The store is read when the
// sequence is first iterated.
func (r *RoomRegistry) ListRooms(ctx context.Context) iter.Seq2[Room, error] {
	return func(yield func(Room, error) bool) {
		var records []persistence.Room
		err := r.tx.read(ctx, func(ctx context.Context, tx persistence.Tx) error {
			var txErr error
			records, txErr = tx.Rooms().ListRooms(ctx)
			return txErr
		})
		if err != nil {
			r.loggerWith(ctx, "ListRooms").ErrorContext(ctx, "failed to list rooms", "error", err, "error_kind", ErrorKind(err))
			yield(Room{}, err)
			return
		}
		for _, record := range records {
			if !yield(roomFromPersistence(record), nil) {
				return
			}
		}
	}
}

// ViewRoom returns the room named name with its booked dates in day order.
func (r *RoomRegistry) ViewRoom(ctx context.Context, name string) (schedule RoomSchedule, err error) {
	if r == nil {
		err = fmt.Errorf("RoomRegistry is nil")
		return
	}
	name = strings.TrimSpace(name)

	err = r.tx.read(ctx, func(ctx context.Context, tx persistence.Tx) error {
		room, txErr := findRoom(ctx, tx, name)
		if txErr != nil {
			return txErr
		}
		days, txErr := tx.Days().ListDaysForRoom(ctx, room.ID)
		if txErr != nil {
			return fmt.Errorf("list days of room %q: %w", name, txErr)
		}

		schedule = RoomSchedule{Room: roomFromPersistence(room), Days: make([]DaySchedule, 0, len(days))}
		for _, day := range days {
			if len(day.Bookings) == 0 {
				continue
			}
			bookings := make([]Booking, 0, len(day.Bookings))
			for _, b := range day.Bookings {
				bookings = append(bookings, bookingFromPersistence(b))
			}
			schedule.Days = append(schedule.Days, DaySchedule{Date: day.Date, Bookings: bookings})
		}
		return nil
	})
	if err != nil {
		schedule = RoomSchedule{}
	}
	return
}

func mapRoomRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrRoomNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrDuplicateName
	}
	return err
}
