package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/roombook/internal/identity"
	"github.com/example/roombook/internal/persistence"
	"github.com/example/roombook/internal/scheduler"
)

// BookingService admits, removes and edits bookings.
type BookingService struct {
	tx          transactor
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewBookingService constructs a booking service with the provided dependencies.
// now supplies the wall clock whose location defines "today".
func NewBookingService(store persistence.Store, idGenerator func() string, now func() time.Time) *BookingService {
	return NewBookingServiceWithLogger(store, idGenerator, now, DefaultRetryPolicy(), nil)
}

// NewBookingServiceWithLogger constructs a booking service with a retry policy and logger.
func NewBookingServiceWithLogger(store persistence.Store, idGenerator func() string, now func() time.Time, policy RetryPolicy, logger *slog.Logger) *BookingService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &BookingService{
		tx:          newTransactor(store, policy),
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *BookingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "BookingService", operation, attrs...)
}

// Book reserves req for user. The interval is checked before anything else,
// then the date against today, then the room's existing bookings.
func (s *BookingService) Book(ctx context.Context, req BookingRequest, user identity.Identity) (booking Booking, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}
	if user.IsZero() {
		err = ErrUnauthorized
		return
	}

	req.Room = strings.TrimSpace(req.Room)
	req.EventName = strings.TrimSpace(req.EventName)
	logger := s.loggerWith(ctx, "Book",
		"principal_id", user.UserID,
		"room_name", req.Room,
		"date", req.Date.String(),
		"slot", req.Slot().String(),
	)
	defer func() {
		logOutcome(ctx, logger, err, "failed to book slot", "slot booked")
	}()

	if err = s.validateRequest(req); err != nil {
		return
	}

	var record persistence.Booking
	err = s.tx.write(ctx, logger, func(ctx context.Context, tx persistence.Tx) error {
		owner, txErr := ensureUser(ctx, tx, user, s.now())
		if txErr != nil {
			return txErr
		}
		room, txErr := findRoom(ctx, tx, req.Room)
		if txErr != nil {
			return txErr
		}
		day, txErr := s.dayFor(ctx, tx, room, req.Date)
		if txErr != nil {
			return txErr
		}

		if conflict, found := scheduler.DetectConflict(slotsOf(day.Bookings), req.Slot()); found {
			return &SlotConflictError{Existing: bookingFromPersistence(day.Bookings[conflict.Index])}
		}

		record = newBookingRecord(req, room, owner.ID)
		next := append(cloneBookings(day.Bookings), record)
		if _, txErr := tx.Days().SaveBookings(ctx, day.ID, day.Version, next); txErr != nil {
			return fmt.Errorf("save bookings for %s on %s: %w", room.Name, req.Date, txErr)
		}
		return nil
	})
	if err != nil {
		return
	}

	booking = bookingFromPersistence(record)
	return
}

// DeleteBooking removes the caller's booking at key. It reports false without
// error when the date has no ledger or no booking sits at exactly that slot.
func (s *BookingService) DeleteBooking(ctx context.Context, key BookingKey, user identity.Identity) (removed bool, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}
	if user.IsZero() {
		err = ErrUnauthorized
		return
	}

	key.Room = strings.TrimSpace(key.Room)
	logger := s.loggerWith(ctx, "DeleteBooking",
		"principal_id", user.UserID,
		"room_name", key.Room,
		"date", key.Date.String(),
		"slot", key.Start.String()+"-"+key.End.String(),
	)
	defer func() {
		logOutcome(ctx, logger, err, "failed to delete booking", "booking delete handled", "removed", removed)
	}()

	err = s.tx.write(ctx, logger, func(ctx context.Context, tx persistence.Tx) error {
		removed = false

		room, txErr := findRoom(ctx, tx, key.Room)
		if txErr != nil {
			return txErr
		}
		day, txErr := tx.Days().FindDay(ctx, room.ID, key.Date)
		if errors.Is(txErr, persistence.ErrNotFound) {
			return nil
		}
		if txErr != nil {
			return fmt.Errorf("find day %s of room %q: %w", key.Date, room.Name, txErr)
		}

		idx := indexOf(day.Bookings, key)
		if idx < 0 {
			return nil
		}
		if day.Bookings[idx].OwnerUserID != user.UserID {
			return ErrNotOwner
		}

		if _, txErr := tx.Days().SaveBookings(ctx, day.ID, day.Version, without(day.Bookings, idx)); txErr != nil {
			return fmt.Errorf("save bookings for %s on %s: %w", room.Name, key.Date, txErr)
		}
		removed = true
		return nil
	})
	if err != nil {
		removed = false
	}
	return
}

// EditBooking replaces the caller's booking at original with replacement in a
// single transaction. On any failure the original booking is left in place.
func (s *BookingService) EditBooking(ctx context.Context, original BookingKey, replacement BookingRequest, user identity.Identity) (booking Booking, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}
	if user.IsZero() {
		err = ErrUnauthorized
		return
	}

	original.Room = strings.TrimSpace(original.Room)
	replacement.Room = strings.TrimSpace(replacement.Room)
	replacement.EventName = strings.TrimSpace(replacement.EventName)
	logger := s.loggerWith(ctx, "EditBooking",
		"principal_id", user.UserID,
		"room_name", original.Room,
		"date", original.Date.String(),
		"target_room_name", replacement.Room,
		"target_date", replacement.Date.String(),
	)
	defer func() {
		logOutcome(ctx, logger, err, "failed to edit booking", "booking edited")
	}()

	if err = s.validateRequest(replacement); err != nil {
		return
	}

	var record persistence.Booking
	err = s.tx.write(ctx, logger, func(ctx context.Context, tx persistence.Tx) error {
		sourceRoom, txErr := findRoom(ctx, tx, original.Room)
		if txErr != nil {
			return txErr
		}
		sourceDay, txErr := tx.Days().FindDay(ctx, sourceRoom.ID, original.Date)
		if errors.Is(txErr, persistence.ErrNotFound) {
			return ErrBookingNotFound
		}
		if txErr != nil {
			return fmt.Errorf("find day %s of room %q: %w", original.Date, sourceRoom.Name, txErr)
		}
		idx := indexOf(sourceDay.Bookings, original)
		if idx < 0 {
			return ErrBookingNotFound
		}
		if sourceDay.Bookings[idx].OwnerUserID != user.UserID {
			return ErrNotOwner
		}

		targetRoom, txErr := findRoom(ctx, tx, replacement.Room)
		if txErr != nil {
			return txErr
		}
		record = newBookingRecord(replacement, targetRoom, user.UserID)

		if targetRoom.ID == sourceRoom.ID && replacement.Date == original.Date {
			remaining := without(sourceDay.Bookings, idx)
			if conflict, found := scheduler.DetectConflict(slotsOf(remaining), replacement.Slot()); found {
				return &SlotConflictError{Existing: bookingFromPersistence(remaining[conflict.Index])}
			}
			if _, txErr := tx.Days().SaveBookings(ctx, sourceDay.ID, sourceDay.Version, append(remaining, record)); txErr != nil {
				return fmt.Errorf("save bookings for %s on %s: %w", sourceRoom.Name, original.Date, txErr)
			}
			return nil
		}

		targetDay, txErr := s.dayFor(ctx, tx, targetRoom, replacement.Date)
		if txErr != nil {
			return txErr
		}
		if conflict, found := scheduler.DetectConflict(slotsOf(targetDay.Bookings), replacement.Slot()); found {
			return &SlotConflictError{Existing: bookingFromPersistence(targetDay.Bookings[conflict.Index])}
		}
		if _, txErr := tx.Days().SaveBookings(ctx, sourceDay.ID, sourceDay.Version, without(sourceDay.Bookings, idx)); txErr != nil {
			return fmt.Errorf("save bookings for %s on %s: %w", sourceRoom.Name, original.Date, txErr)
		}
		next := append(cloneBookings(targetDay.Bookings), record)
		if _, txErr := tx.Days().SaveBookings(ctx, targetDay.ID, targetDay.Version, next); txErr != nil {
			return fmt.Errorf("save bookings for %s on %s: %w", targetRoom.Name, replacement.Date, txErr)
		}
		return nil
	})
	if err != nil {
		return
	}

	booking = bookingFromPersistence(record)
	return
}

// GetBooking returns the booking at key.
func (s *BookingService) GetBooking(ctx context.Context, key BookingKey) (booking Booking, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}
	key.Room = strings.TrimSpace(key.Room)

	err = s.tx.read(ctx, func(ctx context.Context, tx persistence.Tx) error {
		room, txErr := findRoom(ctx, tx, key.Room)
		if txErr != nil {
			return txErr
		}
		day, txErr := tx.Days().FindDay(ctx, room.ID, key.Date)
		if errors.Is(txErr, persistence.ErrNotFound) {
			return ErrBookingNotFound
		}
		if txErr != nil {
			return fmt.Errorf("find day %s of room %q: %w", key.Date, room.Name, txErr)
		}
		idx := indexOf(day.Bookings, key)
		if idx < 0 {
			return ErrBookingNotFound
		}
		booking = bookingFromPersistence(day.Bookings[idx])
		return nil
	})
	if err != nil {
		booking = Booking{}
	}
	return
}

func (s *BookingService) validateRequest(req BookingRequest) error {
	if err := scheduler.CheckAdmissible(req.Date, req.Slot(), s.now()); err != nil {
		return err
	}

	vErr := &ValidationError{}
	if req.Room == "" {
		vErr.add("room", "room is required")
	}
	if req.EventName == "" {
		vErr.add("event_name", "event name is required")
	}
	return vErr.orNil()
}

// dayFor returns the ledger of room on date, creating an empty one when absent.
func (s *BookingService) dayFor(ctx context.Context, tx persistence.Tx, room persistence.Room, date scheduler.Date) (persistence.Day, error) {
	day, err := tx.Days().FindDay(ctx, room.ID, date)
	if err == nil {
		return day, nil
	}
	if !errors.Is(err, persistence.ErrNotFound) {
		return persistence.Day{}, fmt.Errorf("find day %s of room %q: %w", date, room.Name, err)
	}

	day = persistence.Day{
		ID:        s.idGenerator(),
		RoomID:    room.ID,
		RoomName:  room.Name,
		Date:      date,
		CreatedAt: s.now(),
	}
	if err := tx.Days().CreateDay(ctx, day); err != nil {
		return persistence.Day{}, fmt.Errorf("create day %s of room %q: %w", date, room.Name, err)
	}
	return day, nil
}

func newBookingRecord(req BookingRequest, room persistence.Room, ownerID string) persistence.Booking {
	return persistence.Booking{
		EventName:   req.EventName,
		Date:        req.Date,
		RoomName:    room.Name,
		Start:       req.Start,
		End:         req.End,
		OwnerUserID: ownerID,
	}
}

// indexOf returns the position of the first booking at exactly key's slot, or -1.
func indexOf(bookings []persistence.Booking, key BookingKey) int {
	for i, b := range bookings {
		if key.matches(b) {
			return i
		}
	}
	return -1
}

func without(bookings []persistence.Booking, idx int) []persistence.Booking {
	out := make([]persistence.Booking, 0, len(bookings)-1)
	out = append(out, bookings[:idx]...)
	return append(out, bookings[idx+1:]...)
}

func cloneBookings(bookings []persistence.Booking) []persistence.Booking {
	out := make([]persistence.Booking, len(bookings), len(bookings)+1)
	copy(out, bookings)
	return out
}
