package application

import (
	"context"
	"iter"
	"strings"

	"github.com/example/roombook/internal/identity"
	"github.com/example/roombook/internal/persistence"
)

// BookingsForUser yields every booking owned by user, ordered by date and
// then by ledger order within each room.
func (s *BookingService) BookingsForUser(ctx context.Context, user identity.Identity) iter.Seq2[Booking, error] {
	return s.BookingsFiltered(ctx, BookingFilter{}, user)
}

// BookingsFiltered yields the user's bookings narrowed by filter. The date
// filter is applied by the store; the room filter is applied here.
// Nothing is read until the sequence is iterated.
func (s *BookingService) BookingsFiltered(ctx context.Context, filter BookingFilter, user identity.Identity) iter.Seq2[Booking, error] {
	return func(yield func(Booking, error) bool) {
		if user.IsZero() {
			yield(Booking{}, ErrUnauthorized)
			return
		}

		room := strings.TrimSpace(filter.Room)
		var days []persistence.Day
		err := s.tx.read(ctx, func(ctx context.Context, tx persistence.Tx) error {
			var txErr error
			days, txErr = tx.Days().ListDays(ctx, persistence.DayFilter{Date: filter.Date})
			return txErr
		})
		if err != nil {
			s.loggerWith(ctx, "BookingsFiltered", "principal_id", user.UserID).
				ErrorContext(ctx, "failed to list bookings", "error", err, "error_kind", ErrorKind(err))
			yield(Booking{}, err)
			return
		}

		for _, day := range days {
			if room != "" && day.RoomName != room {
				continue
			}
			for _, b := range day.Bookings {
				if b.OwnerUserID != user.UserID {
					continue
				}
				if !yield(bookingFromPersistence(b), nil) {
					return
				}
			}
		}
	}
}

// Collect drains seq into a slice, stopping at the first error.
func Collect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	out := make([]T, 0)
	for item, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}
