package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/roombook/internal/persistence"
	"github.com/example/roombook/internal/scheduler"
)

const daySelect = `
	SELECT d.id, d.room_id, r.name, d.date, d.version, d.created_at
	FROM days d
	JOIN rooms r ON r.id = d.room_id
`

// dayRepository implements persistence.DayRepository within a transaction.
type dayRepository struct {
	tx *sql.Tx
}

func (r dayRepository) CreateDay(ctx context.Context, day persistence.Day) error {
	if day.ID == "" {
		return errors.New("sqlite: day id is required")
	}

	const query = `
		INSERT INTO days (id, room_id, date, version, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	if _, err := r.tx.ExecContext(ctx, query,
		day.ID,
		day.RoomID,
		formatDate(day.Date),
		day.Version,
		formatTime(day.CreatedAt),
	); err != nil {
		return fmt.Errorf("sqlite: create day %s for room %s: %w", day.Date, day.RoomID, mapError(err))
	}
	return r.insertBookings(ctx, day.ID, day.Bookings)
}

func (r dayRepository) GetDay(ctx context.Context, id string) (persistence.Day, error) {
	return r.loadOne(ctx, daySelect+` WHERE d.id = ?`, id)
}

func (r dayRepository) FindDay(ctx context.Context, roomID string, date scheduler.Date) (persistence.Day, error) {
	return r.loadOne(ctx, daySelect+` WHERE d.room_id = ? AND d.date = ?`, roomID, formatDate(date))
}

func (r dayRepository) ListDaysForRoom(ctx context.Context, roomID string) ([]persistence.Day, error) {
	return r.loadMany(ctx, daySelect+` WHERE d.room_id = ? ORDER BY d.seq`, roomID)
}

// ListDays returns ledgers ordered by date, then creation order.
func (r dayRepository) ListDays(ctx context.Context, filter persistence.DayFilter) ([]persistence.Day, error) {
	if filter.Date != nil {
		return r.loadMany(ctx, daySelect+` WHERE d.date = ? ORDER BY d.seq`, formatDate(*filter.Date))
	}
	return r.loadMany(ctx, daySelect+` ORDER BY d.date, d.seq`)
}

func (r dayRepository) SaveBookings(ctx context.Context, dayID string, expectedVersion int64, bookings []persistence.Booking) (int64, error) {
	result, err := r.tx.ExecContext(ctx,
		`UPDATE days SET version = version + 1 WHERE id = ? AND version = ?`,
		dayID, expectedVersion,
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: bump version of day %s: %w", dayID, mapError(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if rowsAffected == 0 {
		var current int64
		err := r.tx.QueryRowContext(ctx, `SELECT version FROM days WHERE id = ?`, dayID).Scan(&current)
		if err != nil {
			return 0, mapError(err)
		}
		return 0, fmt.Errorf("sqlite: day %s at version %d, expected %d: %w", dayID, current, expectedVersion, persistence.ErrStaleVersion)
	}

	if _, err := r.tx.ExecContext(ctx, `DELETE FROM bookings WHERE day_id = ?`, dayID); err != nil {
		return 0, fmt.Errorf("sqlite: clear bookings of day %s: %w", dayID, mapError(err))
	}
	if err := r.insertBookings(ctx, dayID, bookings); err != nil {
		return 0, err
	}
	return expectedVersion + 1, nil
}

func (r dayRepository) insertBookings(ctx context.Context, dayID string, bookings []persistence.Booking) error {
	const query = `
		INSERT INTO bookings (day_id, position, event_name, start_minute, end_minute, owner_user_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	for i, booking := range bookings {
		if _, err := r.tx.ExecContext(ctx, query,
			dayID,
			i,
			booking.EventName,
			booking.Start.Minutes(),
			booking.End.Minutes(),
			booking.OwnerUserID,
		); err != nil {
			return fmt.Errorf("sqlite: insert booking %s on day %s: %w", booking.Slot(), dayID, mapError(err))
		}
	}
	return nil
}

func (r dayRepository) loadOne(ctx context.Context, query string, args ...any) (persistence.Day, error) {
	days, err := r.loadMany(ctx, query, args...)
	if err != nil {
		return persistence.Day{}, err
	}
	switch len(days) {
	case 0:
		return persistence.Day{}, persistence.ErrNotFound
	case 1:
		return days[0], nil
	default:
		return persistence.Day{}, persistence.ErrAmbiguousResult
	}
}

func (r dayRepository) loadMany(ctx context.Context, query string, args ...any) ([]persistence.Day, error) {
	rows, err := r.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}

	days := make([]persistence.Day, 0)
	for rows.Next() {
		day, err := scanDay(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		days = append(days, day)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, mapError(err)
	}
	rows.Close()

	for i := range days {
		if days[i].Bookings, err = r.loadBookings(ctx, days[i]); err != nil {
			return nil, err
		}
	}
	return days, nil
}

func (r dayRepository) loadBookings(ctx context.Context, day persistence.Day) ([]persistence.Booking, error) {
	rows, err := r.tx.QueryContext(ctx, `
		SELECT event_name, start_minute, end_minute, owner_user_id
		FROM bookings
		WHERE day_id = ?
		ORDER BY position
	`, day.ID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	bookings := make([]persistence.Booking, 0)
	for rows.Next() {
		var (
			booking    persistence.Booking
			start, end int
		)
		if err := rows.Scan(&booking.EventName, &start, &end, &booking.OwnerUserID); err != nil {
			return nil, mapError(err)
		}
		booking.Date = day.Date
		booking.RoomName = day.RoomName
		booking.Start = scheduler.TimeOfDay(start)
		booking.End = scheduler.TimeOfDay(end)
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return bookings, nil
}

func scanDay(row scanner) (persistence.Day, error) {
	var (
		day             persistence.Day
		date, createdAt string
	)
	if err := row.Scan(&day.ID, &day.RoomID, &day.RoomName, &date, &day.Version, &createdAt); err != nil {
		return persistence.Day{}, mapError(err)
	}

	var err error
	if day.Date, err = parseDate(date); err != nil {
		return persistence.Day{}, err
	}
	if day.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Day{}, err
	}
	return day, nil
}
