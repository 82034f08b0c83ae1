package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/roombook/internal/persistence"
)

const roomColumns = `id, name, owner_email, owner_user_id, created_date, created_at`

// roomRepository implements persistence.RoomRepository within a transaction.
type roomRepository struct {
	tx *sql.Tx
}

func (r roomRepository) CreateRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" {
		return errors.New("sqlite: room id is required")
	}

	const query = `
		INSERT INTO rooms (id, name, owner_email, owner_user_id, created_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	if _, err := r.tx.ExecContext(ctx, query,
		room.ID,
		room.Name,
		room.OwnerEmail,
		room.OwnerUserID,
		formatDate(room.CreatedDate),
		formatTime(room.CreatedAt),
	); err != nil {
		return fmt.Errorf("sqlite: create room %q: %w", room.Name, mapError(err))
	}
	return nil
}

func (r roomRepository) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	row := r.tx.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id)
	room, err := scanRoom(row)
	if err != nil {
		return persistence.Room{}, err
	}
	return r.withDays(ctx, room)
}

func (r roomRepository) FindRoomByName(ctx context.Context, name string) (persistence.Room, error) {
	row := r.tx.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE name = ?`, name)
	room, err := scanRoom(row)
	if err != nil {
		return persistence.Room{}, err
	}
	return r.withDays(ctx, room)
}

// ListRooms returns all rooms ordered by name.
func (r roomRepository) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	rows, err := r.tx.QueryContext(ctx, `SELECT `+roomColumns+` FROM rooms ORDER BY name, id`)
	if err != nil {
		return nil, mapError(err)
	}

	rooms := make([]persistence.Room, 0)
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, mapError(err)
	}
	rows.Close()

	for i := range rooms {
		if rooms[i], err = r.withDays(ctx, rooms[i]); err != nil {
			return nil, err
		}
	}
	return rooms, nil
}

// DeleteRoom removes the room. Days and their bookings go with it through ON DELETE CASCADE.
func (r roomRepository) DeleteRoom(ctx context.Context, id string) error {
	result, err := r.tx.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: delete room %s: %w", id, mapError(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func (r roomRepository) withDays(ctx context.Context, room persistence.Room) (persistence.Room, error) {
	rows, err := r.tx.QueryContext(ctx, `SELECT id FROM days WHERE room_id = ? ORDER BY seq`, room.ID)
	if err != nil {
		return persistence.Room{}, mapError(err)
	}
	if room.DayIDs, err = collectIDs(rows); err != nil {
		return persistence.Room{}, err
	}
	return room, nil
}

func scanRoom(row scanner) (persistence.Room, error) {
	var (
		room                   persistence.Room
		createdDate, createdAt string
	)
	if err := row.Scan(&room.ID, &room.Name, &room.OwnerEmail, &room.OwnerUserID, &createdDate, &createdAt); err != nil {
		return persistence.Room{}, mapError(err)
	}

	var err error
	if room.CreatedDate, err = parseDate(createdDate); err != nil {
		return persistence.Room{}, err
	}
	if room.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Room{}, err
	}
	return room, nil
}
