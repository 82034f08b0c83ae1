package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/roombook/internal/persistence"
)

// userRepository implements persistence.UserRepository within a transaction.
type userRepository struct {
	tx *sql.Tx
}

func (r userRepository) CreateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" {
		return errors.New("sqlite: user id is required")
	}

	const query = `
		INSERT INTO users (id, email, username, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`
	if _, err := r.tx.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.Username,
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
	); err != nil {
		return fmt.Errorf("sqlite: create user %s: %w", user.ID, mapError(err))
	}
	return nil
}

func (r userRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	if id == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	const query = `SELECT id, email, username, created_at, updated_at FROM users WHERE id = ?`
	return r.load(ctx, r.tx.QueryRowContext(ctx, query, id))
}

func (r userRepository) FindUserByUsername(ctx context.Context, username string) (persistence.User, error) {
	if username == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	const query = `SELECT id, email, username, created_at, updated_at FROM users WHERE username = ?`
	return r.load(ctx, r.tx.QueryRowContext(ctx, query, username))
}

func (r userRepository) UpdateUsername(ctx context.Context, id, username string) error {
	const query = `UPDATE users SET username = ?, updated_at = ? WHERE id = ?`
	result, err := r.tx.ExecContext(ctx, query, username, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("sqlite: update username for %s: %w", id, mapError(err))
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

func (r userRepository) load(ctx context.Context, row scanner) (persistence.User, error) {
	var (
		user                 persistence.User
		createdAt, updatedAt string
	)
	if err := row.Scan(&user.ID, &user.Email, &user.Username, &createdAt, &updatedAt); err != nil {
		return persistence.User{}, mapError(err)
	}

	var err error
	if user.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.User{}, err
	}
	if user.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.User{}, err
	}

	rows, err := r.tx.QueryContext(ctx, `SELECT id FROM rooms WHERE owner_user_id = ? ORDER BY seq`, user.ID)
	if err != nil {
		return persistence.User{}, mapError(err)
	}
	if user.OwnedRoomIDs, err = collectIDs(rows); err != nil {
		return persistence.User{}, err
	}
	return user, nil
}
