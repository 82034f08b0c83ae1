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
)

// UserDirectory maps verified identities to application accounts.
type UserDirectory struct {
	tx     transactor
	now    func() time.Time
	logger *slog.Logger
}

// NewUserDirectory constructs a directory over store.
func NewUserDirectory(store persistence.Store, now func() time.Time) *UserDirectory {
	return NewUserDirectoryWithLogger(store, now, DefaultRetryPolicy(), nil)
}

// NewUserDirectoryWithLogger constructs a directory with a retry policy and logger.
func NewUserDirectoryWithLogger(store persistence.Store, now func() time.Time, policy RetryPolicy, logger *slog.Logger) *UserDirectory {
	if now == nil {
		now = time.Now
	}
	return &UserDirectory{tx: newTransactor(store, policy), now: now, logger: defaultLogger(logger)}
}

func (d *UserDirectory) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, d.logger, "UserDirectory", operation, attrs...)
}

// GetOrCreate returns the account for id, creating it on first use.
// Concurrent first calls resolve to a single record.
func (d *UserDirectory) GetOrCreate(ctx context.Context, id identity.Identity) (user User, err error) {
	if d == nil {
		err = fmt.Errorf("UserDirectory is nil")
		return
	}
	if id.IsZero() {
		err = ErrUnauthorized
		return
	}

	logger := d.loggerWith(ctx, "GetOrCreate", "user_id", id.UserID)

	var record persistence.User
	err = d.tx.write(ctx, logger, func(ctx context.Context, tx persistence.Tx) error {
		var txErr error
		record, txErr = ensureUser(ctx, tx, id, d.now())
		return txErr
	})
	if errors.Is(err, persistence.ErrDuplicate) {
		// Another request created the record between our read and insert.
		err = d.tx.read(ctx, func(ctx context.Context, tx persistence.Tx) error {
			var txErr error
			record, txErr = tx.Users().GetUser(ctx, id.UserID)
			return txErr
		})
	}
	if err != nil {
		logger.ErrorContext(ctx, "failed to resolve user", "error", err, "error_kind", ErrorKind(err))
		return
	}

	user = userFromPersistence(record)
	return
}

// SetUsername assigns a display name unique across users. Re-applying the
// caller's current name succeeds.
func (d *UserDirectory) SetUsername(ctx context.Context, id identity.Identity, name string) (user User, err error) {
	if d == nil {
		err = fmt.Errorf("UserDirectory is nil")
		return
	}
	if id.IsZero() {
		err = ErrUnauthorized
		return
	}

	logger := d.loggerWith(ctx, "SetUsername", "user_id", id.UserID)
	defer func() {
		logOutcome(ctx, logger, err, "failed to set username", "username set")
	}()

	name = strings.TrimSpace(name)
	vErr := &ValidationError{}
	if name == "" {
		vErr.add("username", "username is required")
	}
	if err = vErr.orNil(); err != nil {
		return
	}

	var record persistence.User
	err = d.tx.write(ctx, logger, func(ctx context.Context, tx persistence.Tx) error {
		current, txErr := ensureUser(ctx, tx, id, d.now())
		if txErr != nil {
			return txErr
		}

		holder, txErr := tx.Users().FindUserByUsername(ctx, name)
		switch {
		case txErr == nil && holder.ID != current.ID:
			return ErrUsernameTaken
		case txErr != nil && !errors.Is(txErr, persistence.ErrNotFound):
			return fmt.Errorf("look up username: %w", txErr)
		}

		if txErr := tx.Users().UpdateUsername(ctx, current.ID, name); txErr != nil {
			return mapUserRepoError(txErr)
		}
		record, txErr = tx.Users().GetUser(ctx, current.ID)
		return txErr
	})
	if err != nil {
		return
	}

	user = userFromPersistence(record)
	return
}

func mapUserRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrUsernameTaken
	}
	return err
}
