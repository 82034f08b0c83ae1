package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/example/roombook/internal/identity"
	"github.com/example/roombook/internal/persistence"
)

// RetryPolicy bounds how often a transaction is re-run after losing a race.
type RetryPolicy struct {
	Attempts uint
	Delay    time.Duration
	MaxDelay time.Duration
}

// DefaultRetryPolicy returns the policy used when none is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 5, Delay: 10 * time.Millisecond, MaxDelay: 200 * time.Millisecond}
}

// transactor runs units of work against the store, retrying contention failures.
type transactor struct {
	store  persistence.Store
	policy RetryPolicy
}

func newTransactor(store persistence.Store, policy RetryPolicy) transactor {
	if policy.Attempts == 0 {
		policy = DefaultRetryPolicy()
	}
	return transactor{store: store, policy: policy}
}

func isContention(err error) bool {
	return errors.Is(err, persistence.ErrStaleVersion) || errors.Is(err, persistence.ErrBusy)
}

// write runs fn in a read-write transaction.
func (t transactor) write(ctx context.Context, logger *slog.Logger, fn persistence.TxFunc) error {
	if t.store == nil {
		return errors.New("application: store not configured")
	}
	return retry.Do(
		func() error { return t.store.WithTransaction(ctx, fn) },
		retry.Context(ctx),
		retry.Attempts(t.policy.Attempts),
		retry.Delay(t.policy.Delay),
		retry.MaxDelay(t.policy.MaxDelay),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.MaxJitter(t.policy.Delay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isContention),
		retry.OnRetry(func(n uint, err error) {
			if logger != nil {
				logger.DebugContext(ctx, "retrying transaction", "attempt", n+1, "error", err)
			}
		}),
	)
}

// read runs fn in a read-only transaction.
func (t transactor) read(ctx context.Context, fn persistence.TxFunc) error {
	if t.store == nil {
		return errors.New("application: store not configured")
	}
	return retry.Do(
		func() error { return t.store.WithReadOnlyTransaction(ctx, fn) },
		retry.Context(ctx),
		retry.Attempts(t.policy.Attempts),
		retry.Delay(t.policy.Delay),
		retry.MaxDelay(t.policy.MaxDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool { return errors.Is(err, persistence.ErrBusy) }),
	)
}

// ensureUser returns the user record for id, creating it on first sight.
func ensureUser(ctx context.Context, tx persistence.Tx, id identity.Identity, now time.Time) (persistence.User, error) {
	if id.IsZero() {
		return persistence.User{}, ErrUnauthorized
	}

	user, err := tx.Users().GetUser(ctx, id.UserID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, persistence.ErrNotFound) {
		return persistence.User{}, fmt.Errorf("load user %s: %w", id.UserID, err)
	}

	user = persistence.User{ID: id.UserID, Email: id.Email, CreatedAt: now, UpdatedAt: now}
	if err := tx.Users().CreateUser(ctx, user); err != nil {
		return persistence.User{}, fmt.Errorf("create user %s: %w", id.UserID, err)
	}
	return user, nil
}

// findRoom resolves a room by name, mapping a miss to ErrRoomNotFound.
func findRoom(ctx context.Context, tx persistence.Tx, name string) (persistence.Room, error) {
	room, err := tx.Rooms().FindRoomByName(ctx, name)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.Room{}, ErrRoomNotFound
		}
		return persistence.Room{}, fmt.Errorf("find room %q: %w", name, err)
	}
	return room, nil
}
