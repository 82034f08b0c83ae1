// Package storetest holds the behavioural contract every persistence.Store
// implementation must satisfy.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/roombook/internal/persistence"
	"github.com/example/roombook/internal/scheduler"
)

// OpenFunc returns a fresh, empty store. The contract closes it.
type OpenFunc func(t *testing.T) persistence.Store

var (
	refTime = time.Date(2026, time.April, 1, 9, 0, 0, 0, time.UTC)
	refDate = scheduler.Date{Year: 2026, Month: time.April, Day: 2}
)

// Run executes the store contract against stores produced by open.
func Run(t *testing.T, open OpenFunc) {
	t.Helper()

	cases := []struct {
		name string
		fn   func(t *testing.T, store persistence.Store)
	}{
		{"users round trip and derive owned rooms", testUsers},
		{"usernames are unique when set", testUniqueUsernames},
		{"rooms are unique by name and ordered", testRooms},
		{"deleting a room cascades its days", testDeleteRoomCascades},
		{"days are unique per room and date", testDays},
		{"save bookings enforces versions", testSaveBookingsVersion},
		{"save bookings requires known owners", testSaveBookingsOwners},
		{"failed transactions roll back", testRollback},
		{"list days filters by date", testListDaysFilter},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := open(t)
			t.Cleanup(func() { _ = store.Close() })
			tc.fn(t, store)
		})
	}
}

func write(t *testing.T, store persistence.Store, fn func(ctx context.Context, tx persistence.Tx) error) {
	t.Helper()
	require.NoError(t, store.WithTransaction(context.Background(), fn))
}

func seedUser(t *testing.T, store persistence.Store, id, email string) persistence.User {
	t.Helper()
	user := persistence.User{ID: id, Email: email, CreatedAt: refTime, UpdatedAt: refTime}
	write(t, store, func(ctx context.Context, tx persistence.Tx) error {
		return tx.Users().CreateUser(ctx, user)
	})
	return user
}

func seedRoom(t *testing.T, store persistence.Store, id, name string, owner persistence.User) persistence.Room {
	t.Helper()
	room := persistence.Room{
		ID:          id,
		Name:        name,
		OwnerEmail:  owner.Email,
		OwnerUserID: owner.ID,
		CreatedDate: scheduler.DateOf(refTime),
		CreatedAt:   refTime,
	}
	write(t, store, func(ctx context.Context, tx persistence.Tx) error {
		return tx.Rooms().CreateRoom(ctx, room)
	})
	return room
}

func seedDay(t *testing.T, store persistence.Store, id string, room persistence.Room, date scheduler.Date) persistence.Day {
	t.Helper()
	day := persistence.Day{ID: id, RoomID: room.ID, RoomName: room.Name, Date: date, CreatedAt: refTime}
	write(t, store, func(ctx context.Context, tx persistence.Tx) error {
		return tx.Days().CreateDay(ctx, day)
	})
	return day
}

func booking(room persistence.Room, date scheduler.Date, start, end int, owner string) persistence.Booking {
	return persistence.Booking{
		EventName:   "standup",
		Date:        date,
		RoomName:    room.Name,
		Start:       scheduler.TimeOfDay(start * 60),
		End:         scheduler.TimeOfDay(end * 60),
		OwnerUserID: owner,
	}
}

func testUsers(t *testing.T, store persistence.Store) {
	ctx := context.Background()
	alice := seedUser(t, store, "user-1", "alice@example.com")
	seedRoom(t, store, "room-b", "Beta", alice)
	seedRoom(t, store, "room-a", "Alpha", alice)

	err := store.WithReadOnlyTransaction(ctx, func(ctx context.Context, tx persistence.Tx) error {
		got, err := tx.Users().GetUser(ctx, alice.ID)
		require.NoError(t, err)
		require.Equal(t, "alice@example.com", got.Email)
		require.Empty(t, got.Username)
		require.Equal(t, []string{"room-b", "room-a"}, got.OwnedRoomIDs)

		_, err = tx.Users().GetUser(ctx, "missing")
		require.ErrorIs(t, err, persistence.ErrNotFound)
		return nil
	})
	require.NoError(t, err)

	err = store.WithTransaction(ctx, func(ctx context.Context, tx persistence.Tx) error {
		return tx.Users().CreateUser(ctx, alice)
	})
	require.ErrorIs(t, err, persistence.ErrDuplicate)

	err = store.WithTransaction(ctx, func(ctx context.Context, tx persistence.Tx) error {
		return tx.Users().UpdateUsername(ctx, "missing", "ghost")
	})
	require.ErrorIs(t, err, persistence.ErrNotFound)
}

func testUniqueUsernames(t *testing.T, store persistence.Store) {
	ctx := context.Background()
	seedUser(t, store, "user-1", "alice@example.com")
	seedUser(t, store, "user-2", "bob@example.com")

	write(t, store, func(ctx context.Context, tx persistence.Tx) error {
		return tx.Users().UpdateUsername(ctx, "user-1", "alice")
	})

	err := store.WithTransaction(ctx, func(ctx context.Context, tx persistence.Tx) error {
		return tx.Users().UpdateUsername(ctx, "user-2", "alice")
	})
	require.ErrorIs(t, err, persistence.ErrDuplicate)

	// Re-applying the same name to its holder is not a conflict.
	write(t, store, func(ctx context.Context, tx persistence.Tx) error {
		return tx.Users().UpdateUsername(ctx, "user-1", "alice")
	})

	err = store.WithReadOnlyTransaction(ctx, func(ctx context.Context, tx persistence.Tx) error {
		got, err := tx.Users().FindUserByUsername(ctx, "alice")
		require.NoError(t, err)
		require.Equal(t, "user-1", got.ID)

		_, err = tx.Users().FindUserByUsername(ctx, "")
		require.ErrorIs(t, err, persistence.ErrNotFound)
		return nil
	})
	require.NoError(t, err)
}

func testRooms(t *testing.T, store persistence.Store) {
	ctx := context.Background()
	alice := seedUser(t, store, "user-1", "alice@example.com")
	seedRoom(t, store, "room-2", "Zeta", alice)
	seedRoom(t, store, "room-1", "Alpha", alice)

	err := store.WithTransaction(ctx, func(ctx context.Context, tx persistence.Tx) error {
		return tx.Rooms().CreateRoom(ctx, persistence.Room{ID: "room-3", Name: "Alpha", OwnerUserID: alice.ID, CreatedAt: refTime})
	})
	require.ErrorIs(t, err, persistence.ErrDuplicate)

	err = store.WithTransaction(ctx, func(ctx context.Context, tx persistence.Tx) error {
		return tx.Rooms().CreateRoom(ctx, persistence.Room{ID: "room-4", Name: "Orphan", OwnerUserID: "nobody", CreatedAt: refTime})
	})
	require.ErrorIs(t, err, persistence.ErrForeignKeyViolation)

	err = store.WithReadOnlyTransaction(ctx, func(ctx context.Context, tx persistence.Tx) error {
		list, err := tx.Rooms().ListRooms(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		require.Equal(t, "Alpha", list[0].Name)
		require.Equal(t, "Zeta", list[1].Name)

		found, err := tx.Rooms().FindRoomByName(ctx, "Zeta")
		require.NoError(t, err)
		require.Equal(t, "room-2", found.ID)
		require.Equal(t, alice.Email, found.OwnerEmail)
		require.Equal(t, scheduler.DateOf(refTime), found.CreatedDate)

		_, err = tx.Rooms().FindRoomByName(ctx, "zeta")
		require.ErrorIs(t, err, persistence.ErrNotFound)
		return nil
	})
	require.NoError(t, err)
}

func testDeleteRoomCascades(t *testing.T, store persistence.Store) {
	ctx := context.Background()
	alice := seedUser(t, store, "user-1", "alice@example.com")
	room := seedRoom(t, store, "room-1", "Alpha", alice)
	day := seedDay(t, store, "day-1", room, refDate)

	write(t, store, func(ctx context.Context, tx persistence.Tx) error {
		return tx.Rooms().DeleteRoom(ctx, room.ID)
	})

	err := store.WithReadOnlyTransaction(ctx, func(ctx context.Context, tx persistence.Tx) error {
		_, err := tx.Days().GetDay(ctx, day.ID)
		require.ErrorIs(t, err, persistence.ErrNotFound)

		user, err := tx.Users().GetUser(ctx, alice.ID)
		require.NoError(t, err)
		require.Empty(t, user.OwnedRoomIDs)
		return nil
	})
	require.NoError(t, err)

	err = store.WithTransaction(ctx, func(ctx context.Context, tx persistence.Tx) error {
		return tx.Rooms().DeleteRoom(ctx, room.ID)
	})
	require.ErrorIs(t, err, persistence.ErrNotFound)
}

func testDays(t *testing.T, store persistence.Store) {
	ctx := context.Background()
	alice := seedUser(t, store, "user-1", "alice@example.com")
	room := seedRoom(t, store, "room-1", "Alpha", alice)
	later := scheduler.Date{Year: 2026, Month: time.April, Day: 9}
	seedDay(t, store, "day-2", room, later)
	seedDay(t, store, "day-1", room, refDate)

	err := store.WithTransaction(ctx, func(ctx context.Context, tx persistence.Tx) error {
		return tx.Days().CreateDay(ctx, persistence.Day{ID: "day-3", RoomID: room.ID, RoomName: room.Name, Date: refDate, CreatedAt: refTime})
	})
	require.ErrorIs(t, err, persistence.ErrDuplicate)

	err = store.WithReadOnlyTransaction(ctx, func(ctx context.Context, tx persistence.Tx) error {
		got, err := tx.Days().FindDay(ctx, room.ID, refDate)
		require.NoError(t, err)
		require.Equal(t, "day-1", got.ID)
		require.Zero(t, got.Version)
		require.Empty(t, got.Bookings)

		r, err := tx.Rooms().GetRoom(ctx, room.ID)
		require.NoError(t, err)
		require.Equal(t, []string{"day-2", "day-1"}, r.DayIDs)

		forRoom, err := tx.Days().ListDaysForRoom(ctx, room.ID)
		require.NoError(t, err)
		require.Len(t, forRoom, 2)
		require.Equal(t, "day-2", forRoom[0].ID)

		_, err = tx.Days().FindDay(ctx, room.ID, scheduler.Date{Year: 2030, Month: time.January, Day: 1})
		require.ErrorIs(t, err, persistence.ErrNotFound)
		return nil
	})
	require.NoError(t, err)
}

func testSaveBookingsVersion(t *testing.T, store persistence.Store) {
	ctx := context.Background()
	alice := seedUser(t, store, "user-1", "alice@example.com")
	room := seedRoom(t, store, "room-1", "Alpha", alice)
	day := seedDay(t, store, "day-1", room, refDate)

	first := []persistence.Booking{
		booking(room, refDate, 10, 11, alice.ID),
		booking(room, refDate, 8, 9, alice.ID),
	}
	var version int64
	write(t, store, func(ctx context.Context, tx persistence.Tx) error {
		var err error
		version, err = tx.Days().SaveBookings(ctx, day.ID, 0, first)
		return err
	})
	require.Equal(t, int64(1), version)

	err := store.WithTransaction(ctx, func(ctx context.Context, tx persistence.Tx) error {
		_, err := tx.Days().SaveBookings(ctx, day.ID, 0, nil)
		return err
	})
	require.ErrorIs(t, err, persistence.ErrStaleVersion)

	err = store.WithReadOnlyTransaction(ctx, func(ctx context.Context, tx persistence.Tx) error {
		got, err := tx.Days().GetDay(ctx, day.ID)
		require.NoError(t, err)
		require.Equal(t, int64(1), got.Version)
		// Insertion order is preserved, not sorted by start.
		require.Equal(t, first, got.Bookings)
		return nil
	})
	require.NoError(t, err)

	err = store.WithTransaction(ctx, func(ctx context.Context, tx persistence.Tx) error {
		_, err := tx.Days().SaveBookings(ctx, "missing", 0, nil)
		return err
	})
	require.ErrorIs(t, err, persistence.ErrNotFound)
}

func testSaveBookingsOwners(t *testing.T, store persistence.Store) {
	ctx := context.Background()
	alice := seedUser(t, store, "user-1", "alice@example.com")
	room := seedRoom(t, store, "room-1", "Alpha", alice)
	day := seedDay(t, store, "day-1", room, refDate)

	err := store.WithTransaction(ctx, func(ctx context.Context, tx persistence.Tx) error {
		_, err := tx.Days().SaveBookings(ctx, day.ID, 0, []persistence.Booking{booking(room, refDate, 8, 9, "ghost")})
		return err
	})
	require.ErrorIs(t, err, persistence.ErrForeignKeyViolation)
}

func testRollback(t *testing.T, store persistence.Store) {
	ctx := context.Background()
	alice := seedUser(t, store, "user-1", "alice@example.com")
	boom := errors.New("boom")

	err := store.WithTransaction(ctx, func(ctx context.Context, tx persistence.Tx) error {
		if err := tx.Rooms().CreateRoom(ctx, persistence.Room{ID: "room-1", Name: "Alpha", OwnerUserID: alice.ID, OwnerEmail: alice.Email, CreatedAt: refTime}); err != nil {
			return err
		}
		if err := tx.Users().UpdateUsername(ctx, alice.ID, "alice"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = store.WithReadOnlyTransaction(ctx, func(ctx context.Context, tx persistence.Tx) error {
		rooms, err := tx.Rooms().ListRooms(ctx)
		require.NoError(t, err)
		require.Empty(t, rooms)

		user, err := tx.Users().GetUser(ctx, alice.ID)
		require.NoError(t, err)
		require.Empty(t, user.Username)
		return nil
	})
	require.NoError(t, err)
}

func testListDaysFilter(t *testing.T, store persistence.Store) {
	ctx := context.Background()
	alice := seedUser(t, store, "user-1", "alice@example.com")
	alpha := seedRoom(t, store, "room-1", "Alpha", alice)
	beta := seedRoom(t, store, "room-2", "Beta", alice)
	later := scheduler.Date{Year: 2026, Month: time.April, Day: 3}

	seedDay(t, store, "day-1", beta, later)
	seedDay(t, store, "day-2", alpha, refDate)
	seedDay(t, store, "day-3", alpha, later)

	err := store.WithReadOnlyTransaction(ctx, func(ctx context.Context, tx persistence.Tx) error {
		all, err := tx.Days().ListDays(ctx, persistence.DayFilter{})
		require.NoError(t, err)
		ids := make([]string, 0, len(all))
		for _, d := range all {
			ids = append(ids, d.ID)
		}
		require.Equal(t, []string{"day-2", "day-1", "day-3"}, ids)

		onLater, err := tx.Days().ListDays(ctx, persistence.DayFilter{Date: &later})
		require.NoError(t, err)
		require.Len(t, onLater, 2)
		require.Equal(t, "day-1", onLater[0].ID)
		require.Equal(t, "day-3", onLater[1].ID)
		return nil
	})
	require.NoError(t, err)
}
