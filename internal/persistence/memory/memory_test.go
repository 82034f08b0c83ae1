package memory_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/require"

	"github.com/example/roombook/internal/persistence"
	"github.com/example/roombook/internal/persistence/memory"
	"github.com/example/roombook/internal/persistence/storetest"
	"github.com/example/roombook/internal/scheduler"
)

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) persistence.Store {
		return memory.New(nil)
	})
}

func TestReadOnlyTransactionRejectsWrites(t *testing.T) {
	store := memory.New(nil)
	err := store.WithReadOnlyTransaction(context.Background(), func(ctx context.Context, tx persistence.Tx) error {
		return tx.Users().CreateUser(ctx, persistence.User{ID: "user-1"})
	})
	require.Error(t, err)
}

func TestConcurrentSaveBookingsSerialises(t *testing.T) {
	ctx := context.Background()
	store := memory.New(nil)
	date := scheduler.Date{Year: 2026, Month: time.May, Day: 4}

	require.NoError(t, store.WithTransaction(ctx, func(ctx context.Context, tx persistence.Tx) error {
		if err := tx.Users().CreateUser(ctx, persistence.User{ID: "user-1", Email: "a@example.com"}); err != nil {
			return err
		}
		if err := tx.Rooms().CreateRoom(ctx, persistence.Room{ID: "room-1", Name: "Alpha", OwnerUserID: "user-1"}); err != nil {
			return err
		}
		return tx.Days().CreateDay(ctx, persistence.Day{ID: "day-1", RoomID: "room-1", RoomName: "Alpha", Date: date})
	}))

	const writers = 16
	var wg conc.WaitGroup
	for i := 0; i < writers; i++ {
		i := i
		wg.Go(func() {
			for {
				err := store.WithTransaction(ctx, func(ctx context.Context, tx persistence.Tx) error {
					day, err := tx.Days().GetDay(ctx, "day-1")
					if err != nil {
						return err
					}
					next := append(day.Bookings, persistence.Booking{
						EventName:   fmt.Sprintf("event-%d", i),
						Date:        date,
						RoomName:    "Alpha",
						Start:       scheduler.TimeOfDay(i * 30),
						End:         scheduler.TimeOfDay(i*30 + 30),
						OwnerUserID: "user-1",
					})
					_, err = tx.Days().SaveBookings(ctx, day.ID, day.Version, next)
					return err
				})
				if err == nil {
					return
				}
			}
		})
	}
	wg.Wait()

	require.NoError(t, store.WithReadOnlyTransaction(ctx, func(ctx context.Context, tx persistence.Tx) error {
		day, err := tx.Days().GetDay(ctx, "day-1")
		require.NoError(t, err)
		require.Len(t, day.Bookings, writers)
		require.Equal(t, int64(writers), day.Version)
		return nil
	}))
}
