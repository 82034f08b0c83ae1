package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/example/roombook/internal/application"
	"github.com/example/roombook/internal/identity"
	"github.com/example/roombook/internal/testfixtures"
)

func TestRoomRegistry_CreateRoom(t *testing.T) {
	t.Run("trims the name and records ownership", func(t *testing.T) {
		svc := testfixtures.NewServices()
		owner := testfixtures.NewIdentity("alice")

		room, err := svc.Rooms.CreateRoom(context.Background(), owner, "  Orion  ")
		if err != nil {
			t.Fatalf("CreateRoom failed: %v", err)
		}
		if room.Name != "Orion" || room.OwnerEmail != owner.Email || room.OwnerUserID != owner.UserID {
			t.Fatalf("unexpected room %+v", room)
		}
		if room.CreatedDate != svc.Clock.Today() {
			t.Fatalf("expected created date %s, got %s", svc.Clock.Today(), room.CreatedDate)
		}

		user, err := svc.Users.GetOrCreate(context.Background(), owner)
		if err != nil {
			t.Fatalf("GetOrCreate failed: %v", err)
		}
		if len(user.OwnedRoomIDs) != 1 || user.OwnedRoomIDs[0] != room.ID {
			t.Fatalf("expected owned rooms [%s], got %v", room.ID, user.OwnedRoomIDs)
		}
	})

	t.Run("names are unique across owners", func(t *testing.T) {
		svc := testfixtures.NewServices()
		if _, err := svc.Rooms.CreateRoom(context.Background(), testfixtures.NewIdentity("alice"), "Orion"); err != nil {
			t.Fatalf("CreateRoom failed: %v", err)
		}
		_, err := svc.Rooms.CreateRoom(context.Background(), testfixtures.NewIdentity("bob"), " Orion")
		if !errors.Is(err, application.ErrDuplicateName) {
			t.Fatalf("expected ErrDuplicateName, got %v", err)
		}
	})

	t.Run("blank name is a validation error", func(t *testing.T) {
		svc := testfixtures.NewServices()
		_, err := svc.Rooms.CreateRoom(context.Background(), testfixtures.NewIdentity("alice"), "   ")

		var vErr *application.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["name"]; !ok {
			t.Fatalf("expected name validation error, got %v", vErr.FieldErrors)
		}
	})

	t.Run("requires an identity", func(t *testing.T) {
		svc := testfixtures.NewServices()
		if _, err := svc.Rooms.CreateRoom(context.Background(), identity.Identity{}, "Orion"); !errors.Is(err, application.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestRoomRegistry_DeleteRoom(t *testing.T) {
	t.Run("unknown room", func(t *testing.T) {
		svc := testfixtures.NewServices()
		if err := svc.Rooms.DeleteRoom(context.Background(), testfixtures.NewIdentity("alice"), "Orion"); !errors.Is(err, application.ErrRoomNotFound) {
			t.Fatalf("expected ErrRoomNotFound, got %v", err)
		}
	})

	t.Run("only the owner may delete", func(t *testing.T) {
		env := newBookingEnv(t)
		if err := env.svc.Rooms.DeleteRoom(context.Background(), env.other, "Orion"); !errors.Is(err, application.ErrNotOwner) {
			t.Fatalf("expected ErrNotOwner, got %v", err)
		}
	})

	t.Run("rooms with bookings are kept intact", func(t *testing.T) {
		env := newBookingEnv(t)
		req := testfixtures.NewBookingRequest("Orion", env.svc.Clock.DaysFromToday(1))
		env.book(t, env.other, req)

		if err := env.svc.Rooms.DeleteRoom(context.Background(), env.owner, "Orion"); !errors.Is(err, application.ErrRoomHasBookings) {
			t.Fatalf("expected ErrRoomHasBookings, got %v", err)
		}
		if _, err := env.svc.Bookings.GetBooking(context.Background(), testfixtures.KeyOf(req)); err != nil {
			t.Fatalf("expected booking to survive, got %v", err)
		}
	})

	t.Run("emptied days do not block deletion", func(t *testing.T) {
		env := newBookingEnv(t)
		req := testfixtures.NewBookingRequest("Orion", env.svc.Clock.DaysFromToday(1))
		env.book(t, env.owner, req)
		if _, err := env.svc.Bookings.DeleteBooking(context.Background(), testfixtures.KeyOf(req), env.owner); err != nil {
			t.Fatalf("DeleteBooking failed: %v", err)
		}

		if err := env.svc.Rooms.DeleteRoom(context.Background(), env.owner, "Orion"); err != nil {
			t.Fatalf("DeleteRoom failed: %v", err)
		}
		if _, err := env.svc.Rooms.ViewRoom(context.Background(), "Orion"); !errors.Is(err, application.ErrRoomNotFound) {
			t.Fatalf("expected ErrRoomNotFound after delete, got %v", err)
		}
		user, err := env.svc.Users.GetOrCreate(context.Background(), env.owner)
		if err != nil {
			t.Fatalf("GetOrCreate failed: %v", err)
		}
		if len(user.OwnedRoomIDs) != 0 {
			t.Fatalf("expected no owned rooms, got %v", user.OwnedRoomIDs)
		}

		// The name is free again.
		if _, err := env.svc.Rooms.CreateRoom(context.Background(), env.other, "Orion"); err != nil {
			t.Fatalf("CreateRoom after delete failed: %v", err)
		}
	})
}

func TestRoomRegistry_ListRooms(t *testing.T) {
	svc := testfixtures.NewServices()
	owner := testfixtures.NewIdentity("alice")
	seq := svc.Rooms.ListRooms(context.Background())

	for _, name := range []string{"Vega", "Altair", "Orion"} {
		if _, err := svc.Rooms.CreateRoom(context.Background(), owner, name); err != nil {
			t.Fatalf("CreateRoom failed: %v", err)
		}
	}

	rooms, err := application.Collect(seq)
	if err != nil {
		t.Fatalf("ListRooms failed: %v", err)
	}
	got := make([]string, 0, len(rooms))
	for _, r := range rooms {
		got = append(got, r.Name)
	}
	if want := []string{"Altair", "Orion", "Vega"}; !equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestRoomRegistry_ViewRoom(t *testing.T) {
	env := newBookingEnv(t)
	day1 := env.svc.Clock.DaysFromToday(1)
	day2 := env.svc.Clock.DaysFromToday(2)

	env.book(t, env.owner, testfixtures.NewBookingRequest("Orion", day2, testfixtures.WithEventName("later")))
	emptied := testfixtures.NewBookingRequest("Orion", env.svc.Clock.DaysFromToday(3))
	env.book(t, env.owner, emptied)
	env.book(t, env.owner, testfixtures.NewBookingRequest("Orion", day1, testfixtures.WithSlot("14:00", "15:00"), testfixtures.WithEventName("second")))
	env.book(t, env.other, testfixtures.NewBookingRequest("Orion", day1, testfixtures.WithSlot("08:00", "09:00"), testfixtures.WithEventName("third")))
	if _, err := env.svc.Bookings.DeleteBooking(context.Background(), testfixtures.KeyOf(emptied), env.owner); err != nil {
		t.Fatalf("DeleteBooking failed: %v", err)
	}

	schedule, err := env.svc.Rooms.ViewRoom(context.Background(), "Orion")
	if err != nil {
		t.Fatalf("ViewRoom failed: %v", err)
	}
	if schedule.Room.Name != "Orion" {
		t.Fatalf("unexpected room %+v", schedule.Room)
	}
	if len(schedule.Days) != 2 {
		t.Fatalf("expected 2 booked days, got %+v", schedule.Days)
	}
	if schedule.Days[0].Date != day2 || schedule.Days[1].Date != day1 {
		t.Fatalf("expected days in creation order, got %s then %s", schedule.Days[0].Date, schedule.Days[1].Date)
	}
	if len(schedule.Days[1].Bookings) != 2 || schedule.Days[1].Bookings[0].EventName != "second" {
		t.Fatalf("expected bookings in ledger order, got %+v", schedule.Days[1].Bookings)
	}

	if _, err := env.svc.Rooms.ViewRoom(context.Background(), "Nowhere"); !errors.Is(err, application.ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
}
