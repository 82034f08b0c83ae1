package application_test

import (
	"context"
	"testing"

	"github.com/example/roombook/internal/application"
	"github.com/example/roombook/internal/identity"
	"github.com/example/roombook/internal/testfixtures"
)

func TestBookingService_Queries(t *testing.T) {
	env := newBookingEnv(t, "Orion", "Vega")
	day1 := env.svc.Clock.DaysFromToday(1)
	day2 := env.svc.Clock.DaysFromToday(2)

	env.book(t, env.owner, testfixtures.NewBookingRequest("Vega", day2, testfixtures.WithEventName("c")))
	env.book(t, env.owner, testfixtures.NewBookingRequest("Orion", day1, testfixtures.WithEventName("a")))
	env.book(t, env.other, testfixtures.NewBookingRequest("Orion", day1, testfixtures.WithSlot("12:00", "13:00"), testfixtures.WithEventName("theirs")))
	env.book(t, env.owner, testfixtures.NewBookingRequest("Vega", day1, testfixtures.WithEventName("b")))

	names := func(t *testing.T, bookings []application.Booking) []string {
		t.Helper()
		out := make([]string, 0, len(bookings))
		for _, b := range bookings {
			out = append(out, b.EventName)
		}
		return out
	}

	t.Run("all of the user's bookings", func(t *testing.T) {
		got, err := application.Collect(env.svc.Bookings.BookingsForUser(context.Background(), env.owner))
		if err != nil {
			t.Fatalf("BookingsForUser failed: %v", err)
		}
		if want := []string{"a", "b", "c"}; !equal(names(t, got), want) {
			t.Fatalf("expected %v, got %v", want, names(t, got))
		}
	})

	t.Run("by date", func(t *testing.T) {
		got, err := application.Collect(env.svc.Bookings.BookingsFiltered(context.Background(), application.BookingFilter{Date: &day1}, env.owner))
		if err != nil {
			t.Fatalf("BookingsFiltered failed: %v", err)
		}
		if want := []string{"a", "b"}; !equal(names(t, got), want) {
			t.Fatalf("expected %v, got %v", want, names(t, got))
		}
	})

	t.Run("by room", func(t *testing.T) {
		got, err := application.Collect(env.svc.Bookings.BookingsFiltered(context.Background(), application.BookingFilter{Room: "Vega"}, env.owner))
		if err != nil {
			t.Fatalf("BookingsFiltered failed: %v", err)
		}
		if want := []string{"b", "c"}; !equal(names(t, got), want) {
			t.Fatalf("expected %v, got %v", want, names(t, got))
		}
	})

	t.Run("by date and room", func(t *testing.T) {
		got, err := application.Collect(env.svc.Bookings.BookingsFiltered(context.Background(), application.BookingFilter{Date: &day1, Room: "Orion"}, env.other))
		if err != nil {
			t.Fatalf("BookingsFiltered failed: %v", err)
		}
		if want := []string{"theirs"}; !equal(names(t, got), want) {
			t.Fatalf("expected %v, got %v", want, names(t, got))
		}
	})

	t.Run("sequence is evaluated lazily", func(t *testing.T) {
		seq := env.svc.Bookings.BookingsForUser(context.Background(), env.other)
		env.book(t, env.other, testfixtures.NewBookingRequest("Vega", day2, testfixtures.WithSlot("15:00", "16:00"), testfixtures.WithEventName("late")))

		got, err := application.Collect(seq)
		if err != nil {
			t.Fatalf("Collect failed: %v", err)
		}
		if want := []string{"theirs", "late"}; !equal(names(t, got), want) {
			t.Fatalf("expected %v, got %v", want, names(t, got))
		}
	})

	t.Run("early break stops iteration", func(t *testing.T) {
		count := 0
		for _, err := range env.svc.Bookings.BookingsForUser(context.Background(), env.owner) {
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			count++
			break
		}
		if count != 1 {
			t.Fatalf("expected a single item, got %d", count)
		}
	})

	t.Run("requires an identity", func(t *testing.T) {
		_, err := application.Collect(env.svc.Bookings.BookingsForUser(context.Background(), identity.Identity{}))
		if err == nil {
			t.Fatalf("expected error for anonymous caller")
		}
	})
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
