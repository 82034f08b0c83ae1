package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/roombook/internal/application"
	"github.com/example/roombook/internal/identity"
	"github.com/example/roombook/internal/testfixtures"
)

func TestUserDirectory_GetOrCreate(t *testing.T) {
	svc := testfixtures.NewServices()
	id := testfixtures.NewIdentity("alice")

	first, err := svc.Users.GetOrCreate(context.Background(), id)
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if first.ID != id.UserID || first.Email != id.Email || first.Username != "" {
		t.Fatalf("unexpected user %+v", first)
	}

	svc.Clock.Advance(time.Hour)
	second, err := svc.Users.GetOrCreate(context.Background(), id)
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("expected the existing record, got created_at %v vs %v", second.CreatedAt, first.CreatedAt)
	}

	if _, err := svc.Users.GetOrCreate(context.Background(), identity.Identity{}); !errors.Is(err, application.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestUserDirectory_SetUsername(t *testing.T) {
	t.Run("sets a trimmed name", func(t *testing.T) {
		svc := testfixtures.NewServices()
		user, err := svc.Users.SetUsername(context.Background(), testfixtures.NewIdentity("alice"), "  ally ")
		if err != nil {
			t.Fatalf("SetUsername failed: %v", err)
		}
		if user.Username != "ally" {
			t.Fatalf("expected ally, got %q", user.Username)
		}
	})

	t.Run("blank name is a validation error", func(t *testing.T) {
		svc := testfixtures.NewServices()
		_, err := svc.Users.SetUsername(context.Background(), testfixtures.NewIdentity("alice"), " ")

		var vErr *application.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["username"]; !ok {
			t.Fatalf("expected username error, got %v", vErr.FieldErrors)
		}
	})

	t.Run("name held by another user is rejected", func(t *testing.T) {
		svc := testfixtures.NewServices()
		alice := testfixtures.NewIdentity("alice")
		bob := testfixtures.NewIdentity("bob")
		if _, err := svc.Users.SetUsername(context.Background(), alice, "captain"); err != nil {
			t.Fatalf("SetUsername failed: %v", err)
		}

		if _, err := svc.Users.SetUsername(context.Background(), bob, "captain"); !errors.Is(err, application.ErrUsernameTaken) {
			t.Fatalf("expected ErrUsernameTaken, got %v", err)
		}
		user, err := svc.Users.GetOrCreate(context.Background(), bob)
		if err != nil {
			t.Fatalf("GetOrCreate failed: %v", err)
		}
		if user.Username != "" {
			t.Fatalf("expected bob's username to stay empty, got %q", user.Username)
		}
	})

	t.Run("re-applying the current name succeeds", func(t *testing.T) {
		svc := testfixtures.NewServices()
		alice := testfixtures.NewIdentity("alice")
		if _, err := svc.Users.SetUsername(context.Background(), alice, "captain"); err != nil {
			t.Fatalf("SetUsername failed: %v", err)
		}
		if _, err := svc.Users.SetUsername(context.Background(), alice, "captain"); err != nil {
			t.Fatalf("expected idempotent rename, got %v", err)
		}
	})

	t.Run("renaming releases the old name", func(t *testing.T) {
		svc := testfixtures.NewServices()
		alice := testfixtures.NewIdentity("alice")
		bob := testfixtures.NewIdentity("bob")
		if _, err := svc.Users.SetUsername(context.Background(), alice, "captain"); err != nil {
			t.Fatalf("SetUsername failed: %v", err)
		}
		if _, err := svc.Users.SetUsername(context.Background(), alice, "admiral"); err != nil {
			t.Fatalf("SetUsername failed: %v", err)
		}
		if _, err := svc.Users.SetUsername(context.Background(), bob, "captain"); err != nil {
			t.Fatalf("expected released name to be available, got %v", err)
		}
	})
}
