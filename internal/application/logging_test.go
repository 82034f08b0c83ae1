package application

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/example/roombook/internal/persistence"
)

func TestDefaultLogger(t *testing.T) {
	t.Parallel()

	custom := slog.New(slog.NewTextHandler(io.Discard, nil))
	if got := defaultLogger(custom); got != custom {
		t.Fatalf("expected custom logger to be returned")
	}

	if got := defaultLogger(nil); got != slog.Default() {
		t.Fatalf("expected default logger when none provided")
	}
}

func TestErrorKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrDuplicateName, "duplicate_name"},
		{fmt.Errorf("wrapped: %w", ErrNotOwner), "not_owner"},
		{&SlotConflictError{}, "slot_conflict"},
		{ErrInvalidInterval, "invalid_interval"},
		{ErrPastTime, "past_time"},
		{&ValidationError{FieldErrors: map[string]string{"name": "required"}}, "validation"},
		{persistence.ErrStaleVersion, "contention"},
		{context.Canceled, "canceled"},
		{io.ErrUnexpectedEOF, "unexpected"},
	}
	for _, tc := range tests {
		if got := ErrorKind(tc.err); got != tc.want {
			t.Fatalf("ErrorKind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
