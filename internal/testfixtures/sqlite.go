package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/example/roombook/internal/persistence/sqlite"
)

// NewSQLiteStore opens a migrated store on a temporary file. The store is
// closed when the test finishes.
func NewSQLiteStore(tb testing.TB) *sqlite.Store {
	tb.Helper()

	dsn := "file:" + filepath.Join(tb.TempDir(), "roombook.db")
	store, err := sqlite.Open(context.Background(), sqlite.DefaultConfig(dsn), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		tb.Fatalf("failed to open sqlite store: %v", err)
	}
	tb.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
