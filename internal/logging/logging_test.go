package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestContextLogger(t *testing.T) {
	ctx := context.Background()
	if FromContext(ctx) != nil {
		t.Fatal("expected no logger on a bare context")
	}

	logger := slog.Default()
	if got := FromContext(ContextWithLogger(ctx, logger)); got != logger {
		t.Fatalf("FromContext returned %p, want %p", got, logger)
	}
	if got := ContextWithLogger(ctx, nil); got != ctx {
		t.Fatal("nil logger should leave the context untouched")
	}
}

func TestNewLoggerWritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "roombook.log")

	logger, closer := NewLogger(Options{Level: slog.LevelWarn, File: path, MaxSizeMB: 1, MaxBackups: 1})
	logger.Info("dropped below level")
	logger.Warn("kept", "room", "Orion")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one log line, got %d: %q", len(lines), data)
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["msg"] != "kept" || entry["room"] != "Orion" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestNewLoggerDefaultsToStdout(t *testing.T) {
	logger, closer := NewLogger(Options{})
	if logger == nil {
		t.Fatal("expected a logger")
	}
	if err := closer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}
