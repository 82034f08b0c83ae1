package logging

import (
	"context"
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

type contextKey struct{}

// ContextWithLogger returns a derived context that carries the provided logger.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext extracts a logger previously attached to the context.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return nil
	}
	logger, _ := ctx.Value(contextKey{}).(*slog.Logger)
	return logger
}

// Options configures NewLogger.
type Options struct {
	Level slog.Level
	// File switches output from stdout to a size-rotated file.
	File       string
	MaxSizeMB  int
	MaxBackups int
}

// NewLogger builds the process logger. The returned closer releases the log
// file, if any.
func NewLogger(opts Options) (*slog.Logger, io.Closer) {
	var (
		out    io.Writer = os.Stdout
		closer io.Closer = nopCloser{}
	)
	if opts.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			Compress:   true,
		}
		out, closer = rotator, rotator
	}
	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: opts.Level})), closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
