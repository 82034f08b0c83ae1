package http

import (
	"context"
	"log/slog"

	"github.com/example/roombook/internal/identity"
	"github.com/example/roombook/internal/logging"
)

// ContextWithLogger returns a derived context carrying the request scoped logger.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext extracts the request scoped logger if one was attached.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}

// IdentityFromContext extracts the verified caller attached by RequireIdentity.
func IdentityFromContext(ctx context.Context) (identity.Identity, bool) {
	return identity.FromContext(ctx)
}
