package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/google/uuid"

	"github.com/example/roombook/internal/application"
	"github.com/example/roombook/internal/config"
	httptransport "github.com/example/roombook/internal/http"
	"github.com/example/roombook/internal/identity"
	"github.com/example/roombook/internal/logging"
	"github.com/example/roombook/internal/persistence/sqlite"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	if len(args) > 0 && args[0] == "token" {
		return mintToken(cfg, args[1:], stdout, stderr)
	}
	return serve(cfg)
}

// mintToken prints a signed identity token, for local development against
// the verifier configured by cfg.
func mintToken(cfg config.Config, args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("token", flag.ContinueOnError)
	flags.SetOutput(stderr)
	userID := flags.String("user", "", "user id carried by the token")
	email := flags.String("email", "", "email carried by the token")
	ttl := flags.Duration("ttl", 24*time.Hour, "token lifetime")
	if err := flags.Parse(args); err != nil {
		return 2
	}
	if *userID == "" {
		fmt.Fprintln(stderr, "token: -user is required")
		return 2
	}

	issuer, err := identity.NewIssuer(identityConfig(cfg, *ttl), nil)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	token, err := issuer.Issue(identity.Identity{UserID: *userID, Email: *email})
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	fmt.Fprintln(stdout, token)
	return 0
}

func serve(cfg config.Config) int {
	logger, logCloser := logging.NewLogger(logging.Options{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
	})
	defer logCloser.Close()

	app, err := newApp(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		return 1
	}

	go func() {
		logger.Info("roombook API listening", "addr", app.server.Addr)
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server encountered error", "error", err)
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"roombook": func(ctx context.Context) error {
				logger.Info("graceful shutdown initiated")
				return app.shutdown(ctx)
			},
		},
	)

	exitCode := <-wait
	logger.Info("roombook exited", "code", exitCode)
	return exitCode
}

// app holds the long lived components of a running process.
type app struct {
	server *http.Server
	store  *sqlite.Store
	logger *slog.Logger
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	store, err := sqlite.Open(ctx, sqlite.DefaultConfig(cfg.SQLiteDSN), logger)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	location := cfg.Location
	if location == nil {
		location = time.Local
	}
	now := func() time.Time { return time.Now().In(location) }

	verifier, err := identity.NewJWTVerifier(identityConfig(cfg, 0), now)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("configure identity verifier: %w", err)
	}

	policy := application.DefaultRetryPolicy()
	if cfg.TxRetryAttempts > 0 {
		policy.Attempts = cfg.TxRetryAttempts
	}

	users := application.NewUserDirectoryWithLogger(store, now, policy, logger)
	rooms := application.NewRoomRegistryWithLogger(store, uuid.NewString, now, policy, logger)
	bookings := application.NewBookingServiceWithLogger(store, uuid.NewString, now, policy, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Me:       httptransport.NewMeHandler(users, logger),
		Rooms:    httptransport.NewRoomHandler(rooms, logger),
		Bookings: httptransport.NewBookingHandler(bookings, logger),
		Verifier: verifier,
		Logger:   logger,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &app{server: server, store: store, logger: logger}, nil
}

// shutdown drains in-flight requests before releasing the database.
func (a *app) shutdown(ctx context.Context) error {
	var errs []error
	if err := a.server.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		errs = append(errs, fmt.Errorf("shutdown server: %w", err))
	}
	if err := a.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close storage: %w", err))
	}
	return errors.Join(errs...)
}

func identityConfig(cfg config.Config, ttl time.Duration) identity.Config {
	return identity.Config{
		Secret:   cfg.IdentitySecret,
		Issuer:   cfg.IdentityIssuer,
		Audience: cfg.IdentityAudience,
		TokenTTL: ttl,
	}
}
