package testfixtures

import (
	"io"
	"log/slog"
	"time"

	"github.com/example/roombook/internal/application"
	"github.com/example/roombook/internal/persistence"
	"github.com/example/roombook/internal/persistence/memory"
)

// Services bundles the application services over one shared store.
type Services struct {
	Store    persistence.Store
	Clock    *Clock
	IDs      *IDGenerator
	Users    *application.UserDirectory
	Rooms    *application.RoomRegistry
	Bookings *application.BookingService
}

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Store       persistence.Store
	Logger      *slog.Logger
	Retry       application.RetryPolicy
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		Retry:       application.RetryPolicy{Attempts: 20, Delay: time.Millisecond, MaxDelay: 5 * time.Millisecond},
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	if factory.Store == nil {
		factory.Store = memory.New(factory.Clock.NowFunc())
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// WithStore replaces the default in-memory store.
func WithStore(store persistence.Store) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Store = store
	}
}

// WithLogger replaces the discarding logger.
func WithLogger(logger *slog.Logger) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Logger = logger
	}
}

// Build wires the application services.
func (f *ServiceFactory) Build() *Services {
	now := f.Clock.NowFunc()
	ids := f.IDGenerator.NextFunc()
	return &Services{
		Store:    f.Store,
		Clock:    f.Clock,
		IDs:      f.IDGenerator,
		Users:    application.NewUserDirectoryWithLogger(f.Store, now, f.Retry, f.Logger),
		Rooms:    application.NewRoomRegistryWithLogger(f.Store, ids, now, f.Retry, f.Logger),
		Bookings: application.NewBookingServiceWithLogger(f.Store, ids, now, f.Retry, f.Logger),
	}
}

// NewServices is shorthand for NewServiceFactory(opts...).Build().
func NewServices(opts ...ServiceFactoryOption) *Services {
	return NewServiceFactory(opts...).Build()
}
