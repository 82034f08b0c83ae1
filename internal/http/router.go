package http

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/example/roombook/internal/identity"
)

type RouterConfig struct {
	Me         *MeHandler
	Rooms      *RoomHandler
	Bookings   *BookingHandler
	Verifier   identity.Verifier
	Logger     *slog.Logger
	Middleware []func(http.Handler) http.Handler
}

// NewRouter wires every endpoint. Everything except /healthz requires a
// verified identity.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := defaultLogger(cfg.Logger)
	responder := newResponder(logger)

	r := mux.NewRouter()
	r.Use(mux.MiddlewareFunc(RequestLogger(logger)))
	for _, mw := range cfg.Middleware {
		r.Use(mux.MiddlewareFunc(mw))
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		responder.writeError(req.Context(), w, http.StatusNotFound, nil)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		responder.writeError(req.Context(), w, http.StatusMethodNotAllowed, nil)
	})

	r.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		responder.writeJSON(req.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	api := r.NewRoute().Subrouter()
	if cfg.Verifier != nil {
		api.Use(mux.MiddlewareFunc(RequireIdentity(cfg.Verifier, logger)))
	}

	if cfg.Me != nil {
		api.HandleFunc("/me", cfg.Me.Get).Methods(http.MethodGet)
		api.HandleFunc("/me/username", cfg.Me.UpdateUsername).Methods(http.MethodPut)
	}

	if cfg.Rooms != nil {
		api.HandleFunc("/rooms", cfg.Rooms.List).Methods(http.MethodGet)
		api.HandleFunc("/rooms", cfg.Rooms.Create).Methods(http.MethodPost)
		api.HandleFunc("/rooms/{name}", cfg.Rooms.View).Methods(http.MethodGet)
		api.HandleFunc("/rooms/{name}", cfg.Rooms.Delete).Methods(http.MethodDelete)
	}

	if cfg.Bookings != nil {
		api.HandleFunc("/bookings/lookup", cfg.Bookings.Lookup).Methods(http.MethodGet)
		api.HandleFunc("/bookings", cfg.Bookings.List).Methods(http.MethodGet)
		api.HandleFunc("/bookings", cfg.Bookings.Create).Methods(http.MethodPost)
		api.HandleFunc("/bookings", cfg.Bookings.Update).Methods(http.MethodPut)
		api.HandleFunc("/bookings", cfg.Bookings.Delete).Methods(http.MethodDelete)
	}

	return r
}
