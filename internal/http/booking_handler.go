package http

import (
	"context"
	"encoding/json"
	"iter"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/example/roombook/internal/application"
	"github.com/example/roombook/internal/identity"
	"github.com/example/roombook/internal/scheduler"
)

type bookingService interface {
	Book(ctx context.Context, req application.BookingRequest, user identity.Identity) (application.Booking, error)
	EditBooking(ctx context.Context, original application.BookingKey, replacement application.BookingRequest, user identity.Identity) (application.Booking, error)
	DeleteBooking(ctx context.Context, key application.BookingKey, user identity.Identity) (bool, error)
	GetBooking(ctx context.Context, key application.BookingKey) (application.Booking, error)
	BookingsFiltered(ctx context.Context, filter application.BookingFilter, user identity.Identity) iter.Seq2[application.Booking, error]
}

type BookingHandler struct {
	service   bookingService
	responder responder
	logger    *slog.Logger
}

func NewBookingHandler(service bookingService, logger *slog.Logger) *BookingHandler {
	base := defaultLogger(logger)
	return &BookingHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *BookingHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "BookingHandler", operation, attrs...)
}

// List returns the caller's bookings, optionally narrowed by ?date= and ?room=.
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	filter := application.BookingFilter{Room: strings.TrimSpace(query.Get("room"))}
	if raw := strings.TrimSpace(query.Get("date")); raw != "" {
		date, err := scheduler.ParseDate(raw)
		if err != nil {
			h.responder.handleServiceError(r.Context(), w, fieldError("date", "date must be YYYY-MM-DD"))
			return
		}
		filter.Date = &date
	}

	caller, _ := IdentityFromContext(r.Context())
	bookings, err := application.Collect(h.service.BookingsFiltered(r.Context(), filter, caller))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookingListResponse{Bookings: bookings})
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req application.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode booking request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	caller, _ := IdentityFromContext(r.Context())
	booking, err := h.service.Book(r.Context(), req, caller)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, bookingResponse{Booking: booking})
}

// Update replaces the booking identified by "original" with "replacement".
func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req editRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode edit request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	caller, _ := IdentityFromContext(r.Context())
	booking, err := h.service.EditBooking(r.Context(), req.Original, req.Replacement, caller)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookingResponse{Booking: booking})
}

// Delete removes the booking named by the query. A missing booking is not an error.
func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	key, err := bookingKeyFromQuery(r.URL.Query())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	caller, _ := IdentityFromContext(r.Context())
	removed, err := h.service.DeleteBooking(r.Context(), key, caller)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, deleteResponse{Removed: removed})
}

// Lookup fetches a single booking, typically to prefill an edit form.
func (h *BookingHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	key, err := bookingKeyFromQuery(r.URL.Query())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	booking, err := h.service.GetBooking(r.Context(), key)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookingResponse{Booking: booking})
}

func bookingKeyFromQuery(query url.Values) (application.BookingKey, error) {
	var (
		key  application.BookingKey
		errs = map[string]string{}
	)

	key.Room = strings.TrimSpace(query.Get("room"))
	if key.Room == "" {
		errs["room"] = "room is required"
	}

	if raw := strings.TrimSpace(query.Get("date")); raw == "" {
		errs["date"] = "date is required"
	} else if date, err := scheduler.ParseDate(raw); err != nil {
		errs["date"] = "date must be YYYY-MM-DD"
	} else {
		key.Date = date
	}

	for field, dst := range map[string]*scheduler.TimeOfDay{"start": &key.Start, "end": &key.End} {
		raw := strings.TrimSpace(query.Get(field))
		if raw == "" {
			errs[field] = "time is required"
			continue
		}
		value, err := scheduler.ParseTimeOfDay(raw)
		if err != nil {
			errs[field] = "time must be HH:MM"
			continue
		}
		*dst = value
	}

	if len(errs) > 0 {
		return application.BookingKey{}, &application.ValidationError{FieldErrors: errs}
	}
	return key, nil
}

func fieldError(field, message string) error {
	return &application.ValidationError{FieldErrors: map[string]string{field: message}}
}

type editRequest struct {
	Original    application.BookingKey     `json:"original"`
	Replacement application.BookingRequest `json:"replacement"`
}

type bookingResponse struct {
	Booking application.Booking `json:"booking"`
}

type bookingListResponse struct {
	Bookings []application.Booking `json:"bookings"`
}

type deleteResponse struct {
	Removed bool `json:"removed"`
}
