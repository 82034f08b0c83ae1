package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/example/roombook/internal/application"
	"github.com/example/roombook/internal/identity"
)

type userService interface {
	GetOrCreate(ctx context.Context, id identity.Identity) (application.User, error)
	SetUsername(ctx context.Context, id identity.Identity, name string) (application.User, error)
}

// MeHandler serves the caller's own profile.
type MeHandler struct {
	service   userService
	responder responder
	logger    *slog.Logger
}

func NewMeHandler(service userService, logger *slog.Logger) *MeHandler {
	base := defaultLogger(logger)
	return &MeHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *MeHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "MeHandler", operation, attrs...)
}

func (h *MeHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	caller, _ := IdentityFromContext(r.Context())
	user, err := h.service.GetOrCreate(r.Context(), caller)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, userResponse{User: user})
}

func (h *MeHandler) UpdateUsername(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req usernameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "UpdateUsername", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode username request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	caller, _ := IdentityFromContext(r.Context())
	user, err := h.service.SetUsername(r.Context(), caller, req.Username)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, userResponse{User: user})
}

type usernameRequest struct {
	Username string `json:"username"`
}

type userResponse struct {
	User application.User `json:"user"`
}
