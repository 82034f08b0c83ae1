package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/roombook/internal/application"
	"github.com/example/roombook/internal/identity"
)

var (
	errBadRequestBody = errors.New("無効なリクエスト形式です。")
	errMissingToken   = errors.New("認証トークンを指定してください。")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	return responder{logger: defaultLogger(logger)}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := localizedStatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).WarnContext(ctx, "request rejected", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

// handleServiceError translates application and identity errors into responses.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	code := errorCode(err)
	var (
		conflict *application.SlotConflictError
		vErr     *application.ValidationError
	)
	switch {
	case errors.As(err, &conflict):
		existing := conflict.Existing
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: code,
			Message: fmt.Sprintf("指定の時間帯は既存の予約「%s」(%s〜%s) と重複しています。",
				existing.EventName, existing.Start, existing.End),
			Conflict: &existing,
		})
	case errors.As(err, &vErr):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: code,
			Message:   "入力内容に誤りがあります。",
			Errors:    localizeValidationErrors(vErr),
		})
	default:
		status, message := statusFor(err)
		if status == http.StatusInternalServerError {
			r.loggerFor(ctx).ErrorContext(ctx, "request failed", "error", err, "error_kind", application.ErrorKind(err))
		}
		r.writeJSON(ctx, w, status, errorResponse{ErrorCode: code, Message: message})
	}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, identity.ErrMissingToken):
		return "MISSING_TOKEN"
	case errors.Is(err, identity.ErrExpiredToken):
		return "EXPIRED_TOKEN"
	case errors.Is(err, identity.ErrInvalidToken):
		return "INVALID_TOKEN"
	}
	return strings.ToUpper(application.ErrorKind(err))
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, application.ErrUnauthorized),
		errors.Is(err, identity.ErrMissingToken),
		errors.Is(err, identity.ErrInvalidToken):
		return http.StatusUnauthorized, "認証が必要です。"
	case errors.Is(err, identity.ErrExpiredToken):
		return http.StatusUnauthorized, "認証トークンの有効期限が切れています。再度ログインしてください。"
	case errors.Is(err, application.ErrNotOwner):
		return http.StatusForbidden, "この操作を実行する権限がありません。"
	case errors.Is(err, application.ErrRoomNotFound):
		return http.StatusNotFound, "指定された会議室は存在しません。"
	case errors.Is(err, application.ErrBookingNotFound):
		return http.StatusNotFound, "指定された予約は存在しません。"
	case errors.Is(err, application.ErrDuplicateName):
		return http.StatusConflict, "同じ名前の会議室が既に存在します。"
	case errors.Is(err, application.ErrRoomHasBookings):
		return http.StatusConflict, "予約が残っている会議室は削除できません。"
	case errors.Is(err, application.ErrUsernameTaken):
		return http.StatusConflict, "このユーザー名は既に使われています。"
	case errors.Is(err, application.ErrSlotConflict):
		return http.StatusConflict, "指定の時間帯は既存の予約と重複しています。"
	case errors.Is(err, application.ErrInvalidInterval):
		return http.StatusUnprocessableEntity, "終了時刻は開始時刻より後である必要があります。"
	case errors.Is(err, application.ErrPastDate):
		return http.StatusUnprocessableEntity, "過去の日付は予約できません。"
	case errors.Is(err, application.ErrPastTime):
		return http.StatusUnprocessableEntity, "開始時刻を過ぎた時間帯は予約できません。"
	case application.ErrorKind(err) == "contention":
		return http.StatusServiceUnavailable, "混雑しています。しばらくしてから再試行してください。"
	default:
		return http.StatusInternalServerError, localizedStatusMessage(http.StatusInternalServerError)
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func localizedStatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "リクエスト内容が正しくありません。"
	case http.StatusUnauthorized:
		return "認証が必要です。"
	case http.StatusForbidden:
		return "この操作を実行する権限がありません。"
	case http.StatusNotFound:
		return "指定されたリソースが見つかりません。"
	case http.StatusMethodNotAllowed:
		return "許可されていないメソッドです。"
	case http.StatusConflict:
		return "要求はリソースの現在の状態と競合しています。"
	case http.StatusUnprocessableEntity:
		return "入力内容に誤りがあります。"
	default:
		return "サーバー内部でエラーが発生しました。"
	}
}

func localizeValidationErrors(vErr *application.ValidationError) map[string]string {
	if vErr == nil || len(vErr.FieldErrors) == 0 {
		return nil
	}

	translated := make(map[string]string, len(vErr.FieldErrors))
	for field, msg := range vErr.FieldErrors {
		translated[field] = translateValidationMessage(msg)
	}
	return translated
}

func translateValidationMessage(message string) string {
	switch message {
	case "name is required", "room is required":
		return "会議室名は必須です。"
	case "event name is required":
		return "イベント名は必須です。"
	case "username is required":
		return "ユーザー名は必須です。"
	case "date is required":
		return "日付は必須です。"
	case "date must be YYYY-MM-DD":
		return "日付は YYYY-MM-DD 形式で指定してください。"
	case "time is required":
		return "時刻は必須です。"
	case "time must be HH:MM":
		return "時刻は HH:MM 形式で指定してください。"
	default:
		return message
	}
}

type errorResponse struct {
	ErrorCode string               `json:"error_code,omitempty"`
	Message   string               `json:"message"`
	Errors    map[string]string    `json:"errors,omitempty"`
	Conflict  *application.Booking `json:"conflict,omitempty"`
}
