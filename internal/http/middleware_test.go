package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/example/roombook/internal/identity"
)

func TestRequireIdentity(t *testing.T) {
	t.Parallel()

	caller := identity.Identity{UserID: "u-1", Email: "u1@example.com"}
	verifier := identity.VerifierFunc(func(_ context.Context, token string) (identity.Identity, error) {
		switch token {
		case "good":
			return caller, nil
		case "expired":
			return identity.Identity{}, identity.ErrExpiredToken
		case "anonymous":
			return identity.Identity{}, nil
		default:
			return identity.Identity{}, identity.ErrInvalidToken
		}
	})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name       string
		header     string
		cookie     *http.Cookie
		wantStatus int
		wantCode   string
	}{
		{name: "missing credentials", wantStatus: http.StatusUnauthorized, wantCode: "MISSING_TOKEN"},
		{name: "non bearer header", header: "Basic Zm9vOmJhcg==", wantStatus: http.StatusUnauthorized, wantCode: "MISSING_TOKEN"},
		{name: "invalid bearer token", header: "Bearer forged", wantStatus: http.StatusUnauthorized, wantCode: "INVALID_TOKEN"},
		{name: "expired token", header: "Bearer expired", wantStatus: http.StatusUnauthorized, wantCode: "EXPIRED_TOKEN"},
		{name: "token without subject", header: "Bearer anonymous", wantStatus: http.StatusUnauthorized, wantCode: "INVALID_TOKEN"},
		{name: "bearer header", header: "Bearer good", wantStatus: http.StatusOK},
		{name: "lowercase scheme", header: "bearer good", wantStatus: http.StatusOK},
		{name: "token cookie", cookie: &http.Cookie{Name: TokenCookieName, Value: "good"}, wantStatus: http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var seen identity.Identity
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = IdentityFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})
			handler := RequireIdentity(verifier, logger)(next)

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			if tc.cookie != nil {
				req.AddCookie(tc.cookie)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tc.wantStatus, rec.Body.String())
			}
			if tc.wantStatus == http.StatusOK {
				if seen != caller {
					t.Fatalf("identity in context = %+v, want %+v", seen, caller)
				}
				return
			}
			if got := decode[errorResponse](t, rec).ErrorCode; got != tc.wantCode {
				t.Fatalf("error_code = %q, want %q", got, tc.wantCode)
			}
		})
	}
}

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	var attached bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attached = LoggerFromContext(r.Context()) != nil
		w.WriteHeader(http.StatusTeapot)
	})
	handler := RequestLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))(next)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/anything", nil))

	if !attached {
		t.Fatal("expected a request scoped logger in context")
	}
	if rec.Code != http.StatusTeapot {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusTeapot)
	}
	if _, err := uuid.Parse(rec.Header().Get(RequestIDHeader)); err != nil {
		t.Fatalf("request id header is not a uuid: %v", err)
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	verifier := identity.VerifierFunc(func(context.Context, string) (identity.Identity, error) {
		t.Error("healthz must not verify tokens")
		return identity.Identity{}, identity.ErrInvalidToken
	})
	router := NewRouter(RouterConfig{Verifier: verifier, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
