package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func testConfig() Config {
	return Config{Secret: "s3cret", Issuer: "roombook", TokenTTL: time.Hour}
}

func fixedNow() time.Time {
	return time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)
}

func TestIssueAndVerify(t *testing.T) {
	issuer, err := NewIssuer(testConfig(), fixedNow)
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	verifier, err := NewJWTVerifier(testConfig(), fixedNow)
	if err != nil {
		t.Fatalf("NewJWTVerifier: %v", err)
	}

	token, err := issuer.Issue(Identity{UserID: "user-1", Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	got, err := verifier.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got.UserID != "user-1" || got.Email != "alice@example.com" {
		t.Fatalf("unexpected identity %+v", got)
	}
}

func TestVerifyRejects(t *testing.T) {
	issuer, err := NewIssuer(testConfig(), fixedNow)
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	token, err := issuer.Issue(Identity{UserID: "user-1"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	t.Run("missing token", func(t *testing.T) {
		verifier, _ := NewJWTVerifier(testConfig(), fixedNow)
		if _, err := verifier.Verify(context.Background(), "  "); !errors.Is(err, ErrMissingToken) {
			t.Fatalf("expected ErrMissingToken, got %v", err)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		later := func() time.Time { return fixedNow().Add(2 * time.Hour) }
		verifier, _ := NewJWTVerifier(testConfig(), later)
		if _, err := verifier.Verify(context.Background(), token); !errors.Is(err, ErrExpiredToken) {
			t.Fatalf("expected ErrExpiredToken, got %v", err)
		}
	})

	t.Run("different secret", func(t *testing.T) {
		cfg := testConfig()
		cfg.Secret = "other"
		verifier, _ := NewJWTVerifier(cfg, fixedNow)
		if _, err := verifier.Verify(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("different issuer", func(t *testing.T) {
		cfg := testConfig()
		cfg.Issuer = "someone-else"
		verifier, _ := NewJWTVerifier(cfg, fixedNow)
		if _, err := verifier.Verify(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("audience required when configured", func(t *testing.T) {
		cfg := testConfig()
		cfg.Audience = "roombook-api"
		verifier, _ := NewJWTVerifier(cfg, fixedNow)
		if _, err := verifier.Verify(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("unsigned token", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "user-1"}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		verifier, _ := NewJWTVerifier(testConfig(), fixedNow)
		if _, err := verifier.Verify(context.Background(), unsigned); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})
}

func TestVerifyFallsBackToSubject(t *testing.T) {
	key, err := SigningKey("s3cret")
	if err != nil {
		t.Fatalf("SigningKey: %v", err)
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "external-42",
		"email": "bob@example.com",
		"iss":   "roombook",
		"exp":   fixedNow().Add(time.Minute).Unix(),
	}).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	verifier, _ := NewJWTVerifier(testConfig(), fixedNow)
	got, err := verifier.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got.UserID != "external-42" || got.Email != "bob@example.com" {
		t.Fatalf("unexpected identity %+v", got)
	}
}

func TestSigningKeyIsDeterministic(t *testing.T) {
	a, err := SigningKey("s3cret")
	if err != nil {
		t.Fatalf("SigningKey: %v", err)
	}
	b, _ := SigningKey("s3cret")
	c, _ := SigningKey("other")
	if string(a) != string(b) {
		t.Fatalf("expected same key for same secret")
	}
	if string(a) == string(c) {
		t.Fatalf("expected different keys for different secrets")
	}
	if _, err := SigningKey(" "); err == nil {
		t.Fatalf("expected error for blank secret")
	}
}

func TestContextIdentity(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Fatalf("expected no identity on empty context")
	}
	ctx := ContextWithIdentity(context.Background(), Identity{UserID: "user-1"})
	id, ok := FromContext(ctx)
	if !ok || id.UserID != "user-1" {
		t.Fatalf("unexpected identity %+v ok=%v", id, ok)
	}
}
