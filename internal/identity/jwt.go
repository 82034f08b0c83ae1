package identity

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"
)

const keyInfo = "roombook identity hs256"

// Config holds token verification settings.
type Config struct {
	Secret   string
	Issuer   string
	Audience string
	// TokenTTL is the lifetime of tokens minted by Issuer.
	TokenTTL time.Duration
}

// Claims are the token claims the service understands. The user id is read
// from user_id, falling back to sub.
type Claims struct {
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// SigningKey derives the HS256 key from secret with HKDF-SHA256.
func SigningKey(secret string) ([]byte, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("identity: secret is required")
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(keyInfo)), key); err != nil {
		return nil, fmt.Errorf("identity: derive signing key: %w", err)
	}
	return key, nil
}

// JWTVerifier validates HS256 tokens.
type JWTVerifier struct {
	key    []byte
	parser *jwt.Parser
	now    func() time.Time
}

var _ Verifier = (*JWTVerifier)(nil)

// NewJWTVerifier builds a verifier for cfg. now may be nil.
func NewJWTVerifier(cfg Config, now func() time.Time) (*JWTVerifier, error) {
	key, err := SigningKey(cfg.Secret)
	if err != nil {
		return nil, err
	}
	if now == nil {
		now = time.Now
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(now),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	return &JWTVerifier{key: key, parser: jwt.NewParser(opts...), now: now}, nil
}

// Verify implements Verifier.
func (v *JWTVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, ErrMissingToken
	}

	claims := &Claims{}
	_, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrExpiredToken
		}
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	if userID == "" {
		return Identity{}, fmt.Errorf("%w: no subject", ErrInvalidToken)
	}
	return Identity{UserID: userID, Email: claims.Email}, nil
}

// Issuer mints tokens accepted by a JWTVerifier with the same Config.
type Issuer struct {
	key    []byte
	config Config
	now    func() time.Time
}

// NewIssuer builds an Issuer. now may be nil.
func NewIssuer(cfg Config, now func() time.Time) (*Issuer, error) {
	key, err := SigningKey(cfg.Secret)
	if err != nil {
		return nil, err
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if now == nil {
		now = time.Now
	}
	return &Issuer{key: key, config: cfg, now: now}, nil
}

// Issue signs a token for id.
func (i *Issuer) Issue(id Identity) (string, error) {
	if id.IsZero() {
		return "", errors.New("identity: user id is required")
	}

	now := i.now()
	claims := Claims{
		UserID: id.UserID,
		Email:  id.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.config.Issuer,
			Subject:   id.UserID,
			ExpiresAt: jwt.NewNumericDate(now.Add(i.config.TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	if i.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{i.config.Audience}
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
}
