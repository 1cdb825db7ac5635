package auth

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type JWTManager struct {
	secret    []byte
	issuer    string
	accessTTL time.Duration
	now       func() time.Time
}

type tokenClaims struct {
	SessionID int64 `json:"session_id"`
	jwt.RegisteredClaims
}

type Claims struct {
	UserID    int64
	SessionID int64
	IssuedAt  time.Time
	ExpiresAt time.Time
}

func NewJWTManager(secret, issuer string, accessTTL time.Duration) *JWTManager {
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}

	return &JWTManager{
		secret:    []byte(secret),
		issuer:    issuer,
		accessTTL: accessTTL,
		now:       time.Now,
	}
}

func (m *JWTManager) GenerateAccessToken(userID, sessionID int64) (string, time.Time, error) {
	if len(m.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("jwt secret is empty")
	}
	if userID <= 0 || sessionID <= 0 {
		return "", time.Time{}, fmt.Errorf("invalid access token payload")
	}

	now := m.now().UTC()
	expiresAt := now.Add(m.accessTTL)
	claims := tokenClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			// The jti keeps same-second tokens for the same session distinct;
			// auth_token.token carries a unique constraint.
			ID:        uuid.NewString(),
			Issuer:    m.issuer,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}

	return signed, expiresAt, nil
}

// ParseAccessToken verifies signature and expiry. Every failure collapses
// into ErrUnauthenticated so callers cannot tell a revoked token from garbage.
func (m *JWTManager) ParseAccessToken(raw string) (Claims, error) {
	if strings.TrimSpace(raw) == "" {
		return Claims{}, ErrUnauthenticated
	}

	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(_ *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
	if err != nil || token == nil || !token.Valid {
		return Claims{}, ErrUnauthenticated
	}

	return claimsFromToken(claims)
}

// PeekClaims decodes the payload without checking the signature. It is only
// safe when the result is cross-checked against the token store afterwards;
// the store row stays the single source of truth.
func (m *JWTManager) PeekClaims(raw string) (Claims, bool) {
	if strings.TrimSpace(raw) == "" {
		return Claims{}, false
	}

	claims := &tokenClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return Claims{}, false
	}

	parsed, err := claimsFromToken(claims)
	if err != nil {
		return Claims{}, false
	}
	return parsed, true
}

func claimsFromToken(claims *tokenClaims) (Claims, error) {
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return Claims{}, ErrUnauthenticated
	}
	if claims.SessionID <= 0 {
		return Claims{}, ErrUnauthenticated
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return Claims{}, ErrUnauthenticated
	}

	return Claims{
		UserID:    userID,
		SessionID: claims.SessionID,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
