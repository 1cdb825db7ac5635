package auth

import (
	"errors"
	"time"
)

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	ErrSessionNotFound       = errors.New("session not found")
	ErrRefreshNotFound       = errors.New("refresh token not found")
	ErrAccessTokenNotFound   = errors.New("access token not found")
	ErrDuplicateChildRefresh = errors.New("refresh token already rotated")
)

type SessionRecord struct {
	ID        int64
	UserID    int64
	CreatedAt time.Time
}

type RefreshTokenRecord struct {
	ID        int64
	SessionID int64
	UserID    int64
	Token     string
	ExpiresAt time.Time
	UsedAt    *time.Time
	ParentID  *int64
	Expired   bool
}

type AccessTokenRecord struct {
	ID        int64
	SessionID int64
	UserID    int64
	RefreshID int64
	Token     string
	ExpiresAt time.Time
	Expired   bool
}

type TokenPair struct {
	AccessToken   string
	RefreshToken  string
	AccessExpires time.Time
}

type AuthResult struct {
	Session SessionRecord
	TokenPair
}
