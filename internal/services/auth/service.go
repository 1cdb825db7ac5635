package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// Both the signed exp claim and the auth_token row expiry use this value.
	AccessTokenTTL = time.Hour

	RefreshTokenTTL = 7 * time.Hour

	// Window during which a superseded refresh token may still be replayed
	// by a concurrent refresh call.
	RefreshGracePeriod = 30 * time.Second
)

// TokenStore is the durable source of truth for token validity. A signed JWT
// alone never authenticates a request.
type TokenStore interface {
	CreateSession(ctx context.Context, userID int64) (SessionRecord, error)
	InsertRefreshToken(ctx context.Context, sessionID, userID int64, token string, expiresAt time.Time, parentID *int64) (int64, error)
	InsertAccessToken(ctx context.Context, sessionID, userID int64, token string, expiresAt time.Time, refreshID int64) error
	FindRefreshToken(ctx context.Context, token string) (RefreshTokenRecord, error)
	FindAccessToken(ctx context.Context, token string) (AccessTokenRecord, error)
	FindLatestUnexpiredChild(ctx context.Context, parentRefreshID int64) (RefreshTokenRecord, error)
	MarkRefreshUsed(ctx context.Context, refreshID int64, grace time.Duration) error
	DeleteSession(ctx context.Context, sessionID int64) error
	DeleteExpired(ctx context.Context) error
	DeleteOrphanSessions(ctx context.Context) error
}

type Service struct {
	jwt        *JWTManager
	store      TokenStore
	refreshTTL time.Duration
	grace      time.Duration
	now        func() time.Time
}

func NewService(jwtManager *JWTManager, store TokenStore, refreshTTL, grace time.Duration) *Service {
	if refreshTTL <= 0 {
		refreshTTL = RefreshTokenTTL
	}
	if grace <= 0 {
		grace = RefreshGracePeriod
	}

	return &Service{
		jwt:        jwtManager,
		store:      store,
		refreshTTL: refreshTTL,
		grace:      grace,
		now:        time.Now,
	}
}

// Login creates a session with its first refresh/access token pair.
// Credential verification happens upstream.
func (s *Service) Login(ctx context.Context, userID int64) (AuthResult, error) {
	if userID <= 0 {
		return AuthResult{}, ErrInvalidInput
	}
	if s.store == nil {
		return AuthResult{}, fmt.Errorf("token store is nil")
	}

	session, err := s.store.CreateSession(ctx, userID)
	if err != nil {
		return AuthResult{}, fmt.Errorf("create session: %w", err)
	}

	refreshToken, err := NewRefreshToken()
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate refresh token: %w", err)
	}

	refreshID, err := s.store.InsertRefreshToken(ctx, session.ID, userID, refreshToken, s.now().Add(s.refreshTTL), nil)
	if err != nil {
		return AuthResult{}, fmt.Errorf("insert refresh token: %w", err)
	}

	accessToken, accessExpires, err := s.jwt.GenerateAccessToken(userID, session.ID)
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate access token: %w", err)
	}

	if err := s.store.InsertAccessToken(ctx, session.ID, userID, accessToken, accessExpires, refreshID); err != nil {
		return AuthResult{}, fmt.Errorf("insert access token: %w", err)
	}

	return AuthResult{
		Session: session,
		TokenPair: TokenPair{
			AccessToken:   accessToken,
			RefreshToken:  refreshToken,
			AccessExpires: accessExpires,
		},
	}, nil
}

// Validate checks the signature and expiry of the token, then requires a
// matching unexpired auth_token row for the same session. The dual check is
// what lets logout revoke a token before its natural expiry.
func (s *Service) Validate(ctx context.Context, accessToken string) (Identity, error) {
	claims, err := s.jwt.ParseAccessToken(accessToken)
	if err != nil {
		return Identity{}, ErrUnauthenticated
	}

	record, err := s.store.FindAccessToken(ctx, accessToken)
	if err != nil {
		if errors.Is(err, ErrAccessTokenNotFound) {
			return Identity{}, ErrUnauthenticated
		}
		return Identity{}, fmt.Errorf("find access token: %w", err)
	}

	if record.SessionID != claims.SessionID || record.UserID != claims.UserID || record.Expired {
		return Identity{}, ErrUnauthenticated
	}

	return Identity{UserID: claims.UserID, SessionID: claims.SessionID}, nil
}

// Refresh rotates a refresh token. Two concurrent calls with the same still
// valid token converge on the same successor: the first rotation leaves the
// consumed token alive for a short grace window and the second call reuses
// the child it finds instead of minting another.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return TokenPair{}, ErrInvalidRefreshToken
	}

	// Best-effort housekeeping; correctness does not depend on it.
	_ = s.store.DeleteExpired(ctx)

	record, err := s.store.FindRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrRefreshNotFound) {
			return TokenPair{}, ErrInvalidRefreshToken
		}
		return TokenPair{}, fmt.Errorf("find refresh token: %w", err)
	}
	if record.Expired {
		return TokenPair{}, ErrInvalidRefreshToken
	}

	nextToken, nextID, err := s.nextRefreshToken(ctx, record)
	if err != nil {
		return TokenPair{}, err
	}

	accessToken, accessExpires, err := s.jwt.GenerateAccessToken(record.UserID, record.SessionID)
	if err != nil {
		return TokenPair{}, fmt.Errorf("generate access token: %w", err)
	}

	if err := s.store.InsertAccessToken(ctx, record.SessionID, record.UserID, accessToken, accessExpires, nextID); err != nil {
		return TokenPair{}, fmt.Errorf("insert access token: %w", err)
	}

	if record.UsedAt == nil {
		if err := s.store.MarkRefreshUsed(ctx, record.ID, s.grace); err != nil {
			return TokenPair{}, fmt.Errorf("mark refresh token used: %w", err)
		}
	}

	return TokenPair{
		AccessToken:   accessToken,
		RefreshToken:  nextToken,
		AccessExpires: accessExpires,
	}, nil
}

// nextRefreshToken reuses an already minted successor when one exists,
// otherwise inserts a new child. A unique constraint on the parent reference
// closes the race between the lookup and the insert: the loser of the insert
// falls back to the winner's row.
func (s *Service) nextRefreshToken(ctx context.Context, parent RefreshTokenRecord) (string, int64, error) {
	child, err := s.store.FindLatestUnexpiredChild(ctx, parent.ID)
	if err == nil {
		return child.Token, child.ID, nil
	}
	if !errors.Is(err, ErrRefreshNotFound) {
		return "", 0, fmt.Errorf("find rotated refresh token: %w", err)
	}

	token, err := NewRefreshToken()
	if err != nil {
		return "", 0, fmt.Errorf("generate refresh token: %w", err)
	}

	parentID := parent.ID
	id, err := s.store.InsertRefreshToken(ctx, parent.SessionID, parent.UserID, token, s.now().Add(s.refreshTTL), &parentID)
	if err == nil {
		return token, id, nil
	}
	if !errors.Is(err, ErrDuplicateChildRefresh) {
		return "", 0, fmt.Errorf("insert refresh token: %w", err)
	}

	child, err = s.store.FindLatestUnexpiredChild(ctx, parent.ID)
	if err != nil {
		return "", 0, fmt.Errorf("find concurrent rotated refresh token: %w", err)
	}
	return child.Token, child.ID, nil
}

// Logout tears down the session owning the given access token. It is
// idempotent: an unresolvable token is a silent no-op.
func (s *Service) Logout(ctx context.Context, accessToken string) error {
	if strings.TrimSpace(accessToken) == "" {
		return nil
	}

	record, err := s.store.FindAccessToken(ctx, accessToken)
	if err != nil {
		if errors.Is(err, ErrAccessTokenNotFound) {
			return nil
		}
		return fmt.Errorf("find access token: %w", err)
	}

	// The unverified peek is acceptable here, the store row is the authority.
	if claims, ok := s.jwt.PeekClaims(accessToken); ok && claims.SessionID != record.SessionID {
		return nil
	}

	if err := s.store.DeleteSession(ctx, record.SessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Cleanup drops expired token rows and sessions left with no live tokens.
func (s *Service) Cleanup(ctx context.Context) error {
	if err := s.store.DeleteExpired(ctx); err != nil {
		return fmt.Errorf("delete expired tokens: %w", err)
	}
	if err := s.store.DeleteOrphanSessions(ctx); err != nil {
		return fmt.Errorf("delete orphan sessions: %w", err)
	}
	return nil
}
