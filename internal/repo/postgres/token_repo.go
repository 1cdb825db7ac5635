package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	authsvc "github.com/WillRy/kabanas-api/internal/services/auth"
)

const uniqueViolationCode = "23505"

// TokenRepo persists token_sessions, refresh_token and auth_token rows.
// It implements authsvc.TokenStore.
type TokenRepo struct {
	pool *pgxpool.Pool
}

func NewTokenRepo(pool *pgxpool.Pool) *TokenRepo {
	return &TokenRepo{pool: pool}
}

func (r *TokenRepo) CreateSession(ctx context.Context, userID int64) (authsvc.SessionRecord, error) {
	if r.pool == nil {
		return authsvc.SessionRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return authsvc.SessionRecord{}, authsvc.ErrInvalidInput
	}

	var session authsvc.SessionRecord
	err := r.pool.QueryRow(ctx, `
INSERT INTO token_sessions (user_id, created_at, updated_at)
VALUES ($1, NOW(), NOW())
RETURNING id, user_id, created_at
`, userID).Scan(&session.ID, &session.UserID, &session.CreatedAt)
	if err != nil {
		return authsvc.SessionRecord{}, fmt.Errorf("create token session: %w", err)
	}

	return session, nil
}

func (r *TokenRepo) InsertRefreshToken(ctx context.Context, sessionID, userID int64, token string, expiresAt time.Time, parentID *int64) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}
	if sessionID <= 0 || userID <= 0 || token == "" {
		return 0, authsvc.ErrInvalidInput
	}

	var id int64
	err := r.pool.QueryRow(ctx, `
INSERT INTO refresh_token (token_session_id, user_id, token, token_expiration, refresh_id)
VALUES ($1, $2, $3, $4, $5)
RETURNING id
`, sessionID, userID, token, expiresAt, parentID).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return 0, authsvc.ErrDuplicateChildRefresh
		}
		return 0, fmt.Errorf("insert refresh token: %w", err)
	}

	return id, nil
}

func (r *TokenRepo) InsertAccessToken(ctx context.Context, sessionID, userID int64, token string, expiresAt time.Time, refreshID int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if sessionID <= 0 || userID <= 0 || token == "" || refreshID <= 0 {
		return authsvc.ErrInvalidInput
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO auth_token (token_session_id, user_id, token, token_expiration, refresh_id)
VALUES ($1, $2, $3, $4, $5)
`, sessionID, userID, token, expiresAt, refreshID); err != nil {
		return fmt.Errorf("insert access token: %w", err)
	}

	return nil
}

func (r *TokenRepo) FindRefreshToken(ctx context.Context, token string) (authsvc.RefreshTokenRecord, error) {
	if r.pool == nil {
		return authsvc.RefreshTokenRecord{}, fmt.Errorf("postgres pool is nil")
	}

	var record authsvc.RefreshTokenRecord
	err := r.pool.QueryRow(ctx, `
SELECT id, token_session_id, user_id, token, token_expiration, used_at, refresh_id,
       (token_expiration < NOW()) AS expired
FROM refresh_token
WHERE token = $1
`, token).Scan(
		&record.ID,
		&record.SessionID,
		&record.UserID,
		&record.Token,
		&record.ExpiresAt,
		&record.UsedAt,
		&record.ParentID,
		&record.Expired,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return authsvc.RefreshTokenRecord{}, authsvc.ErrRefreshNotFound
		}
		return authsvc.RefreshTokenRecord{}, fmt.Errorf("find refresh token: %w", err)
	}

	return record, nil
}

func (r *TokenRepo) FindAccessToken(ctx context.Context, token string) (authsvc.AccessTokenRecord, error) {
	if r.pool == nil {
		return authsvc.AccessTokenRecord{}, fmt.Errorf("postgres pool is nil")
	}

	var record authsvc.AccessTokenRecord
	err := r.pool.QueryRow(ctx, `
SELECT id, token_session_id, user_id, refresh_id, token, token_expiration,
       (token_expiration < NOW()) AS expired
FROM auth_token
WHERE token = $1
`, token).Scan(
		&record.ID,
		&record.SessionID,
		&record.UserID,
		&record.RefreshID,
		&record.Token,
		&record.ExpiresAt,
		&record.Expired,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return authsvc.AccessTokenRecord{}, authsvc.ErrAccessTokenNotFound
		}
		return authsvc.AccessTokenRecord{}, fmt.Errorf("find access token: %w", err)
	}

	return record, nil
}

func (r *TokenRepo) FindLatestUnexpiredChild(ctx context.Context, parentRefreshID int64) (authsvc.RefreshTokenRecord, error) {
	if r.pool == nil {
		return authsvc.RefreshTokenRecord{}, fmt.Errorf("postgres pool is nil")
	}

	var record authsvc.RefreshTokenRecord
	err := r.pool.QueryRow(ctx, `
SELECT id, token_session_id, user_id, token, token_expiration, used_at, refresh_id,
       (token_expiration < NOW()) AS expired
FROM refresh_token
WHERE refresh_id = $1
  AND token_expiration > NOW()
ORDER BY id DESC
LIMIT 1
`, parentRefreshID).Scan(
		&record.ID,
		&record.SessionID,
		&record.UserID,
		&record.Token,
		&record.ExpiresAt,
		&record.UsedAt,
		&record.ParentID,
		&record.Expired,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return authsvc.RefreshTokenRecord{}, authsvc.ErrRefreshNotFound
		}
		return authsvc.RefreshTokenRecord{}, fmt.Errorf("find rotated refresh token: %w", err)
	}

	return record, nil
}

// MarkRefreshUsed stamps used_at and shrinks the expiry to the grace window.
// The used_at IS NULL guard makes a second call a no-op.
func (r *TokenRepo) MarkRefreshUsed(ctx context.Context, refreshID int64, grace time.Duration) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if refreshID <= 0 {
		return authsvc.ErrInvalidInput
	}

	seconds := int64(grace.Seconds())
	if seconds < 0 {
		seconds = 0
	}

	if _, err := r.pool.Exec(ctx, `
UPDATE refresh_token
SET used_at = NOW(),
    token_expiration = NOW() + ($2 * INTERVAL '1 second')
WHERE id = $1
  AND used_at IS NULL
`, refreshID, seconds); err != nil {
		return fmt.Errorf("mark refresh token used: %w", err)
	}

	return nil
}

func (r *TokenRepo) DeleteSession(ctx context.Context, sessionID int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if sessionID <= 0 {
		return nil
	}

	// refresh_token and auth_token rows go with the session via ON DELETE CASCADE.
	if _, err := r.pool.Exec(ctx, `
DELETE FROM token_sessions
WHERE id = $1
`, sessionID); err != nil {
		return fmt.Errorf("delete token session: %w", err)
	}

	return nil
}

// DeleteExpired sweeps both token tables in one transaction so a sweep never
// leaves an access token whose refresh chain is already gone.
func (r *TokenRepo) DeleteExpired(ctx context.Context) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	return WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
DELETE FROM auth_token
WHERE token_expiration < NOW()
`); err != nil {
			return fmt.Errorf("delete expired access tokens: %w", err)
		}

		if _, err := tx.Exec(ctx, `
DELETE FROM refresh_token
WHERE token_expiration < NOW()
`); err != nil {
			return fmt.Errorf("delete expired refresh tokens: %w", err)
		}

		return nil
	})
}

func (r *TokenRepo) DeleteOrphanSessions(ctx context.Context) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	if _, err := r.pool.Exec(ctx, `
DELETE FROM token_sessions AS s
WHERE NOT EXISTS (
	SELECT 1 FROM auth_token AS a
	WHERE a.token_session_id = s.id
	  AND a.token_expiration >= NOW()
)
AND NOT EXISTS (
	SELECT 1 FROM refresh_token AS rt
	WHERE rt.token_session_id = s.id
	  AND rt.token_expiration >= NOW()
)
`); err != nil {
		return fmt.Errorf("delete orphan token sessions: %w", err)
	}

	return nil
}
