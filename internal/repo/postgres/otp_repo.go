package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrOtpNotFound = errors.New("otp not found")

const OtpTypePasswordReset = "password_reset"

type OtpRepo struct {
	pool *pgxpool.Pool
}

type OtpRecord struct {
	ID        int64
	UserID    int64
	Code      string
	Type      string
	ExpiresAt time.Time
	UsedAt    *time.Time
}

func NewOtpRepo(pool *pgxpool.Pool) *OtpRepo {
	return &OtpRepo{pool: pool}
}

func (r *OtpRepo) Create(ctx context.Context, userID int64, code, otpType string, expiresAt time.Time) (OtpRecord, error) {
	if r.pool == nil {
		return OtpRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 || code == "" || otpType == "" {
		return OtpRecord{}, fmt.Errorf("invalid otp payload")
	}

	var record OtpRecord
	err := r.pool.QueryRow(ctx, `
INSERT INTO otps (user_id, code, type, expires_at, created_at)
VALUES ($1, $2, $3, $4, NOW())
RETURNING id, user_id, code, type, expires_at, used_at
`, userID, code, otpType, expiresAt).Scan(
		&record.ID,
		&record.UserID,
		&record.Code,
		&record.Type,
		&record.ExpiresAt,
		&record.UsedAt,
	)
	if err != nil {
		return OtpRecord{}, fmt.Errorf("create otp: %w", err)
	}

	return record, nil
}

// FindActive returns the newest unused, unexpired OTP of the given type.
func (r *OtpRepo) FindActive(ctx context.Context, userID int64, code, otpType string) (OtpRecord, error) {
	if r.pool == nil {
		return OtpRecord{}, fmt.Errorf("postgres pool is nil")
	}

	var record OtpRecord
	err := r.pool.QueryRow(ctx, `
SELECT id, user_id, code, type, expires_at, used_at
FROM otps
WHERE user_id = $1
  AND code = $2
  AND type = $3
  AND used_at IS NULL
  AND expires_at > NOW()
ORDER BY id DESC
LIMIT 1
`, userID, code, otpType).Scan(
		&record.ID,
		&record.UserID,
		&record.Code,
		&record.Type,
		&record.ExpiresAt,
		&record.UsedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return OtpRecord{}, ErrOtpNotFound
		}
		return OtpRecord{}, fmt.Errorf("find active otp: %w", err)
	}

	return record, nil
}

func (r *OtpRepo) MarkUsed(ctx context.Context, otpID int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	if _, err := r.pool.Exec(ctx, `
UPDATE otps
SET used_at = NOW()
WHERE id = $1
  AND used_at IS NULL
`, otpID); err != nil {
		return fmt.Errorf("mark otp used: %w", err)
	}

	return nil
}

// DeleteSiblings removes the user's other OTPs of the same type once one of
// them is consumed.
func (r *OtpRepo) DeleteSiblings(ctx context.Context, userID, keepOtpID int64, otpType string) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	if _, err := r.pool.Exec(ctx, `
DELETE FROM otps
WHERE user_id = $1
  AND type = $2
  AND id <> $3
`, userID, otpType, keepOtpID); err != nil {
		return fmt.Errorf("delete sibling otps: %w", err)
	}

	return nil
}
