package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/WillRy/kabanas-api/internal/domain/model"
)

var ErrSettingNotFound = errors.New("setting not found")

// SettingRepo manages the single booking settings row.
type SettingRepo struct {
	pool *pgxpool.Pool
}

func NewSettingRepo(pool *pgxpool.Pool) *SettingRepo {
	return &SettingRepo{pool: pool}
}

func (r *SettingRepo) Get(ctx context.Context) (model.Setting, error) {
	if r.pool == nil {
		return model.Setting{}, fmt.Errorf("postgres pool is nil")
	}

	var setting model.Setting
	err := r.pool.QueryRow(ctx, `
SELECT id, min_booking_length, max_booking_length, max_guests_per_booking, breakfast_price
FROM settings
ORDER BY id ASC
LIMIT 1
`).Scan(
		&setting.ID,
		&setting.MinBookingLength,
		&setting.MaxBookingLength,
		&setting.MaxGuestsPerBooking,
		&setting.BreakfastPrice,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Setting{}, ErrSettingNotFound
		}
		return model.Setting{}, fmt.Errorf("get settings: %w", err)
	}

	return setting, nil
}

func (r *SettingRepo) Insert(ctx context.Context, setting model.Setting) (model.Setting, error) {
	if r.pool == nil {
		return model.Setting{}, fmt.Errorf("postgres pool is nil")
	}

	err := r.pool.QueryRow(ctx, `
INSERT INTO settings (min_booking_length, max_booking_length, max_guests_per_booking, breakfast_price, created_at, updated_at)
VALUES ($1, $2, $3, $4, NOW(), NOW())
RETURNING id
`,
		setting.MinBookingLength,
		setting.MaxBookingLength,
		setting.MaxGuestsPerBooking,
		setting.BreakfastPrice,
	).Scan(&setting.ID)
	if err != nil {
		return model.Setting{}, fmt.Errorf("insert settings: %w", err)
	}

	return setting, nil
}

func (r *SettingRepo) Update(ctx context.Context, setting model.Setting) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if setting.ID <= 0 {
		return ErrSettingNotFound
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE settings
SET min_booking_length = $2,
    max_booking_length = $3,
    max_guests_per_booking = $4,
    breakfast_price = $5,
    updated_at = NOW()
WHERE id = $1
`,
		setting.ID,
		setting.MinBookingLength,
		setting.MaxBookingLength,
		setting.MaxGuestsPerBooking,
		setting.BreakfastPrice,
	)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSettingNotFound
	}

	return nil
}
