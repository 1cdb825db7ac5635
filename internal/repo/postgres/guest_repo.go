package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/WillRy/kabanas-api/internal/domain/model"
)

var ErrGuestNotFound = errors.New("guest not found")

type GuestRepo struct {
	pool *pgxpool.Pool
}

func NewGuestRepo(pool *pgxpool.Pool) *GuestRepo {
	return &GuestRepo{pool: pool}
}

func (r *GuestRepo) FindByUserID(ctx context.Context, userID int64) (model.Guest, error) {
	if r.pool == nil {
		return model.Guest{}, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return model.Guest{}, fmt.Errorf("invalid user id")
	}

	var guest model.Guest
	err := r.pool.QueryRow(ctx, `
SELECT id, user_id, COALESCE(national_id, ''), COALESCE(nationality, ''), COALESCE(country_flag, '')
FROM guests
WHERE user_id = $1
`, userID).Scan(
		&guest.ID,
		&guest.UserID,
		&guest.NationalID,
		&guest.Nationality,
		&guest.CountryFlag,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Guest{}, ErrGuestNotFound
		}
		return model.Guest{}, fmt.Errorf("find guest by user id: %w", err)
	}

	return guest, nil
}

// Autocomplete lists users with guest profiles matching the search term by
// name or email, capped at 10.
func (r *GuestRepo) Autocomplete(ctx context.Context, search string) ([]model.Guest, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	pattern := "%" + strings.TrimSpace(search) + "%"
	rows, err := r.pool.Query(ctx, `
SELECT g.id, g.user_id, COALESCE(g.national_id, ''), COALESCE(g.nationality, ''), COALESCE(g.country_flag, ''),
       u.id, u.name, u.email, COALESCE(u.avatar, '')
FROM guests AS g
JOIN users AS u ON u.id = g.user_id
WHERE ($1 = '%%' OR u.name ILIKE $1 OR u.email ILIKE $1)
ORDER BY u.id ASC
LIMIT 10
`, pattern)
	if err != nil {
		return nil, fmt.Errorf("autocomplete guests: %w", err)
	}
	defer rows.Close()

	var guests []model.Guest
	for rows.Next() {
		var guest model.Guest
		var user model.User
		if err := rows.Scan(
			&guest.ID,
			&guest.UserID,
			&guest.NationalID,
			&guest.Nationality,
			&guest.CountryFlag,
			&user.ID,
			&user.Name,
			&user.Email,
			&user.Avatar,
		); err != nil {
			return nil, fmt.Errorf("scan guest: %w", err)
		}
		guest.User = &user
		guests = append(guests, guest)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate guests: %w", err)
	}

	return guests, nil
}
