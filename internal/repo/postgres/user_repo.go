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

var ErrUserNotFound = errors.New("user not found")

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}

	var user model.User
	err := r.pool.QueryRow(ctx, `
SELECT id, name, email, password, COALESCE(avatar, ''), created_at, updated_at
FROM users
WHERE email = $1
`, strings.ToLower(strings.TrimSpace(email))).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Avatar,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("find user by email: %w", err)
	}

	return user, nil
}

func (r *UserRepo) FindByID(ctx context.Context, userID int64) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return model.User{}, fmt.Errorf("invalid user id")
	}

	var user model.User
	err := r.pool.QueryRow(ctx, `
SELECT id, name, email, password, COALESCE(avatar, ''), created_at, updated_at
FROM users
WHERE id = $1
`, userID).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Avatar,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("find user by id: %w", err)
	}

	return user, nil
}

func (r *UserRepo) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 || passwordHash == "" {
		return fmt.Errorf("invalid password update payload")
	}

	if _, err := r.pool.Exec(ctx, `
UPDATE users
SET password = $2, updated_at = NOW()
WHERE id = $1
`, userID, passwordHash); err != nil {
		return fmt.Errorf("update user password: %w", err)
	}

	return nil
}

func (r *UserRepo) UpdateProfile(ctx context.Context, userID int64, name, avatar string) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return fmt.Errorf("invalid user id")
	}

	if _, err := r.pool.Exec(ctx, `
UPDATE users
SET name = COALESCE(NULLIF($2, ''), name),
    avatar = COALESCE(NULLIF($3, ''), avatar),
    updated_at = NOW()
WHERE id = $1
`, userID, strings.TrimSpace(name), strings.TrimSpace(avatar)); err != nil {
		return fmt.Errorf("update user profile: %w", err)
	}

	return nil
}

// Permissions returns the distinct permission names granted through the
// user's roles.
func (r *UserRepo) Permissions(ctx context.Context, userID int64) ([]string, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return nil, fmt.Errorf("invalid user id")
	}

	rows, err := r.pool.Query(ctx, `
SELECT DISTINCT p.name
FROM permissions AS p
JOIN role_user AS ru ON ru.role_id = p.role_id
WHERE ru.user_id = $1
ORDER BY p.name
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user permissions: %w", err)
	}
	defer rows.Close()

	var permissions []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan permission: %w", err)
		}
		permissions = append(permissions, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate permissions: %w", err)
	}

	return permissions, nil
}
