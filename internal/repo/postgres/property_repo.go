package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/WillRy/kabanas-api/internal/domain/model"
)

var ErrPropertyNotFound = errors.New("property not found")

type PropertyRepo struct {
	pool *pgxpool.Pool
}

type PropertyPage struct {
	Items   []model.Property
	Total   int64
	Page    int
	PerPage int
}

func NewPropertyRepo(pool *pgxpool.Pool) *PropertyRepo {
	return &PropertyRepo{pool: pool}
}

func (r *PropertyRepo) Create(ctx context.Context, property model.Property) (model.Property, error) {
	if r.pool == nil {
		return model.Property{}, fmt.Errorf("postgres pool is nil")
	}

	err := r.pool.QueryRow(ctx, `
INSERT INTO properties (name, max_capacity, regular_price, discount, description, image, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
RETURNING id, created_at, updated_at
`,
		property.Name,
		property.MaxCapacity,
		property.RegularPrice,
		property.Discount,
		property.Description,
		property.Image,
	).Scan(&property.ID, &property.CreatedAt, &property.UpdatedAt)
	if err != nil {
		return model.Property{}, fmt.Errorf("create property: %w", err)
	}

	return property, nil
}

func (r *PropertyRepo) FindByID(ctx context.Context, propertyID int64) (model.Property, error) {
	if r.pool == nil {
		return model.Property{}, fmt.Errorf("postgres pool is nil")
	}
	if propertyID <= 0 {
		return model.Property{}, ErrPropertyNotFound
	}

	var property model.Property
	err := r.pool.QueryRow(ctx, `
SELECT id, name, max_capacity, regular_price, COALESCE(discount, 0), COALESCE(description, ''), COALESCE(image, ''),
       created_at, updated_at, deleted_at
FROM properties
WHERE id = $1
  AND deleted_at IS NULL
`, propertyID).Scan(
		&property.ID,
		&property.Name,
		&property.MaxCapacity,
		&property.RegularPrice,
		&property.Discount,
		&property.Description,
		&property.Image,
		&property.CreatedAt,
		&property.UpdatedAt,
		&property.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Property{}, ErrPropertyNotFound
		}
		return model.Property{}, fmt.Errorf("find property by id: %w", err)
	}

	return property, nil
}

func (r *PropertyRepo) List(ctx context.Context, sortBy, sortOrder, discountFilter string, page, perPage int) (PropertyPage, error) {
	if r.pool == nil {
		return PropertyPage{}, fmt.Errorf("postgres pool is nil")
	}
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 10
	}

	// Sort columns are whitelisted; the values arrive straight from the query string.
	switch sortBy {
	case "id", "name", "regular_price", "discount":
	default:
		sortBy = "id"
	}
	switch sortOrder {
	case "asc", "desc":
	default:
		sortOrder = "asc"
	}

	filter := ""
	switch discountFilter {
	case "with-discount":
		filter = " AND discount > 0"
	case "without-discount":
		filter = " AND (discount IS NULL OR discount = 0)"
	}

	var total int64
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM properties WHERE deleted_at IS NULL`+filter,
	).Scan(&total); err != nil {
		return PropertyPage{}, fmt.Errorf("count properties: %w", err)
	}

	query := fmt.Sprintf(`
SELECT id, name, max_capacity, regular_price, COALESCE(discount, 0), COALESCE(description, ''), COALESCE(image, ''),
       created_at, updated_at, deleted_at
FROM properties
WHERE deleted_at IS NULL%s
ORDER BY %s %s
LIMIT $1 OFFSET $2
`, filter, sortBy, sortOrder)

	rows, err := r.pool.Query(ctx, query, perPage, (page-1)*perPage)
	if err != nil {
		return PropertyPage{}, fmt.Errorf("list properties: %w", err)
	}
	defer rows.Close()

	var items []model.Property
	for rows.Next() {
		var property model.Property
		if err := rows.Scan(
			&property.ID,
			&property.Name,
			&property.MaxCapacity,
			&property.RegularPrice,
			&property.Discount,
			&property.Description,
			&property.Image,
			&property.CreatedAt,
			&property.UpdatedAt,
			&property.DeletedAt,
		); err != nil {
			return PropertyPage{}, fmt.Errorf("scan property: %w", err)
		}
		items = append(items, property)
	}
	if err := rows.Err(); err != nil {
		return PropertyPage{}, fmt.Errorf("iterate properties: %w", err)
	}

	return PropertyPage{Items: items, Total: total, Page: page, PerPage: perPage}, nil
}

func (r *PropertyRepo) Update(ctx context.Context, property model.Property) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if property.ID <= 0 {
		return ErrPropertyNotFound
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE properties
SET name = $2,
    max_capacity = $3,
    regular_price = $4,
    discount = $5,
    description = $6,
    image = $7,
    updated_at = NOW()
WHERE id = $1
  AND deleted_at IS NULL
`,
		property.ID,
		property.Name,
		property.MaxCapacity,
		property.RegularPrice,
		property.Discount,
		property.Description,
		property.Image,
	)
	if err != nil {
		return fmt.Errorf("update property: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPropertyNotFound
	}

	return nil
}

// SoftDelete keeps the row so past bookings can still resolve their property.
func (r *PropertyRepo) SoftDelete(ctx context.Context, propertyID int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE properties
SET deleted_at = NOW(), updated_at = NOW()
WHERE id = $1
  AND deleted_at IS NULL
`, propertyID)
	if err != nil {
		return fmt.Errorf("soft delete property: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPropertyNotFound
	}

	return nil
}

func (r *PropertyRepo) Count(ctx context.Context) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `
SELECT COUNT(*) FROM properties WHERE deleted_at IS NULL
`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count properties: %w", err)
	}

	return total, nil
}

// FutureBookingRanges returns start/end pairs of bookings starting today or
// later, used for availability checks.
func (r *PropertyRepo) FutureBookingRanges(ctx context.Context, propertyID int64) ([][2]time.Time, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT start_date, end_date
FROM bookings
WHERE property_id = $1
  AND start_date >= CURRENT_DATE
ORDER BY start_date ASC
`, propertyID)
	if err != nil {
		return nil, fmt.Errorf("list future booking ranges: %w", err)
	}
	defer rows.Close()

	var ranges [][2]time.Time
	for rows.Next() {
		var start, end time.Time
		if err := rows.Scan(&start, &end); err != nil {
			return nil, fmt.Errorf("scan booking range: %w", err)
		}
		ranges = append(ranges, [2]time.Time{start, end})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate booking ranges: %w", err)
	}

	return ranges, nil
}
