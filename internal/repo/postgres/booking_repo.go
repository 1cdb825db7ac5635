package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/WillRy/kabanas-api/internal/domain/enums"
	"github.com/WillRy/kabanas-api/internal/domain/model"
)

var ErrBookingNotFound = errors.New("booking not found")

type BookingRepo struct {
	pool *pgxpool.Pool
}

type BookingPage struct {
	Items   []model.Booking
	Total   int64
	Page    int
	PerPage int
}

func NewBookingRepo(pool *pgxpool.Pool) *BookingRepo {
	return &BookingRepo{pool: pool}
}

const bookingColumns = `
b.id, b.start_date, b.end_date, b.num_nights, b.num_guests,
b.property_price, b.extras_price, b.total_price, b.status,
b.has_breakfast, b.is_paid, COALESCE(b.observations, ''),
b.guest_id, b.property_id, b.created_at, b.updated_at,
g.id, g.user_id, COALESCE(g.national_id, ''), COALESCE(g.nationality, ''), COALESCE(g.country_flag, ''),
u.id, u.name, u.email, COALESCE(u.avatar, ''),
p.id, p.name, p.max_capacity, p.regular_price, COALESCE(p.discount, 0), COALESCE(p.image, '')`

func scanBooking(row pgx.Row) (model.Booking, error) {
	var booking model.Booking
	var guest model.Guest
	var user model.User
	var property model.Property

	err := row.Scan(
		&booking.ID,
		&booking.StartDate,
		&booking.EndDate,
		&booking.NumNights,
		&booking.NumGuests,
		&booking.PropertyPrice,
		&booking.ExtrasPrice,
		&booking.TotalPrice,
		&booking.Status,
		&booking.HasBreakfast,
		&booking.IsPaid,
		&booking.Observations,
		&booking.GuestID,
		&booking.PropertyID,
		&booking.CreatedAt,
		&booking.UpdatedAt,
		&guest.ID,
		&guest.UserID,
		&guest.NationalID,
		&guest.Nationality,
		&guest.CountryFlag,
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Avatar,
		&property.ID,
		&property.Name,
		&property.MaxCapacity,
		&property.RegularPrice,
		&property.Discount,
		&property.Image,
	)
	if err != nil {
		return model.Booking{}, err
	}

	guest.User = &user
	booking.Guest = &guest
	booking.Property = &property
	return booking, nil
}

func (r *BookingRepo) queryBookings(ctx context.Context, query string, args ...any) ([]model.Booking, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []model.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return bookings, nil
}

func (r *BookingRepo) Create(ctx context.Context, booking model.Booking) (model.Booking, error) {
	if r.pool == nil {
		return model.Booking{}, fmt.Errorf("postgres pool is nil")
	}

	err := r.pool.QueryRow(ctx, `
INSERT INTO bookings (
	start_date, end_date, num_nights, num_guests,
	property_price, extras_price, total_price, status,
	has_breakfast, is_paid, observations, guest_id, property_id,
	created_at, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
RETURNING id, created_at, updated_at
`,
		booking.StartDate,
		booking.EndDate,
		booking.NumNights,
		booking.NumGuests,
		booking.PropertyPrice,
		booking.ExtrasPrice,
		booking.TotalPrice,
		booking.Status,
		booking.HasBreakfast,
		booking.IsPaid,
		booking.Observations,
		booking.GuestID,
		booking.PropertyID,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		return model.Booking{}, fmt.Errorf("create booking: %w", err)
	}

	return booking, nil
}

func (r *BookingRepo) FindByID(ctx context.Context, bookingID int64) (model.Booking, error) {
	if r.pool == nil {
		return model.Booking{}, fmt.Errorf("postgres pool is nil")
	}
	if bookingID <= 0 {
		return model.Booking{}, ErrBookingNotFound
	}

	booking, err := scanBooking(r.pool.QueryRow(ctx, `
SELECT`+bookingColumns+`
FROM bookings AS b
JOIN guests AS g ON g.id = b.guest_id
JOIN users AS u ON u.id = g.user_id
JOIN properties AS p ON p.id = b.property_id
WHERE b.id = $1
`, bookingID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Booking{}, ErrBookingNotFound
		}
		return model.Booking{}, fmt.Errorf("find booking by id: %w", err)
	}

	return booking, nil
}

func (r *BookingRepo) List(ctx context.Context, sortBy, sortOrder, statusFilter string, page, perPage int) (BookingPage, error) {
	if r.pool == nil {
		return BookingPage{}, fmt.Errorf("postgres pool is nil")
	}
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 10
	}

	var column string
	switch sortBy {
	case "start_date":
		column = "b.start_date"
	case "total_price":
		column = "b.total_price"
	default:
		column = "b.id"
	}
	switch sortOrder {
	case "asc", "desc":
	default:
		sortOrder = "asc"
	}

	filter := ""
	countFilter := ""
	args := []any{perPage, (page - 1) * perPage}
	var countArgs []any
	if enums.BookingStatus(statusFilter).Valid() {
		filter = " AND b.status = $3"
		countFilter = " AND b.status = $1"
		args = append(args, statusFilter)
		countArgs = append(countArgs, statusFilter)
	}

	var total int64
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM bookings AS b WHERE TRUE`+countFilter, countArgs...,
	).Scan(&total); err != nil {
		return BookingPage{}, fmt.Errorf("count bookings: %w", err)
	}

	query := fmt.Sprintf(`
SELECT%s
FROM bookings AS b
JOIN guests AS g ON g.id = b.guest_id
JOIN users AS u ON u.id = g.user_id
JOIN properties AS p ON p.id = b.property_id
WHERE TRUE%s
ORDER BY %s %s
LIMIT $1 OFFSET $2
`, bookingColumns, filter, column, sortOrder)

	items, err := r.queryBookings(ctx, query, args...)
	if err != nil {
		return BookingPage{}, fmt.Errorf("list bookings: %w", err)
	}

	return BookingPage{Items: items, Total: total, Page: page, PerPage: perPage}, nil
}

func (r *BookingRepo) UpdateStatus(ctx context.Context, booking model.Booking) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if booking.ID <= 0 {
		return ErrBookingNotFound
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE bookings
SET status = $2,
    is_paid = $3,
    extras_price = $4,
    total_price = $5,
    updated_at = NOW()
WHERE id = $1
`, booking.ID, booking.Status, booking.IsPaid, booking.ExtrasPrice, booking.TotalPrice)
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBookingNotFound
	}

	return nil
}

func (r *BookingRepo) Delete(ctx context.Context, bookingID int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
DELETE FROM bookings
WHERE id = $1
`, bookingID)
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBookingNotFound
	}

	return nil
}

// CreatedSince returns bookings created between the cutoff date and now.
func (r *BookingRepo) CreatedSince(ctx context.Context, after time.Time) ([]model.Booking, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	bookings, err := r.queryBookings(ctx, `
SELECT`+bookingColumns+`
FROM bookings AS b
JOIN guests AS g ON g.id = b.guest_id
JOIN users AS u ON u.id = g.user_id
JOIN properties AS p ON p.id = b.property_id
WHERE b.created_at::date >= $1::date
  AND b.created_at::date <= CURRENT_DATE
ORDER BY b.created_at ASC
`, after)
	if err != nil {
		return nil, fmt.Errorf("list bookings created since: %w", err)
	}

	return bookings, nil
}

// TodayActivity returns today's expected arrivals (unconfirmed, starting
// today) and departures (checked-in, ending today).
func (r *BookingRepo) TodayActivity(ctx context.Context) ([]model.Booking, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	bookings, err := r.queryBookings(ctx, `
SELECT`+bookingColumns+`
FROM bookings AS b
JOIN guests AS g ON g.id = b.guest_id
JOIN users AS u ON u.id = g.user_id
JOIN properties AS p ON p.id = b.property_id
WHERE (b.start_date::date = CURRENT_DATE AND b.status = 'unconfirmed')
   OR (b.end_date::date = CURRENT_DATE AND b.status = 'checked-in')
ORDER BY b.created_at ASC
`)
	if err != nil {
		return nil, fmt.Errorf("list today activity: %w", err)
	}

	return bookings, nil
}
