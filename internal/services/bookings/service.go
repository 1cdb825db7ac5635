package bookings

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/WillRy/kabanas-api/internal/domain/enums"
	"github.com/WillRy/kabanas-api/internal/domain/model"
	pgrepo "github.com/WillRy/kabanas-api/internal/repo/postgres"
	"github.com/WillRy/kabanas-api/internal/services/authz"
)

var ErrNotFound = errors.New("booking not found")

// RuleError is a booking business-rule violation, surfaced as HTTP 422.
type RuleError struct {
	Message string
}

func (e *RuleError) Error() string {
	return e.Message
}

func ruleErrorf(format string, args ...any) error {
	return &RuleError{Message: fmt.Sprintf(format, args...)}
}

type BookingStore interface {
	Create(ctx context.Context, booking model.Booking) (model.Booking, error)
	FindByID(ctx context.Context, bookingID int64) (model.Booking, error)
	List(ctx context.Context, sortBy, sortOrder, statusFilter string, page, perPage int) (pgrepo.BookingPage, error)
	UpdateStatus(ctx context.Context, booking model.Booking) error
	Delete(ctx context.Context, bookingID int64) error
	CreatedSince(ctx context.Context, after time.Time) ([]model.Booking, error)
	TodayActivity(ctx context.Context) ([]model.Booking, error)
}

type PropertyStore interface {
	FindByID(ctx context.Context, propertyID int64) (model.Property, error)
	Count(ctx context.Context) (int64, error)
}

type SettingProvider interface {
	Get(ctx context.Context) (model.Setting, error)
}

type GuestProvider interface {
	ProfileForUser(ctx context.Context, userID int64) (model.Guest, error)
}

type AvailabilityProvider interface {
	UnavailableDates(ctx context.Context, propertyID int64) ([]string, error)
}

type CreateInput struct {
	StartDate    time.Time
	EndDate      time.Time
	NumGuests    int
	Observations string
	GuestID      int64
	PropertyID   int64
}

type Stats struct {
	NumBookings         int
	Sales               float64
	OccupancyRate       float64
	ConfirmedStaysCount int
	ConfirmedStays      []model.Booking
	Bookings            []model.Booking
}

type Service struct {
	store        BookingStore
	properties   PropertyStore
	settings     SettingProvider
	guests       GuestProvider
	availability AvailabilityProvider
	authz        *authz.Checker
	now          func() time.Time
}

type Dependencies struct {
	BookingStore BookingStore
	Properties   PropertyStore
	Settings     SettingProvider
	Guests       GuestProvider
	Availability AvailabilityProvider
	Authz        *authz.Checker
}

func NewService(deps Dependencies) *Service {
	return &Service{
		store:        deps.BookingStore,
		properties:   deps.Properties,
		settings:     deps.Settings,
		guests:       deps.Guests,
		availability: deps.Availability,
		authz:        deps.Authz,
		now:          time.Now,
	}
}

func (s *Service) List(ctx context.Context, userID int64, sortBy, sortOrder, statusFilter string, page int) (pgrepo.BookingPage, error) {
	if err := s.authz.Require(ctx, userID, enums.PermManageBookings); err != nil {
		return pgrepo.BookingPage{}, err
	}

	result, err := s.store.List(ctx, sortBy, sortOrder, statusFilter, page, 10)
	if err != nil {
		return pgrepo.BookingPage{}, fmt.Errorf("list bookings: %w", err)
	}

	return result, nil
}

// View is allowed for booking managers and for the guest owning the booking.
func (s *Service) View(ctx context.Context, userID, bookingID int64) (model.Booking, error) {
	booking, err := s.store.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrBookingNotFound) {
			return model.Booking{}, ErrNotFound
		}
		return model.Booking{}, fmt.Errorf("find booking: %w", err)
	}

	canSeeAll, err := s.authz.Has(ctx, userID, enums.PermManageBookings)
	if err != nil {
		return model.Booking{}, err
	}
	if canSeeAll {
		return booking, nil
	}

	guest, err := s.guests.ProfileForUser(ctx, userID)
	if err == nil && guest.ID == booking.GuestID {
		return booking, nil
	}

	return model.Booking{}, authz.ErrPermissionDenied
}

func (s *Service) Create(ctx context.Context, userID int64, in CreateInput) (model.Booking, error) {
	if err := s.authz.Require(ctx, userID, enums.PermManageBookings); err != nil {
		return model.Booking{}, err
	}

	property, err := s.properties.FindByID(ctx, in.PropertyID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrPropertyNotFound) {
			return model.Booking{}, ErrNotFound
		}
		return model.Booking{}, fmt.Errorf("find property: %w", err)
	}

	setting, err := s.settings.Get(ctx)
	if err != nil {
		return model.Booking{}, fmt.Errorf("load settings: %w", err)
	}

	start := in.StartDate
	end := in.EndDate
	nights := int(end.Sub(start).Hours() / 24)

	today := s.now().Truncate(24 * time.Hour)
	if start.Before(today) {
		return model.Booking{}, ruleErrorf("The start date must be today or a future date.")
	}
	if start.After(end) {
		return model.Booking{}, ruleErrorf("The start date must be greather than end date.")
	}
	if nights < setting.MinBookingLength {
		return model.Booking{}, ruleErrorf("The minimum stay is %d nights.", setting.MinBookingLength)
	}
	if nights > setting.MaxBookingLength {
		return model.Booking{}, ruleErrorf("The maximum stay is %d nights.", setting.MaxBookingLength)
	}
	if in.NumGuests > setting.MaxGuestsPerBooking {
		return model.Booking{}, ruleErrorf("The maximum number of guests for this property is %d.", setting.MaxGuestsPerBooking)
	}

	unavailable, err := s.availability.UnavailableDates(ctx, property.ID)
	if err != nil {
		return model.Booking{}, fmt.Errorf("check availability: %w", err)
	}
	startDay := start.Format("2006-01-02")
	endDay := end.Format("2006-01-02")
	for _, day := range unavailable {
		if day == startDay || day == endDay {
			return model.Booking{}, ruleErrorf("The property is already booked for the selected dates.")
		}
	}

	nightPrice := property.RegularPrice - property.Discount
	booking := model.Booking{
		StartDate:     start,
		EndDate:       end,
		NumNights:     nights,
		NumGuests:     in.NumGuests,
		PropertyPrice: nightPrice,
		ExtrasPrice:   0,
		TotalPrice:    nightPrice * float64(nights),
		Status:        enums.BookingUnconfirmed,
		HasBreakfast:  false,
		IsPaid:        false,
		Observations:  in.Observations,
		GuestID:       in.GuestID,
		PropertyID:    in.PropertyID,
	}

	created, err := s.store.Create(ctx, booking)
	if err != nil {
		return model.Booking{}, fmt.Errorf("create booking: %w", err)
	}

	return created, nil
}

// CheckIn confirms an arrival: the booking becomes checked-in and paid, and
// breakfast extras are priced in when requested.
func (s *Service) CheckIn(ctx context.Context, userID, bookingID int64, hasBreakfast bool) (model.Booking, error) {
	if err := s.authz.Require(ctx, userID, enums.PermManageBookings); err != nil {
		return model.Booking{}, err
	}

	booking, err := s.store.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrBookingNotFound) {
			return model.Booking{}, ErrNotFound
		}
		return model.Booking{}, fmt.Errorf("find booking: %w", err)
	}

	if booking.Status != enums.BookingUnconfirmed {
		return model.Booking{}, ruleErrorf("Only unconfirmed bookings can be checked in.")
	}

	setting, err := s.settings.Get(ctx)
	if err != nil {
		return model.Booking{}, fmt.Errorf("load settings: %w", err)
	}

	booking.Status = enums.BookingCheckedIn
	booking.IsPaid = true
	if hasBreakfast {
		booking.HasBreakfast = true
	}

	if booking.HasBreakfast {
		booking.ExtrasPrice = round2(setting.BreakfastPrice * float64(booking.NumNights) * float64(booking.NumGuests))
		booking.TotalPrice = round2(booking.PropertyPrice*float64(booking.NumNights) + booking.ExtrasPrice)
	}

	if err := s.store.UpdateStatus(ctx, booking); err != nil {
		return model.Booking{}, fmt.Errorf("update booking: %w", err)
	}

	return booking, nil
}

func (s *Service) CheckOut(ctx context.Context, userID, bookingID int64) (model.Booking, error) {
	if err := s.authz.Require(ctx, userID, enums.PermManageBookings); err != nil {
		return model.Booking{}, err
	}

	booking, err := s.store.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrBookingNotFound) {
			return model.Booking{}, ErrNotFound
		}
		return model.Booking{}, fmt.Errorf("find booking: %w", err)
	}

	if booking.Status != enums.BookingCheckedIn {
		return model.Booking{}, ruleErrorf("Only checked-in bookings can be checked out.")
	}

	booking.Status = enums.BookingCheckedOut
	if err := s.store.UpdateStatus(ctx, booking); err != nil {
		return model.Booking{}, fmt.Errorf("update booking: %w", err)
	}

	return booking, nil
}

func (s *Service) Delete(ctx context.Context, userID, bookingID int64) error {
	if err := s.authz.Require(ctx, userID, enums.PermManageBookings); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, bookingID); err != nil {
		if errors.Is(err, pgrepo.ErrBookingNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete booking: %w", err)
	}

	return nil
}

// Stats aggregates the last numDays of bookings. Occupancy is the share of
// property-nights filled by confirmed stays.
func (s *Service) Stats(ctx context.Context, userID int64, numDays int) (Stats, error) {
	if err := s.authz.Require(ctx, userID, enums.PermManageBookings); err != nil {
		return Stats{}, err
	}
	if numDays <= 0 {
		numDays = 7
	}

	after := s.now().AddDate(0, 0, -numDays)
	bookings, err := s.store.CreatedSince(ctx, after)
	if err != nil {
		return Stats{}, fmt.Errorf("load bookings: %w", err)
	}

	propertyCount, err := s.properties.Count(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("count properties: %w", err)
	}

	stats := Stats{
		NumBookings: len(bookings),
		Bookings:    bookings,
	}

	var confirmedNights int
	for _, booking := range bookings {
		stats.Sales += booking.TotalPrice
		if booking.Status == enums.BookingCheckedIn || booking.Status == enums.BookingCheckedOut {
			stats.ConfirmedStays = append(stats.ConfirmedStays, booking)
			confirmedNights += booking.NumNights
		}
	}
	stats.Sales = round2(stats.Sales)
	stats.ConfirmedStaysCount = len(stats.ConfirmedStays)

	if propertyCount > 0 {
		rate := float64(confirmedNights) / (float64(numDays) * float64(propertyCount))
		stats.OccupancyRate = round2(rate * 100)
	}

	return stats, nil
}

func (s *Service) TodayActivity(ctx context.Context, userID int64) ([]model.Booking, error) {
	if err := s.authz.Require(ctx, userID, enums.PermManageBookings); err != nil {
		return nil, err
	}

	bookings, err := s.store.TodayActivity(ctx)
	if err != nil {
		return nil, fmt.Errorf("load today activity: %w", err)
	}

	return bookings, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
