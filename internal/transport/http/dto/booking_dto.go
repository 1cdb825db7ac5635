package dto

import (
	"time"

	"github.com/WillRy/kabanas-api/internal/domain/model"
)

const dateLayout = "2006-01-02"

type BookingCreateRequest struct {
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	NumGuests    int    `json:"num_guests"`
	Observations string `json:"observations"`
	GuestID      int64  `json:"guest_id"`
	PropertyID   int64  `json:"property_id"`
}

func (r BookingCreateRequest) Dates() (start, end time.Time, err error) {
	start, err = time.Parse(dateLayout, r.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err = time.Parse(dateLayout, r.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

type CheckInRequest struct {
	HasBreakfast bool `json:"has_breakfast"`
}

type BookingResponse struct {
	ID            int64             `json:"id"`
	StartDate     string            `json:"start_date"`
	EndDate       string            `json:"end_date"`
	NumNights     int               `json:"num_nights"`
	NumGuests     int               `json:"num_guests"`
	PropertyPrice float64           `json:"property_price"`
	ExtrasPrice   float64           `json:"extras_price"`
	TotalPrice    float64           `json:"total_price"`
	Status        string            `json:"status"`
	HasBreakfast  bool              `json:"has_breakfast"`
	IsPaid        bool              `json:"is_paid"`
	Observations  string            `json:"observations,omitempty"`
	GuestID       int64             `json:"guest_id"`
	PropertyID    int64             `json:"property_id"`
	Guest         *GuestResponse    `json:"guest,omitempty"`
	Property      *PropertyResponse `json:"property,omitempty"`
}

func NewBookingResponse(booking model.Booking) BookingResponse {
	resp := BookingResponse{
		ID:            booking.ID,
		StartDate:     booking.StartDate.Format(dateLayout),
		EndDate:       booking.EndDate.Format(dateLayout),
		NumNights:     booking.NumNights,
		NumGuests:     booking.NumGuests,
		PropertyPrice: booking.PropertyPrice,
		ExtrasPrice:   booking.ExtrasPrice,
		TotalPrice:    booking.TotalPrice,
		Status:        string(booking.Status),
		HasBreakfast:  booking.HasBreakfast,
		IsPaid:        booking.IsPaid,
		Observations:  booking.Observations,
		GuestID:       booking.GuestID,
		PropertyID:    booking.PropertyID,
	}
	if booking.Guest != nil {
		guest := NewGuestResponse(*booking.Guest)
		resp.Guest = &guest
	}
	if booking.Property != nil {
		property := NewPropertyResponse(*booking.Property, "")
		resp.Property = &property
	}
	return resp
}

func NewBookingResponses(bookings []model.Booking) []BookingResponse {
	items := make([]BookingResponse, 0, len(bookings))
	for _, booking := range bookings {
		items = append(items, NewBookingResponse(booking))
	}
	return items
}

type BookingStatsResponse struct {
	NumBookings         int               `json:"num_bookings"`
	Sales               float64           `json:"sales"`
	OccupancyRate       float64           `json:"occupancy_rate"`
	ConfirmedStaysCount int               `json:"confirmed_stays_count"`
	ConfirmedStays      []BookingResponse `json:"confirmed_stays"`
	Bookings            []BookingResponse `json:"bookings"`
}
