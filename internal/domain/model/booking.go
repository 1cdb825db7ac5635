package model

import (
	"time"

	"github.com/WillRy/kabanas-api/internal/domain/enums"
)

type Booking struct {
	ID            int64
	StartDate     time.Time
	EndDate       time.Time
	NumNights     int
	NumGuests     int
	PropertyPrice float64
	ExtrasPrice   float64
	TotalPrice    float64
	Status        enums.BookingStatus
	HasBreakfast  bool
	IsPaid        bool
	Observations  string
	GuestID       int64
	PropertyID    int64
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Guest    *Guest
	Property *Property
}
