package dto

import "github.com/WillRy/kabanas-api/internal/domain/model"

type SettingRequest struct {
	MinBookingLength    int     `json:"min_booking_length"`
	MaxBookingLength    int     `json:"max_booking_length"`
	MaxGuestsPerBooking int     `json:"max_guests_per_booking"`
	BreakfastPrice      float64 `json:"breakfast_price"`
}

type SettingResponse struct {
	ID                  int64   `json:"id"`
	MinBookingLength    int     `json:"min_booking_length"`
	MaxBookingLength    int     `json:"max_booking_length"`
	MaxGuestsPerBooking int     `json:"max_guests_per_booking"`
	BreakfastPrice      float64 `json:"breakfast_price"`
}

func NewSettingResponse(setting model.Setting) SettingResponse {
	return SettingResponse{
		ID:                  setting.ID,
		MinBookingLength:    setting.MinBookingLength,
		MaxBookingLength:    setting.MaxBookingLength,
		MaxGuestsPerBooking: setting.MaxGuestsPerBooking,
		BreakfastPrice:      setting.BreakfastPrice,
	}
}
