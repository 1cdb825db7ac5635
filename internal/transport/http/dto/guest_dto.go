package dto

import "github.com/WillRy/kabanas-api/internal/domain/model"

type GuestResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	NationalID  string `json:"national_id,omitempty"`
	Nationality string `json:"nationality,omitempty"`
	CountryFlag string `json:"country_flag,omitempty"`
}

func NewGuestResponse(guest model.Guest) GuestResponse {
	resp := GuestResponse{
		ID:          guest.ID,
		NationalID:  guest.NationalID,
		Nationality: guest.Nationality,
		CountryFlag: guest.CountryFlag,
	}
	if guest.User != nil {
		resp.Name = guest.User.Name
		resp.Email = guest.User.Email
	}
	return resp
}
