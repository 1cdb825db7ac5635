package dto

import "github.com/WillRy/kabanas-api/internal/domain/model"

type PropertyRequest struct {
	Name         string  `json:"name"`
	MaxCapacity  int     `json:"max_capacity"`
	RegularPrice float64 `json:"regular_price"`
	Discount     float64 `json:"discount"`
	Description  string  `json:"description"`
	Image        string  `json:"image"`
}

type PropertyResponse struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	MaxCapacity  int     `json:"max_capacity"`
	RegularPrice float64 `json:"regular_price"`
	Discount     float64 `json:"discount"`
	Description  string  `json:"description"`
	Image        string  `json:"image,omitempty"`
	ImageURL     string  `json:"image_url,omitempty"`
}

func NewPropertyResponse(property model.Property, imageURL string) PropertyResponse {
	return PropertyResponse{
		ID:           property.ID,
		Name:         property.Name,
		MaxCapacity:  property.MaxCapacity,
		RegularPrice: property.RegularPrice,
		Discount:     property.Discount,
		Description:  property.Description,
		Image:        property.Image,
		ImageURL:     imageURL,
	}
}

type UnavailableDatesResponse struct {
	Dates []string `json:"dates"`
}
