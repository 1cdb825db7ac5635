package model

import "time"

type Property struct {
	ID           int64
	Name         string
	MaxCapacity  int
	RegularPrice float64
	Discount     float64
	Description  string
	Image        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}
