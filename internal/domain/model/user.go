package model

import "time"

type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Avatar       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Guest struct {
	ID          int64
	UserID      int64
	NationalID  string
	Nationality string
	CountryFlag string
	User        *User
}
