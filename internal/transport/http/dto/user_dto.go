package dto

import "github.com/WillRy/kabanas-api/internal/domain/model"

type UserResponse struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Avatar      string   `json:"avatar,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

func NewUserResponse(user model.User, permissions []string) UserResponse {
	return UserResponse{
		ID:          user.ID,
		Name:        user.Name,
		Email:       user.Email,
		Avatar:      user.Avatar,
		Permissions: permissions,
	}
}

type UpdateProfileRequest struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}
