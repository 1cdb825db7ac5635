package dto

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type AuthTokensResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresInSec int64        `json:"expires_in_sec"`
	User         UserResponse `json:"user"`
}

type StartPasswordResetRequest struct {
	Email string `json:"email"`
}

type PasswordResetRequest struct {
	Email    string `json:"email"`
	Code     string `json:"code"`
	Password string `json:"password"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}
