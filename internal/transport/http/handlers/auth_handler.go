package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	authsvc "github.com/WillRy/kabanas-api/internal/services/auth"
	"github.com/WillRy/kabanas-api/internal/services/authz"
	ratesvc "github.com/WillRy/kabanas-api/internal/services/rate"
	userssvc "github.com/WillRy/kabanas-api/internal/services/users"
	"github.com/WillRy/kabanas-api/internal/transport/http/dto"
	httperrors "github.com/WillRy/kabanas-api/internal/transport/http/errors"
)

type AuthHandler struct {
	auth         *authsvc.Service
	users        *userssvc.Service
	authz        *authz.Checker
	limiter      *ratesvc.Limiter
	logger       *zap.Logger
	refreshTTL   time.Duration
	cookieSecure bool
}

type AuthHandlerConfig struct {
	RefreshTTL   time.Duration
	CookieSecure bool
}

func NewAuthHandler(auth *authsvc.Service, users *userssvc.Service, checker *authz.Checker, limiter *ratesvc.Limiter, logger *zap.Logger, cfg AuthHandlerConfig) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = authsvc.RefreshTokenTTL
	}

	return &AuthHandler{
		auth:         auth,
		users:        users,
		authz:        checker,
		limiter:      limiter,
		logger:       logger,
		refreshTTL:   cfg.RefreshTTL,
		cookieSecure: cfg.CookieSecure,
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.auth == nil || h.users == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}

	var req dto.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	if h.limiter != nil {
		retryAfter, ok, err := h.limiter.AllowLogin(r.Context(), req.Email)
		if err != nil {
			h.logger.Warn("login rate limit check failed", zap.Error(err))
		} else if !ok {
			httperrors.Write(w, http.StatusTooManyRequests, httperrors.RateLimitError{
				Code:          "RATE_LIMITED",
				Message:       "too many login attempts",
				RetryAfterSec: retryAfter,
			})
			return
		}
	}

	user, err := h.users.VerifyPassword(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, userssvc.ErrInvalidCredentials) {
			writeUnauthorized(w, "INVALID_CREDENTIALS", "invalid email or password")
			return
		}
		h.logger.Error("credential verification failed", zap.Error(err))
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
		return
	}

	result, err := h.auth.Login(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("login failed", zap.Error(err))
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
		return
	}

	permissions, err := h.authz.Permissions(r.Context(), user.ID)
	if err != nil {
		h.logger.Warn("permission lookup failed", zap.Error(err), zap.Int64("user_id", user.ID))
	}

	if wantsCookies(r) {
		setAuthCookies(w, result.TokenPair, h.cookieSecure, h.refreshTTL)
	}

	httperrors.Write(w, http.StatusOK, dto.AuthTokensResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		ExpiresInSec: maxInt64(0, int64(time.Until(result.AccessExpires).Seconds())),
		User:         dto.NewUserResponse(user, permissions),
	})
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if h.auth == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}

	var req dto.RefreshRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
			return
		}
	}

	fromCookie := req.RefreshToken == ""
	refreshToken := refreshTokenFromRequest(r, req.RefreshToken)

	pair, err := h.auth.Refresh(r.Context(), refreshToken)
	if err != nil {
		if errors.Is(err, authsvc.ErrInvalidRefreshToken) {
			// A dead refresh token ends the browser session too.
			clearAuthCookies(w, h.cookieSecure)
			writeUnauthorized(w, "INVALID_REFRESH_TOKEN", "Invalid refresh token")
			return
		}
		h.logger.Error("refresh failed", zap.Error(err))
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
		return
	}

	if fromCookie || wantsCookies(r) {
		setAuthCookies(w, pair, h.cookieSecure, h.refreshTTL)
	}

	httperrors.Write(w, http.StatusOK, dto.AuthTokensResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresInSec: maxInt64(0, int64(time.Until(pair.AccessExpires).Seconds())),
	})
}

// Logout answers 204 no matter what: it is safe to call with a missing,
// expired or already revoked token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if h.auth != nil {
		if err := h.auth.Logout(r.Context(), accessTokenFromRequest(r)); err != nil {
			h.logger.Warn("logout failed", zap.Error(err))
		}
	}

	clearAuthCookies(w, h.cookieSecure)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) StartPasswordReset(w http.ResponseWriter, r *http.Request) {
	if h.users == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}

	var req dto.StartPasswordResetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	err := h.users.StartPasswordReset(r.Context(), req.Email)
	if err != nil && !errors.Is(err, userssvc.ErrUserNotFound) {
		h.logger.Error("start password reset failed", zap.Error(err))
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
		return
	}

	// Unknown emails get the same answer as known ones.
	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}

func (h *AuthHandler) PasswordReset(w http.ResponseWriter, r *http.Request) {
	if h.users == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}

	var req dto.PasswordResetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	err := h.users.ResetPasswordWithOtp(r.Context(), req.Email, req.Code, req.Password)
	switch {
	case err == nil:
		httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
	case errors.Is(err, userssvc.ErrWeakPassword):
		writeUnprocessable(w, "WEAK_PASSWORD", "password must be at least 8 characters")
	case errors.Is(err, userssvc.ErrInvalidOtp), errors.Is(err, userssvc.ErrUserNotFound):
		writeUnprocessable(w, "INVALID_OTP", "invalid or expired code")
	default:
		h.logger.Error("password reset failed", zap.Error(err))
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}

func wantsCookies(r *http.Request) bool {
	switch strings.ToLower(r.URL.Query().Get("cookie")) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func bearerToken(value string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(value), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return parts[1], true
}

func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeBadRequest(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusBadRequest, httperrors.APIError{Code: code, Message: message})
}

func writeUnauthorized(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusUnauthorized, httperrors.APIError{Code: code, Message: message})
}

func writeForbidden(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusForbidden, httperrors.APIError{Code: code, Message: message})
}

func writeNotFound(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusNotFound, httperrors.APIError{Code: code, Message: message})
}

func writeUnprocessable(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusUnprocessableEntity, httperrors.APIError{Code: code, Message: message})
}

func writeInternal(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusInternalServerError, httperrors.APIError{Code: code, Message: message})
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
