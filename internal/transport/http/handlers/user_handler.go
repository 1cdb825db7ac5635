package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/WillRy/kabanas-api/internal/pkg/validate"
	authsvc "github.com/WillRy/kabanas-api/internal/services/auth"
	"github.com/WillRy/kabanas-api/internal/services/authz"
	userssvc "github.com/WillRy/kabanas-api/internal/services/users"
	"github.com/WillRy/kabanas-api/internal/transport/http/dto"
	httperrors "github.com/WillRy/kabanas-api/internal/transport/http/errors"
)

type UserHandler struct {
	users  *userssvc.Service
	authz  *authz.Checker
	logger *zap.Logger
}

func NewUserHandler(users *userssvc.Service, checker *authz.Checker, logger *zap.Logger) *UserHandler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &UserHandler{users: users, authz: checker, logger: logger}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	user, err := h.users.GetByID(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, userssvc.ErrUserNotFound) {
			writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
			return
		}
		h.logger.Error("load current user failed", zap.Error(err))
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
		return
	}

	permissions, err := h.authz.Permissions(r.Context(), identity.UserID)
	if err != nil {
		h.logger.Warn("permission lookup failed", zap.Error(err), zap.Int64("user_id", identity.UserID))
	}

	httperrors.Write(w, http.StatusOK, dto.NewUserResponse(user, permissions))
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	var req dto.UpdateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}
	if !validate.Required(req.Name) {
		writeUnprocessable(w, "VALIDATION_ERROR", "name is required")
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), identity.UserID, req.Name, req.Avatar)
	if err != nil {
		h.logger.Error("update profile failed", zap.Error(err))
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.NewUserResponse(user, nil))
}
