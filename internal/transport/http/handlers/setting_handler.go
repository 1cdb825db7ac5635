package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/WillRy/kabanas-api/internal/domain/model"
	authsvc "github.com/WillRy/kabanas-api/internal/services/auth"
	"github.com/WillRy/kabanas-api/internal/services/authz"
	settingssvc "github.com/WillRy/kabanas-api/internal/services/settings"
	"github.com/WillRy/kabanas-api/internal/transport/http/dto"
	httperrors "github.com/WillRy/kabanas-api/internal/transport/http/errors"
)

type SettingHandler struct {
	settings *settingssvc.Service
	logger   *zap.Logger
}

func NewSettingHandler(settings *settingssvc.Service, logger *zap.Logger) *SettingHandler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SettingHandler{settings: settings, logger: logger}
}

func (h *SettingHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, ok := authsvc.IdentityFromContext(r.Context()); !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	setting, err := h.settings.Get(r.Context())
	if err != nil {
		h.logger.Error("load settings failed", zap.Error(err))
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.NewSettingResponse(setting))
}

func (h *SettingHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	var req dto.SettingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	setting, err := h.settings.Update(r.Context(), identity.UserID, model.Setting{
		MinBookingLength:    req.MinBookingLength,
		MaxBookingLength:    req.MaxBookingLength,
		MaxGuestsPerBooking: req.MaxGuestsPerBooking,
		BreakfastPrice:      req.BreakfastPrice,
	})
	if err != nil {
		switch {
		case errors.Is(err, authz.ErrPermissionDenied):
			writeForbidden(w, "FORBIDDEN", "permission denied")
		case errors.Is(err, settingssvc.ErrValidation):
			writeUnprocessable(w, "VALIDATION_ERROR", "invalid settings")
		default:
			h.logger.Error("update settings failed", zap.Error(err))
			writeInternal(w, "INTERNAL_ERROR", "internal server error")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.NewSettingResponse(setting))
}
