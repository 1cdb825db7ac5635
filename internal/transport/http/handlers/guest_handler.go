package handlers

import (
	"net/http"

	"go.uber.org/zap"

	authsvc "github.com/WillRy/kabanas-api/internal/services/auth"
	guestssvc "github.com/WillRy/kabanas-api/internal/services/guests"
	"github.com/WillRy/kabanas-api/internal/transport/http/dto"
	httperrors "github.com/WillRy/kabanas-api/internal/transport/http/errors"
)

type GuestHandler struct {
	guests *guestssvc.Service
	logger *zap.Logger
}

func NewGuestHandler(guests *guestssvc.Service, logger *zap.Logger) *GuestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &GuestHandler{guests: guests, logger: logger}
}

func (h *GuestHandler) Autocomplete(w http.ResponseWriter, r *http.Request) {
	if _, ok := authsvc.IdentityFromContext(r.Context()); !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	guests, err := h.guests.Autocomplete(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		h.logger.Error("guest autocomplete failed", zap.Error(err))
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
		return
	}

	items := make([]dto.GuestResponse, 0, len(guests))
	for _, guest := range guests {
		items = append(items, dto.NewGuestResponse(guest))
	}

	httperrors.Write(w, http.StatusOK, items)
}
