package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	authsvc "github.com/WillRy/kabanas-api/internal/services/auth"
	"github.com/WillRy/kabanas-api/internal/services/authz"
	bookingssvc "github.com/WillRy/kabanas-api/internal/services/bookings"
	"github.com/WillRy/kabanas-api/internal/transport/http/dto"
	httperrors "github.com/WillRy/kabanas-api/internal/transport/http/errors"
)

type BookingHandler struct {
	bookings *bookingssvc.Service
	logger   *zap.Logger
}

func NewBookingHandler(bookings *bookingssvc.Service, logger *zap.Logger) *BookingHandler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &BookingHandler{bookings: bookings, logger: logger}
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	query := r.URL.Query()
	page, _ := strconv.Atoi(query.Get("page"))

	result, err := h.bookings.List(r.Context(), identity.UserID, query.Get("sort_by"), query.Get("sort_order"), query.Get("status"), page)
	if err != nil {
		h.handleError(w, err, "list bookings")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.PaginatedResponse[dto.BookingResponse]{
		Items:   dto.NewBookingResponses(result.Items),
		Total:   result.Total,
		Page:    result.Page,
		PerPage: result.PerPage,
	})
}

func (h *BookingHandler) View(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	bookingID, ok := idParam(r)
	if !ok {
		writeBadRequest(w, "INVALID_REQUEST", "invalid booking id")
		return
	}

	booking, err := h.bookings.View(r.Context(), identity.UserID, bookingID)
	if err != nil {
		h.handleError(w, err, "view booking")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.NewBookingResponse(booking))
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	var req dto.BookingCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	start, end, err := req.Dates()
	if err != nil {
		writeUnprocessable(w, "VALIDATION_ERROR", "dates must use the YYYY-MM-DD format")
		return
	}
	if req.NumGuests <= 0 || req.GuestID <= 0 || req.PropertyID <= 0 {
		writeUnprocessable(w, "VALIDATION_ERROR", "num_guests, guest_id and property_id are required")
		return
	}

	booking, err := h.bookings.Create(r.Context(), identity.UserID, bookingssvc.CreateInput{
		StartDate:    start,
		EndDate:      end,
		NumGuests:    req.NumGuests,
		Observations: req.Observations,
		GuestID:      req.GuestID,
		PropertyID:   req.PropertyID,
	})
	if err != nil {
		h.handleError(w, err, "create booking")
		return
	}

	httperrors.Write(w, http.StatusCreated, dto.NewBookingResponse(booking))
}

func (h *BookingHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	bookingID, ok := idParam(r)
	if !ok {
		writeBadRequest(w, "INVALID_REQUEST", "invalid booking id")
		return
	}

	var req dto.CheckInRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
			return
		}
	}

	booking, err := h.bookings.CheckIn(r.Context(), identity.UserID, bookingID, req.HasBreakfast)
	if err != nil {
		h.handleError(w, err, "check in booking")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.NewBookingResponse(booking))
}

func (h *BookingHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	bookingID, ok := idParam(r)
	if !ok {
		writeBadRequest(w, "INVALID_REQUEST", "invalid booking id")
		return
	}

	booking, err := h.bookings.CheckOut(r.Context(), identity.UserID, bookingID)
	if err != nil {
		h.handleError(w, err, "check out booking")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.NewBookingResponse(booking))
}

func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	bookingID, ok := idParam(r)
	if !ok {
		writeBadRequest(w, "INVALID_REQUEST", "invalid booking id")
		return
	}

	if err := h.bookings.Delete(r.Context(), identity.UserID, bookingID); err != nil {
		h.handleError(w, err, "delete booking")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *BookingHandler) Stats(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	numDays, _ := strconv.Atoi(r.URL.Query().Get("last"))

	stats, err := h.bookings.Stats(r.Context(), identity.UserID, numDays)
	if err != nil {
		h.handleError(w, err, "booking stats")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.BookingStatsResponse{
		NumBookings:         stats.NumBookings,
		Sales:               stats.Sales,
		OccupancyRate:       stats.OccupancyRate,
		ConfirmedStaysCount: stats.ConfirmedStaysCount,
		ConfirmedStays:      dto.NewBookingResponses(stats.ConfirmedStays),
		Bookings:            dto.NewBookingResponses(stats.Bookings),
	})
}

func (h *BookingHandler) TodayActivity(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	bookings, err := h.bookings.TodayActivity(r.Context(), identity.UserID)
	if err != nil {
		h.handleError(w, err, "today activity")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.NewBookingResponses(bookings))
}

func (h *BookingHandler) handleError(w http.ResponseWriter, err error, action string) {
	var ruleErr *bookingssvc.RuleError
	switch {
	case errors.Is(err, authz.ErrPermissionDenied):
		writeForbidden(w, "FORBIDDEN", "permission denied")
	case errors.Is(err, bookingssvc.ErrNotFound):
		writeNotFound(w, "NOT_FOUND", "not found")
	case errors.As(err, &ruleErr):
		writeUnprocessable(w, "BOOKING_RULE_VIOLATION", ruleErr.Message)
	default:
		h.logger.Error(action+" failed", zap.Error(err))
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}

func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
