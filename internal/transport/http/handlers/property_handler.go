package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	authsvc "github.com/WillRy/kabanas-api/internal/services/auth"
	"github.com/WillRy/kabanas-api/internal/services/authz"
	propertiessvc "github.com/WillRy/kabanas-api/internal/services/properties"
	"github.com/WillRy/kabanas-api/internal/transport/http/dto"
	httperrors "github.com/WillRy/kabanas-api/internal/transport/http/errors"
)

type PropertyHandler struct {
	properties *propertiessvc.Service
	logger     *zap.Logger
}

func NewPropertyHandler(properties *propertiessvc.Service, logger *zap.Logger) *PropertyHandler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &PropertyHandler{properties: properties, logger: logger}
}

func (h *PropertyHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	query := r.URL.Query()
	page, _ := strconv.Atoi(query.Get("page"))

	result, err := h.properties.List(r.Context(), identity.UserID, query.Get("sort_by"), query.Get("sort_order"), query.Get("discount"), page)
	if err != nil {
		h.handleError(w, err, "list properties")
		return
	}

	items := make([]dto.PropertyResponse, 0, len(result.Items))
	for _, property := range result.Items {
		url, err := h.properties.ImageURL(r.Context(), property.Image)
		if err != nil {
			h.logger.Warn("presign property image failed", zap.Error(err), zap.Int64("property_id", property.ID))
		}
		items = append(items, dto.NewPropertyResponse(property, url))
	}

	httperrors.Write(w, http.StatusOK, dto.PaginatedResponse[dto.PropertyResponse]{
		Items:   items,
		Total:   result.Total,
		Page:    result.Page,
		PerPage: result.PerPage,
	})
}

func (h *PropertyHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	var req dto.PropertyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	property, err := h.properties.Create(r.Context(), identity.UserID, propertyInput(req))
	if err != nil {
		h.handleError(w, err, "create property")
		return
	}

	httperrors.Write(w, http.StatusCreated, dto.NewPropertyResponse(property, ""))
}

func (h *PropertyHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	propertyID, ok := idParam(r)
	if !ok {
		writeBadRequest(w, "INVALID_REQUEST", "invalid property id")
		return
	}

	var req dto.PropertyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	property, err := h.properties.Update(r.Context(), identity.UserID, propertyID, propertyInput(req))
	if err != nil {
		h.handleError(w, err, "update property")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.NewPropertyResponse(property, ""))
}

func (h *PropertyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	propertyID, ok := idParam(r)
	if !ok {
		writeBadRequest(w, "INVALID_REQUEST", "invalid property id")
		return
	}

	if err := h.properties.Delete(r.Context(), identity.UserID, propertyID); err != nil {
		h.handleError(w, err, "delete property")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *PropertyHandler) UnavailableDates(w http.ResponseWriter, r *http.Request) {
	propertyID, ok := idParam(r)
	if !ok {
		writeBadRequest(w, "INVALID_REQUEST", "invalid property id")
		return
	}

	dates, err := h.properties.UnavailableDates(r.Context(), propertyID)
	if err != nil {
		h.handleError(w, err, "unavailable dates")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.UnavailableDatesResponse{Dates: dates})
}

func (h *PropertyHandler) handleError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, authz.ErrPermissionDenied):
		writeForbidden(w, "FORBIDDEN", "permission denied")
	case errors.Is(err, propertiessvc.ErrNotFound):
		writeNotFound(w, "NOT_FOUND", "property not found")
	case errors.Is(err, propertiessvc.ErrValidation):
		writeUnprocessable(w, "VALIDATION_ERROR", "invalid property data")
	default:
		h.logger.Error(action+" failed", zap.Error(err))
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}

func propertyInput(req dto.PropertyRequest) propertiessvc.Input {
	return propertiessvc.Input{
		Name:         req.Name,
		MaxCapacity:  req.MaxCapacity,
		RegularPrice: req.RegularPrice,
		Discount:     req.Discount,
		Description:  req.Description,
		Image:        req.Image,
	}
}
