package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Lixing-Zhang/fiesta-storefront/internal/models"
	"github.com/Lixing-Zhang/fiesta-storefront/internal/promo"
)

// promoValidator is the interface for promo code lookup and management
type promoValidator interface {
	Validate(ctx context.Context, code string) (models.PromoResult, error)
	Create(ctx context.Context, p models.Promo) (models.Promo, error)
	List() []models.Promo
	GetStats() map[string]interface{}
}

// PromoHandler handles HTTP requests for promo validation
type PromoHandler struct {
	validator promoValidator
	logger    *slog.Logger
}

// NewPromoHandler creates a new PromoHandler
func NewPromoHandler(validator promoValidator, logger *slog.Logger) *PromoHandler {
	return &PromoHandler{
		validator: validator,
		logger:    logger,
	}
}

// ValidatePromo handles GET /api/promo/validate?code=
func (h *PromoHandler) ValidatePromo(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(r.URL.Query().Get("code"))
	if code == "" {
		WriteError(w, http.StatusBadRequest, "code is required", h.logger)
		return
	}

	result, err := h.validator.Validate(r.Context(), code)
	if err != nil {
		if !errors.Is(err, promo.ErrNotFound) {
			h.logger.Info("promo code rejected", "code", strings.ToUpper(code), "reason", err)
		}
		WriteError(w, http.StatusNotFound, "promo code not found or expired", h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, result, h.logger)
}

// GetStats handles GET /api/promo/stats (for debugging/monitoring)
func (h *PromoHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.validator.GetStats(), h.logger)
}

// CreatePromo handles POST /api/admin/promos. A blank code is generated.
func (h *PromoHandler) CreatePromo(w http.ResponseWriter, r *http.Request) {
	var req models.Promo
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.logger)
		return
	}

	created, err := h.validator.Create(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, promo.ErrDuplicate):
			WriteError(w, http.StatusConflict, "promo code already exists", h.logger)
		case errors.Is(err, promo.ErrInvalid):
			WriteError(w, http.StatusBadRequest, err.Error(), h.logger)
		default:
			h.logger.Error("failed to create promo", "error", err)
			WriteError(w, http.StatusInternalServerError, "Internal server error", h.logger)
		}
		return
	}

	h.logger.Info("promo created", "code", created.Code, "discount_percent", created.DiscountPercent)
	WriteJSON(w, http.StatusCreated, created, h.logger)
}

// ListPromos handles GET /api/admin/promos
func (h *PromoHandler) ListPromos(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.validator.List(), h.logger)
}
