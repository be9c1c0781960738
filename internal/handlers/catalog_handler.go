package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Lixing-Zhang/fiesta-storefront/internal/catalog"
	"github.com/Lixing-Zhang/fiesta-storefront/internal/service"
)

// CatalogHandler handles menu HTTP requests
type CatalogHandler struct {
	service *service.CatalogService
	logger  *slog.Logger
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(service *service.CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		logger:  logger,
	}
}

// ListCategories handles GET /api/categories
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		h.logger.Error("failed to list categories", "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, categories, h.logger)
}

// ListFoods handles GET /api/foods?category_id=&sort=
// An unknown sort value leaves the catalog order unchanged.
func (h *CatalogHandler) ListFoods(w http.ResponseWriter, r *http.Request) {
	var q service.FoodQuery

	if raw := r.URL.Query().Get("category_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 0 {
			h.logger.Warn("invalid category_id", "category_id", raw)
			WriteError(w, http.StatusBadRequest, "Invalid category_id", h.logger)
			return
		}
		q.CategoryID = id
	}

	if key, ok := catalog.ParseSortKey(r.URL.Query().Get("sort")); ok {
		q.Sort = key
	}

	foods, err := h.service.ListFoods(r.Context(), q)
	if err != nil {
		h.logger.Error("failed to list foods", "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, foods, h.logger)
}
