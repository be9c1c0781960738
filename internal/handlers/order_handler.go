package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Lixing-Zhang/fiesta-storefront/internal/middleware"
	"github.com/Lixing-Zhang/fiesta-storefront/internal/models"
	"github.com/Lixing-Zhang/fiesta-storefront/internal/money"
	"github.com/Lixing-Zhang/fiesta-storefront/internal/service"
)

// OrderHandler receives orders submitted from the storefront
type OrderHandler struct {
	orderService *service.OrderService
	log          *slog.Logger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *service.OrderService, log *slog.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		log:          log,
	}
}

// CreateOrder handles POST /api/webapp/order
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var payload models.OrderPayload

	if err := decodeJSON(w, r, &payload); err != nil {
		h.log.Warn("failed to decode order payload", "error", err)
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.log)
		return
	}

	user, _ := middleware.UserFromContext(r.Context())

	order, err := h.orderService.CreateOrder(r.Context(), user, payload)
	if err != nil {
		h.log.Warn("order rejected", "order_id", payload.OrderID, "error", err)

		switch {
		case errors.Is(err, service.ErrUnsupportedType):
			WriteError(w, http.StatusBadRequest, "Unsupported order type", h.log)
		case errors.Is(err, service.ErrBelowMinimum):
			WriteError(w, http.StatusBadRequest, "Minimum order total is "+money.Format(models.MinOrderTotal), h.log)
		case errors.Is(err, service.ErrInvalidTotal):
			WriteError(w, http.StatusBadRequest, "Order total does not match its items", h.log)
		case errors.Is(err, service.ErrEmptyOrder):
			WriteError(w, http.StatusBadRequest, "Cart is empty", h.log)
		case errors.Is(err, service.ErrLocationRequired):
			WriteError(w, http.StatusBadRequest, "Delivery location is required", h.log)
		case errors.Is(err, service.ErrInvalidQuantity):
			WriteError(w, http.StatusBadRequest, "Quantity must be between 1 and 999", h.log)
		case errors.Is(err, service.ErrInvalidProduct):
			WriteError(w, http.StatusBadRequest, "Invalid product", h.log)
		case errors.Is(err, service.ErrInvalidPromo):
			WriteError(w, http.StatusBadRequest, "Promo code is invalid or expired", h.log)
		case errors.Is(err, service.ErrDuplicateOrder):
			WriteError(w, http.StatusConflict, "Order already submitted", h.log)
		default:
			h.log.Error("failed to create order", "error", err)
			WriteError(w, http.StatusInternalServerError, "Internal server error", h.log)
		}
		return
	}

	WriteJSON(w, http.StatusCreated, order, h.log)
	h.log.Info("order accepted",
		"order_id", order.ID,
		"order_number", order.Number,
		"items_count", len(order.Items),
		"total", order.Total,
	)
}

// GetOrder handles GET /api/webapp/order/{orderId}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	order, err := h.orderService.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			WriteError(w, http.StatusNotFound, "Order not found", h.log)
			return
		}
		h.log.Error("failed to get order", "order_id", orderID, "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.log)
		return
	}

	// orders are only visible to the Telegram user who placed them
	if user, ok := middleware.UserFromContext(r.Context()); !ok || user.ID != order.UserID {
		WriteError(w, http.StatusNotFound, "Order not found", h.log)
		return
	}

	WriteJSON(w, http.StatusOK, order, h.log)
}

type statusRequest struct {
	Status models.OrderStatus `json:"status"`
}

// UpdateStatus handles POST /api/admin/orders/{orderId}/status
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.log)
		return
	}

	order, err := h.orderService.UpdateStatus(r.Context(), orderID, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			WriteError(w, http.StatusNotFound, "Order not found", h.log)
		case errors.Is(err, service.ErrInvalidStatus):
			WriteError(w, http.StatusBadRequest, "Unknown order status", h.log)
		case errors.Is(err, service.ErrInvalidTransition):
			WriteError(w, http.StatusConflict, err.Error(), h.log)
		default:
			h.log.Error("failed to update order status", "order_id", orderID, "error", err)
			WriteError(w, http.StatusInternalServerError, "Internal server error", h.log)
		}
		return
	}

	h.log.Info("order status changed", "order_id", order.ID, "status", order.Status)
	WriteJSON(w, http.StatusOK, order, h.log)
}
