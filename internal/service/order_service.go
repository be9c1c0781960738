package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Lixing-Zhang/fiesta-storefront/internal/cart"
	"github.com/Lixing-Zhang/fiesta-storefront/internal/models"
	"github.com/Lixing-Zhang/fiesta-storefront/internal/repository"
	"github.com/Lixing-Zhang/fiesta-storefront/internal/telegram"
)

var (
	ErrUnsupportedType  = errors.New("unsupported order type")
	ErrBelowMinimum     = errors.New("order total is below the minimum")
	ErrInvalidTotal     = errors.New("order total does not match its items")
	ErrEmptyOrder       = errors.New("order must contain at least one item")
	ErrInvalidQuantity  = errors.New("quantity must be between 1 and 999")
	ErrInvalidProduct   = errors.New("invalid product")
	ErrLocationRequired = errors.New("delivery location is required")
	ErrInvalidPromo     = errors.New("promo code is not valid")
	ErrOrderNotFound    = errors.New("order not found")
	ErrDuplicateOrder   = errors.New("order already submitted")

	ErrInvalidStatus     = errors.New("unknown order status")
	ErrInvalidTransition = errors.New("order status cannot change this way")
)

// PromoRedeemer checks promo codes and records their use
type PromoRedeemer interface {
	Validate(ctx context.Context, code string) (models.PromoResult, error)
	Redeem(ctx context.Context, code string) (models.PromoResult, error)
}

// FoodLookup resolves order lines against the catalog
type FoodLookup interface {
	FoodByID(ctx context.Context, id int64) (*models.FoodItem, error)
}

// OrderService accepts orders submitted from the storefront
type OrderService struct {
	foods  FoodLookup
	orders repository.OrderRepository
	promos PromoRedeemer
	now    func() time.Time
}

// NewOrderService creates a new order service. promos may be nil, in which
// case orders carrying a promo code are rejected.
func NewOrderService(foods FoodLookup, orders repository.OrderRepository, promos PromoRedeemer) *OrderService {
	return &OrderService{
		foods:  foods,
		orders: orders,
		promos: promos,
		now:    time.Now,
	}
}

// CreateOrder validates a storefront payload, redeems its promo code and
// stores the order. user is the verified init data user and may be nil.
func (s *OrderService) CreateOrder(ctx context.Context, user *telegram.User, payload models.OrderPayload) (*models.Order, error) {
	if payload.Type != models.OrderTypeCreate {
		return nil, ErrUnsupportedType
	}
	if len(payload.Items) == 0 {
		return nil, ErrEmptyOrder
	}
	for _, line := range payload.Items {
		if line.Qty <= 0 || line.Qty > models.MaxLineQuantity {
			return nil, ErrInvalidQuantity
		}
	}

	items, err := s.resolveItems(ctx, payload.Items)
	if err != nil {
		return nil, err
	}

	basket := cart.New()
	var raw int64
	for i, line := range payload.Items {
		lineTotal := items[i].Price * int64(line.Qty)
		if items[i].Price > 0 && lineTotal/items[i].Price != int64(line.Qty) {
			return nil, ErrInvalidTotal
		}
		if raw > math.MaxInt64-lineTotal {
			return nil, ErrInvalidTotal
		}
		raw += lineTotal
		basket.AdjustQuantity(items[i], line.Qty)
	}
	// the minimum applies before any discount
	if raw < models.MinOrderTotal {
		return nil, ErrBelowMinimum
	}
	if payload.Location == nil || !payload.Location.Valid() {
		return nil, ErrLocationRequired
	}

	var promoCode string
	if payload.PromoCode != nil && strings.TrimSpace(*payload.PromoCode) != "" {
		if s.promos == nil {
			return nil, ErrInvalidPromo
		}
		res, err := s.promos.Validate(ctx, *payload.PromoCode)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPromo, err)
		}
		if err := basket.ApplyPromo(cart.Promo{Code: res.Code, DiscountPercent: res.DiscountPercent}); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPromo, err)
		}
		promoCode = res.Code
	}
	if payload.Total != basket.FinalTotal() {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidTotal, payload.Total, basket.FinalTotal())
	}

	id := orderID(payload)
	if _, err := s.orders.GetByID(ctx, id); err == nil {
		return nil, ErrDuplicateOrder
	}

	if promoCode != "" {
		// the promo may have run out since it was validated
		if _, err := s.promos.Redeem(ctx, promoCode); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPromo, err)
		}
	}

	now := s.now().UTC()
	order := &models.Order{
		ID:           id,
		Number:       generateOrderNumber(),
		CustomerName: strings.TrimSpace(payload.CustomerName),
		Phone:        strings.TrimSpace(payload.Phone),
		Items:        payload.Items,
		Total:        payload.Total,
		Location:     *payload.Location,
		PromoCode:    promoCode,
		Status:       models.OrderStatusNew,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if payload.Comment != nil {
		order.Comment = strings.TrimSpace(*payload.Comment)
	}
	if user != nil {
		order.UserID = user.ID
		if order.CustomerName == "" {
			order.CustomerName = user.DisplayName()
		}
	}

	if err := s.orders.Save(ctx, order); err != nil {
		if errors.Is(err, repository.ErrDuplicateOrder) {
			return nil, ErrDuplicateOrder
		}
		return nil, fmt.Errorf("failed to save order: %w", err)
	}
	return order, nil
}

// resolveItems looks up every line in the catalog; the submitted price must
// match the catalog price
func (s *OrderService) resolveItems(ctx context.Context, lines []models.OrderLine) ([]models.FoodItem, error) {
	cache := make(map[int64]models.FoodItem, len(lines))
	items := make([]models.FoodItem, len(lines))
	for i, line := range lines {
		food, seen := cache[line.FoodID]
		if !seen {
			found, err := s.foods.FoodByID(ctx, line.FoodID)
			if err != nil {
				return nil, ErrInvalidProduct
			}
			food = *found
			cache[line.FoodID] = food
		}
		if line.Price != food.Price {
			return nil, ErrInvalidProduct
		}
		items[i] = food
	}
	return items, nil
}

// UpdateStatus moves an order along its lifecycle
func (s *OrderService) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	order, err := s.orders.Update(ctx, id, func(o *models.Order) error {
		if !o.Status.CanMoveTo(status) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, o.Status, status)
		}
		now := s.now().UTC()
		o.Status = status
		o.UpdatedAt = now
		if status == models.OrderStatusDelivered {
			o.DeliveredAt = &now
		}
		return nil
	})
	if errors.Is(err, repository.ErrOrderNotFound) {
		return nil, ErrOrderNotFound
	}
	return order, err
}

// GetOrder returns an accepted order by ID
func (s *OrderService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return nil, ErrOrderNotFound
	}
	return order, err
}

// orderID keeps the client generated id when it is a valid UUID
func orderID(payload models.OrderPayload) string {
	if id, err := uuid.Parse(payload.OrderID); err == nil {
		return id.String()
	}
	return uuid.New().String()
}

// generateOrderNumber returns a short human readable order number
func generateOrderNumber() string {
	return "F" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
