package models

import "time"

// MinOrderTotal is the smallest raw cart total that can be checked out
const MinOrderTotal int64 = 50000

// MaxLineQuantity caps the units of one item in a single order
const MaxLineQuantity = 999

// OrderTypeCreate tags payloads produced by the storefront checkout
const OrderTypeCreate = "order_create"

// Location is a delivery point reported by the geolocation provider
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether both coordinates were captured
func (l Location) Valid() bool {
	return l.Lat != 0 && l.Lng != 0
}

// OrderLine is a snapshot of one cart entry at submission time
type OrderLine struct {
	FoodID int64  `json:"food_id"`
	Name   string `json:"name"`
	Qty    int    `json:"qty"`
	Price  int64  `json:"price"`
}

// OrderPayload is the message handed to the host bridge on checkout
type OrderPayload struct {
	Type            string      `json:"type"`
	OrderID         string      `json:"order_id"`
	Items           []OrderLine `json:"items"`
	Total           int64       `json:"total"`
	CustomerName    string      `json:"customer_name"`
	Phone           string      `json:"phone"`
	Comment         *string     `json:"comment"`
	Location        *Location   `json:"location"`
	PromoCode       *string     `json:"promo_code"`
	CreatedAtClient time.Time   `json:"created_at_client"`
}

// OrderStatus is the lifecycle state of an accepted order
type OrderStatus string

const (
	OrderStatusNew             OrderStatus = "NEW"
	OrderStatusConfirmed       OrderStatus = "CONFIRMED"
	OrderStatusCooking         OrderStatus = "COOKING"
	OrderStatusCourierAssigned OrderStatus = "COURIER_ASSIGNED"
	OrderStatusOutForDelivery  OrderStatus = "OUT_FOR_DELIVERY"
	OrderStatusDelivered       OrderStatus = "DELIVERED"
	OrderStatusCanceled        OrderStatus = "CANCELED"
)

// orderFlow lists the statuses each status may move to. An order may be
// canceled at any point before delivery.
var orderFlow = map[OrderStatus][]OrderStatus{
	OrderStatusNew:             {OrderStatusConfirmed, OrderStatusCanceled},
	OrderStatusConfirmed:       {OrderStatusCooking, OrderStatusCanceled},
	OrderStatusCooking:         {OrderStatusCourierAssigned, OrderStatusCanceled},
	OrderStatusCourierAssigned: {OrderStatusOutForDelivery, OrderStatusCanceled},
	OrderStatusOutForDelivery:  {OrderStatusDelivered, OrderStatusCanceled},
	OrderStatusDelivered:       nil,
	OrderStatusCanceled:        nil,
}

// Valid reports whether s is a known status
func (s OrderStatus) Valid() bool {
	_, ok := orderFlow[s]
	return ok
}

// Final reports whether no further transition is possible
func (s OrderStatus) Final() bool {
	return s.Valid() && len(orderFlow[s]) == 0
}

// CanMoveTo reports whether an order in status s may move to next
func (s OrderStatus) CanMoveTo(next OrderStatus) bool {
	for _, allowed := range orderFlow[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Order represents an order accepted by the host
type Order struct {
	ID           string      `json:"id"`
	Number       string      `json:"order_number"`
	UserID       int64       `json:"user_id,omitempty"`
	CustomerName string      `json:"customer_name"`
	Phone        string      `json:"phone"`
	Comment      string      `json:"comment,omitempty"`
	Items        []OrderLine `json:"items"`
	Total        int64       `json:"total"`
	Location     Location    `json:"location"`
	PromoCode    string      `json:"promo_code,omitempty"`
	Status       OrderStatus `json:"status"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
	DeliveredAt  *time.Time  `json:"delivered_at,omitempty"`
}
