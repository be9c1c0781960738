// Package cart holds the client-side cart and the active promo discount.
package cart

import (
	"errors"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/Lixing-Zhang/fiesta-storefront/internal/models"
)

var ErrDiscountOutOfRange = errors.New("discount percent must be between 0 and 100")

var hundred = decimal.NewFromInt(100)

// Entry is an item in the cart; Quantity is always at least 1
type Entry struct {
	Item     models.FoodItem
	Quantity int
}

// LineTotal is price times quantity
func (e Entry) LineTotal() int64 {
	return e.Item.Price * int64(e.Quantity)
}

// Promo is an applied percentage discount
type Promo struct {
	Code            string
	DiscountPercent float64
}

// Cart is not safe for concurrent use; the storefront event loop owns it
type Cart struct {
	entries map[int64]*Entry
	promo   *Promo
}

// New creates an empty cart with no promo
func New() *Cart {
	return &Cart{
		entries: make(map[int64]*Entry),
	}
}

// AdjustQuantity adds delta to the item's quantity and returns the result.
// An entry whose quantity would drop to zero or below is removed.
func (c *Cart) AdjustQuantity(item models.FoodItem, delta int) int {
	current := 0
	if e, ok := c.entries[item.ID]; ok {
		current = e.Quantity
	}

	qty := current + delta
	if qty <= 0 {
		delete(c.entries, item.ID)
		return 0
	}

	c.entries[item.ID] = &Entry{Item: item, Quantity: qty}
	return qty
}

// Quantity returns how many units of the item are in the cart
func (c *Cart) Quantity(itemID int64) int {
	if e, ok := c.entries[itemID]; ok {
		return e.Quantity
	}
	return 0
}

// Entries returns a copy of the cart contents ordered by item id
func (c *Cart) Entries() []Entry {
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Item.ID < out[j].Item.ID
	})
	return out
}

// Count is the number of units across all entries
func (c *Cart) Count() int {
	n := 0
	for _, e := range c.entries {
		n += e.Quantity
	}
	return n
}

// IsEmpty reports whether the cart has no entries
func (c *Cart) IsEmpty() bool {
	return len(c.entries) == 0
}

// RawTotal is the sum of price times quantity, before any discount
func (c *Cart) RawTotal() int64 {
	var total int64
	for _, e := range c.entries {
		total += e.LineTotal()
	}
	return total
}

// FinalTotal applies the active promo to RawTotal, rounded to the nearest unit
func (c *Cart) FinalTotal() int64 {
	raw := c.RawTotal()
	if c.promo == nil || c.promo.DiscountPercent == 0 {
		return raw
	}

	keep := hundred.Sub(decimal.NewFromFloat(c.promo.DiscountPercent))
	return decimal.NewFromInt(raw).Mul(keep).Div(hundred).Round(0).IntPart()
}

// Discount is the amount taken off by the active promo
func (c *Cart) Discount() int64 {
	return c.RawTotal() - c.FinalTotal()
}

// ApplyPromo replaces the active promo
func (c *Cart) ApplyPromo(p Promo) error {
	if math.IsNaN(p.DiscountPercent) || p.DiscountPercent < 0 || p.DiscountPercent > 100 {
		return ErrDiscountOutOfRange
	}
	c.promo = &p
	return nil
}

// ClearPromo drops the active promo, if any
func (c *Cart) ClearPromo() {
	c.promo = nil
}

// Promo returns the active promo
func (c *Cart) Promo() (Promo, bool) {
	if c.promo == nil {
		return Promo{}, false
	}
	return *c.promo, true
}

// MeetsMinimum reports whether the raw total reaches threshold; discounts are ignored
func (c *Cart) MeetsMinimum(threshold int64) bool {
	return !c.IsEmpty() && c.RawTotal() >= threshold
}

// Lines snapshots the cart as order lines
func (c *Cart) Lines() []models.OrderLine {
	entries := c.Entries()
	lines := make([]models.OrderLine, len(entries))
	for i, e := range entries {
		lines[i] = models.OrderLine{
			FoodID: e.Item.ID,
			Name:   e.Item.Name,
			Qty:    e.Quantity,
			Price:  e.Item.Price,
		}
	}
	return lines
}
