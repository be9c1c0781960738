package storefront

import (
	"fmt"
	"strconv"

	"github.com/Lixing-Zhang/fiesta-storefront/internal/catalog"
	"github.com/Lixing-Zhang/fiesta-storefront/internal/models"
	"github.com/Lixing-Zhang/fiesta-storefront/internal/money"
)

// Renderer is the presentation layer; it receives a fresh View after
// every state change, on the event loop goroutine. Render must not call
// back into the Controller.
type Renderer interface {
	Render(View)
}

// RenderFunc adapts a function to Renderer
type RenderFunc func(View)

func (f RenderFunc) Render(v View) { f(v) }

// View is an immutable snapshot of everything the storefront displays
type View struct {
	Loading    bool
	LoadError  string
	Categories []models.Category
	Criteria   catalog.Criteria
	Items      []ItemView

	Cart     CartView
	Checkout CheckoutView
	Promo    PromoView
	Location LocationView
	Customer Customer

	Submitting  bool
	SubmitError string
	Submitted   bool
	Closed      bool
}

// ItemView is a food card with its cart control state
type ItemView struct {
	models.FoodItem
	Quantity  int
	PriceText string
}

// CartView is the floating cart bar
type CartView struct {
	Visible         bool
	Count           int
	RawTotal        int64
	TotalText       string
	CheckoutEnabled bool
	CheckoutHint    string
}

// LineView is one row in the checkout sheet
type LineView struct {
	models.OrderLine
	LineTotalText string
}

// CheckoutView is the checkout sheet summary
type CheckoutView struct {
	Lines           []LineView
	RawTotal        int64
	Discount        int64
	DiscountPercent float64
	FinalTotal      int64
	RawTotalText    string
	DiscountText    string
	FinalTotalText  string
}

// PromoView is the promo input status
type PromoView struct {
	Code    string
	Pending bool
	Applied bool
	Message string
}

// LocationView is the delivery location status
type LocationView struct {
	Location *models.Location
	Pending  bool
	Message  string
}

// Customer holds the checkout form fields
type Customer struct {
	Name    string
	Phone   string
	Comment string
}

func (c *Controller) view() View {
	s := c.st

	v := View{
		Loading:     s.loading,
		LoadError:   s.loadErr,
		Categories:  append([]models.Category(nil), s.categories...),
		Criteria:    s.criteria,
		Customer:    s.customer,
		Submitting:  s.submitting,
		SubmitError: s.submitErr,
		Submitted:   s.submitted,
		Closed:      s.closed,
		Promo: PromoView{
			Pending: s.promoPending,
			Message: s.promoMsg,
		},
		Location: LocationView{
			Pending: s.geoPending,
			Message: s.geoMsg,
		},
	}

	visible := catalog.Filter(s.foods, s.criteria)
	v.Items = make([]ItemView, len(visible))
	for i, item := range visible {
		v.Items[i] = ItemView{
			FoodItem:  item,
			Quantity:  s.cart.Quantity(item.ID),
			PriceText: money.Format(item.Price),
		}
	}

	raw := s.cart.RawTotal()
	v.Cart = CartView{
		Visible:         !s.cart.IsEmpty(),
		Count:           s.cart.Count(),
		RawTotal:        raw,
		TotalText:       money.Format(raw),
		CheckoutEnabled: s.cart.MeetsMinimum(c.cfg.MinOrder),
	}
	if v.Cart.Visible && !v.Cart.CheckoutEnabled {
		v.Cart.CheckoutHint = "Minimum " + money.Format(c.cfg.MinOrder)
	}

	lines := s.cart.Lines()
	v.Checkout = CheckoutView{
		Lines:          make([]LineView, len(lines)),
		RawTotal:       raw,
		Discount:       s.cart.Discount(),
		FinalTotal:     s.cart.FinalTotal(),
		RawTotalText:   money.Format(raw),
		FinalTotalText: money.Format(s.cart.FinalTotal()),
	}
	for i, l := range lines {
		v.Checkout.Lines[i] = LineView{
			OrderLine:     l,
			LineTotalText: money.Format(l.Price * int64(l.Qty)),
		}
	}

	if p, ok := s.cart.Promo(); ok {
		v.Promo.Code = p.Code
		v.Promo.Applied = true
		v.Checkout.DiscountPercent = p.DiscountPercent
		v.Checkout.DiscountText = fmt.Sprintf("−%s (%s%%)", money.Format(v.Checkout.Discount), formatPercent(p.DiscountPercent))
	}

	if s.location != nil {
		loc := *s.location
		v.Location.Location = &loc
	}

	return v
}

func formatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
