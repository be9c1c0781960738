// Package storefront is the state manager behind the storefront web view.
//
// A Controller owns the catalog, filter criteria, cart and promo. All state
// lives on a single event loop goroutine started by Run: UI actions and
// network completions are posted to it as closures, so mutations never run
// concurrently and the state needs no locking. Network calls run on their
// own goroutines and post their results back to the loop.
package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Lixing-Zhang/fiesta-storefront/internal/cart"
	"github.com/Lixing-Zhang/fiesta-storefront/internal/catalog"
	"github.com/Lixing-Zhang/fiesta-storefront/internal/debounce"
	"github.com/Lixing-Zhang/fiesta-storefront/internal/geo"
	"github.com/Lixing-Zhang/fiesta-storefront/internal/hostbridge"
	"github.com/Lixing-Zhang/fiesta-storefront/internal/models"
)

// CatalogAPI is the remote read API
type CatalogAPI interface {
	Categories(ctx context.Context) ([]models.Category, error)
	Foods(ctx context.Context) ([]models.FoodItem, error)
	ValidatePromo(ctx context.Context, code string) (*models.PromoResult, error)
}

// Config tunes the storefront behaviour
type Config struct {
	MinOrder       int64
	SearchDebounce time.Duration
	GeoTimeout     time.Duration
}

// DefaultConfig returns the production settings
func DefaultConfig() Config {
	return Config{
		MinOrder:       models.MinOrderTotal,
		SearchDebounce: 250 * time.Millisecond,
		GeoTimeout:     geo.DefaultTimeout,
	}
}

// Option customizes a Controller
type Option func(*Controller)

// WithRenderer sets the presentation layer
func WithRenderer(r Renderer) Option {
	return func(c *Controller) { c.render = r }
}

// WithClock replaces time.Now for payload timestamps
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

type state struct {
	loading    bool
	loadErr    string
	categories []models.Category
	foods      []models.FoodItem
	byID       map[int64]models.FoodItem

	criteria catalog.Criteria
	cart     *cart.Cart

	promoSeq     uint64
	promoPending bool
	promoMsg     string

	location   *models.Location
	geoPending bool
	geoMsg     string

	customer   Customer
	submitting bool
	submitErr  string
	submitted  bool
	closed     bool
}

// Controller is the single owner of storefront state
type Controller struct {
	api     CatalogAPI
	bridge  hostbridge.Bridge
	locator geo.Provider
	render  Renderer
	log     *slog.Logger
	cfg     Config
	now     func() time.Time

	events   chan func()
	stopped  chan struct{}
	stopOnce sync.Once
	loadOnce atomic.Bool
	search   *debounce.Debouncer

	st *state
}

// New creates a Controller. Other methods block until Run is started.
func New(api CatalogAPI, bridge hostbridge.Bridge, locator geo.Provider, cfg Config, log *slog.Logger, opts ...Option) *Controller {
	c := &Controller{
		api:     api,
		bridge:  bridge,
		locator: locator,
		log:     log,
		cfg:     cfg,
		now:     time.Now,
		events:  make(chan func(), 64),
		stopped: make(chan struct{}),
		search:  debounce.New(cfg.SearchDebounce),
		st: &state{
			byID:     make(map[int64]models.FoodItem),
			criteria: catalog.DefaultCriteria(),
			cart:     cart.New(),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run processes events until ctx is cancelled
func (c *Controller) Run(ctx context.Context) error {
	defer c.stopOnce.Do(func() {
		c.search.Stop()
		close(c.stopped)
	})

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-c.events:
			fn()
		}
	}
}

// post enqueues fn on the event loop
func (c *Controller) post(fn func()) bool {
	select {
	case <-c.stopped:
		return false
	default:
	}

	select {
	case c.events <- fn:
		return true
	case <-c.stopped:
		return false
	}
}

// call runs fn on the event loop and waits for it
func (c *Controller) call(fn func()) error {
	done := make(chan struct{})
	if !c.post(func() {
		defer close(done)
		fn()
	}) {
		return ErrStopped
	}

	select {
	case <-done:
		return nil
	case <-c.stopped:
		return ErrStopped
	}
}

// complete posts fn as the completion of an async operation and closes
// done once it has been applied
func (c *Controller) complete(done chan struct{}, fn func()) {
	if !c.post(func() {
		defer close(done)
		fn()
	}) {
		close(done)
	}
}

func (c *Controller) changed() {
	if c.render != nil {
		c.render.Render(c.view())
	}
}

func closedChan() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// View returns the current snapshot
func (c *Controller) View() (View, error) {
	var v View
	err := c.call(func() { v = c.view() })
	return v, err
}

// Load prefills the customer name from the host and fetches the catalog.
// It runs once per Controller; a failure is terminal and never retried.
func (c *Controller) Load(ctx context.Context) <-chan struct{} {
	if !c.loadOnce.CompareAndSwap(false, true) {
		return closedChan()
	}

	done := make(chan struct{})
	if !c.post(func() {
		c.st.loading = true
		if name := c.bridge.PrefilledName(); name != "" && c.st.customer.Name == "" {
			c.st.customer.Name = name
		}
		c.changed()
	}) {
		close(done)
		return done
	}

	go func() {
		cats, foods, err := c.fetchCatalog(ctx)
		c.complete(done, func() {
			c.st.loading = false
			if err != nil {
				c.log.Error("failed to load catalog", "error", err)
				c.st.loadErr = ErrCatalogUnavailable.Error()
				c.changed()
				return
			}

			c.st.categories = cats
			c.st.foods = foods
			for _, f := range foods {
				c.st.byID[f.ID] = f
			}
			c.log.Info("catalog loaded", "categories", len(cats), "foods", len(foods))
			c.changed()
		})
	}()
	return done
}

// fetchCatalog requests categories and foods concurrently
func (c *Controller) fetchCatalog(ctx context.Context) ([]models.Category, []models.FoodItem, error) {
	var (
		wg       sync.WaitGroup
		cats     []models.Category
		foods    []models.FoodItem
		catsErr  error
		foodsErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		cats, catsErr = c.api.Categories(ctx)
	}()
	go func() {
		defer wg.Done()
		foods, foodsErr = c.api.Foods(ctx)
	}()
	wg.Wait()

	if catsErr != nil {
		return nil, nil, catsErr
	}
	if foodsErr != nil {
		return nil, nil, foodsErr
	}
	return cats, foods, nil
}

// SelectCategory shows only one category, or every item for catalog.AllCategories
func (c *Controller) SelectCategory(category string) error {
	return c.call(func() {
		c.st.criteria.Category = category
		c.changed()
	})
}

// SetSort changes the list order
func (c *Controller) SetSort(key catalog.SortKey) error {
	return c.call(func() {
		c.st.criteria.Sort = key
		c.changed()
	})
}

// Search records search input; only the last input within the debounce
// window re-filters the list.
func (c *Controller) Search(text string) {
	c.search.Trigger(func() {
		c.post(func() {
			c.st.criteria.Search = text
			c.changed()
		})
	})
}

// AdjustQuantity changes an item's cart quantity by delta and returns the
// new quantity; zero means the item left the cart.
func (c *Controller) AdjustQuantity(itemID int64, delta int) (int, error) {
	var (
		qty int
		err error
	)
	callErr := c.call(func() {
		item, ok := c.st.byID[itemID]
		if !ok {
			err = ErrUnknownItem
			return
		}
		qty = c.st.cart.AdjustQuantity(item, delta)
		c.changed()
	})
	if callErr != nil {
		return 0, callErr
	}
	return qty, err
}

// ApplyPromo validates code remotely. Success replaces the active promo;
// any failure clears it. A blank code is ignored.
func (c *Controller) ApplyPromo(ctx context.Context, code string) <-chan struct{} {
	code = strings.TrimSpace(code)
	if code == "" {
		return closedChan()
	}

	done := make(chan struct{})
	if !c.post(func() {
		c.st.promoSeq++
		seq := c.st.promoSeq
		c.st.promoPending = true
		c.st.promoMsg = ""
		c.changed()

		go c.validatePromo(ctx, seq, code, done)
	}) {
		close(done)
	}
	return done
}

func (c *Controller) validatePromo(ctx context.Context, seq uint64, code string, done chan struct{}) {
	res, err := c.api.ValidatePromo(ctx, code)

	c.complete(done, func() {
		// a newer request owns the promo state
		if seq != c.st.promoSeq {
			c.log.Debug("discarding stale promo response", "code", code)
			return
		}
		c.st.promoPending = false

		if err == nil {
			applied := res.Code
			if applied == "" {
				applied = strings.ToUpper(code)
			}
			err = c.st.cart.ApplyPromo(cart.Promo{Code: applied, DiscountPercent: res.DiscountPercent})
		}
		if err != nil {
			c.log.Info("promo rejected", "code", code, "error", err)
			c.st.cart.ClearPromo()
			c.st.promoMsg = ErrPromoRejected.Error()
			c.changed()
			return
		}

		c.st.promoMsg = fmt.Sprintf("Promo code applied: %s%% off", formatPercent(res.DiscountPercent))
		c.changed()
	})
}

// RequestLocation asks the geolocation provider for the delivery point.
// A failure keeps any previously captured location.
func (c *Controller) RequestLocation(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	if !c.post(func() {
		c.st.geoPending = true
		c.st.geoMsg = "Locating..."
		c.changed()
	}) {
		close(done)
		return done
	}

	go func() {
		loc, err := geo.Locate(ctx, c.locator, c.cfg.GeoTimeout)
		c.complete(done, func() {
			c.st.geoPending = false
			if err != nil {
				c.log.Info("location request failed", "error", err)
				c.st.geoMsg = ErrLocationFailed.Error()
				c.changed()
				return
			}
			c.st.location = &loc
			c.st.geoMsg = fmt.Sprintf("Location: %.4f, %.4f", loc.Lat, loc.Lng)
			c.changed()
		})
	}()
	return done
}

// SetCustomer updates the checkout form fields
func (c *Controller) SetCustomer(customer Customer) error {
	return c.call(func() {
		c.st.customer = customer
		c.changed()
	})
}

// Submit checks the checkout preconditions and hands the order to the
// host bridge. A precondition failure is returned immediately and nothing
// is sent. Otherwise the returned channel closes once delivery finished;
// the outcome is visible in the View.
func (c *Controller) Submit(ctx context.Context) (<-chan struct{}, error) {
	done := make(chan struct{})

	var err error
	if callErr := c.call(func() { err = c.beginSubmit(ctx, done) }); callErr != nil {
		close(done)
		return done, callErr
	}
	if err != nil {
		close(done)
		return done, err
	}
	return done, nil
}

func (c *Controller) beginSubmit(ctx context.Context, done chan struct{}) error {
	if err := c.checkSubmit(); err != nil {
		if !errors.Is(err, ErrSubmitInProgress) && !errors.Is(err, ErrAlreadySent) {
			c.st.submitErr = err.Error()
			c.changed()
		}
		return err
	}

	payload := c.buildPayload()
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode order: %w", err)
	}

	c.st.submitting = true
	c.st.submitErr = ""
	c.changed()

	c.log.Info("submitting order",
		"order_id", payload.OrderID,
		"items", len(payload.Items),
		"total", payload.Total,
	)
	go c.deliver(ctx, data, done)
	return nil
}

func (c *Controller) checkSubmit() error {
	s := c.st
	switch {
	case s.closed:
		return ErrAlreadySent
	case s.submitting:
		return ErrSubmitInProgress
	case s.cart.IsEmpty():
		return ErrCartEmpty
	case !s.cart.MeetsMinimum(c.cfg.MinOrder):
		return ErrBelowMinimum
	case strings.TrimSpace(s.customer.Name) == "":
		return ErrNameRequired
	case strings.TrimSpace(s.customer.Phone) == "":
		return ErrPhoneRequired
	case s.location == nil:
		return ErrLocationRequired
	case s.promoPending:
		// the pending code decides which promo and total go out
		return ErrPromoPending
	}
	return nil
}

func (c *Controller) buildPayload() models.OrderPayload {
	s := c.st

	payload := models.OrderPayload{
		Type:            models.OrderTypeCreate,
		OrderID:         uuid.NewString(),
		Items:           s.cart.Lines(),
		Total:           s.cart.FinalTotal(),
		CustomerName:    strings.TrimSpace(s.customer.Name),
		Phone:           strings.TrimSpace(s.customer.Phone),
		CreatedAtClient: c.now().UTC(),
	}

	if comment := strings.TrimSpace(s.customer.Comment); comment != "" {
		payload.Comment = &comment
	}
	if s.location != nil {
		loc := *s.location
		payload.Location = &loc
	}
	if p, ok := s.cart.Promo(); ok {
		code := p.Code
		payload.PromoCode = &code
	}
	return payload
}

// deliver sends the payload once; an embedded host is then asked to close
// the view without waiting for any acknowledgment
func (c *Controller) deliver(ctx context.Context, data []byte, done chan struct{}) {
	err := c.bridge.SendData(ctx, data)
	embedded := c.bridge.Embedded()
	if err == nil && embedded {
		if cerr := c.bridge.Close(); cerr != nil {
			c.log.Warn("failed to close host view", "error", cerr)
		}
	}

	c.complete(done, func() {
		if err != nil {
			c.log.Error("failed to submit order", "error", err)
			c.st.submitting = false
			c.st.submitErr = ErrSubmitFailed.Error()
			c.changed()
			return
		}

		c.st.submitted = true
		if embedded {
			c.st.closed = true
		} else {
			c.st.submitting = false
		}
		c.changed()
	})
}
