package cart_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/cucumber/godog"

	"github.com/Lixing-Zhang/fiesta-storefront/internal/cart"
	"github.com/Lixing-Zhang/fiesta-storefront/internal/models"
)

type cartTestContext struct {
	items map[int64]models.FoodItem
	cart  *cart.Cart
}

func (c *cartTestContext) reset() {
	c.items = make(map[int64]models.FoodItem)
	c.cart = cart.New()
}

func (c *cartTestContext) theCatalogItemPriced(id int, name string, price int) error {
	c.items[int64(id)] = models.FoodItem{ID: int64(id), Name: name, Price: int64(price)}
	return nil
}

func (c *cartTestContext) iAddOfItem(delta, id int) error {
	item, ok := c.items[int64(id)]
	if !ok {
		return fmt.Errorf("unknown item %d", id)
	}
	c.cart.AdjustQuantity(item, delta)
	return nil
}

func (c *cartTestContext) thePromoIsApplied(code string, percent float64) error {
	return c.cart.ApplyPromo(cart.Promo{Code: code, DiscountPercent: percent})
}

func (c *cartTestContext) thePromoIsCleared() error {
	c.cart.ClearPromo()
	return nil
}

func (c *cartTestContext) theRawTotalIs(want int) error {
	if got := c.cart.RawTotal(); got != int64(want) {
		return fmt.Errorf("expected raw total %d, got %d", want, got)
	}
	return nil
}

func (c *cartTestContext) theFinalTotalIs(want int) error {
	if got := c.cart.FinalTotal(); got != int64(want) {
		return fmt.Errorf("expected final total %d, got %d", want, got)
	}
	return nil
}

func (c *cartTestContext) theCartHoldsUnits(want int) error {
	if got := c.cart.Count(); got != want {
		return fmt.Errorf("expected %d units, got %d", want, got)
	}
	return nil
}

func (c *cartTestContext) itemIsNotInTheCart(id int) error {
	if q := c.cart.Quantity(int64(id)); q != 0 {
		return fmt.Errorf("expected item %d to be absent, quantity %d", id, q)
	}
	for _, e := range c.cart.Entries() {
		if e.Item.ID == int64(id) {
			return fmt.Errorf("item %d still stored", id)
		}
	}
	return nil
}

func (c *cartTestContext) checkoutIs(state string) error {
	allowed := c.cart.MeetsMinimum(models.MinOrderTotal)
	switch state {
	case "allowed":
		if !allowed {
			return fmt.Errorf("expected checkout allowed at raw total %d", c.cart.RawTotal())
		}
	case "blocked":
		if allowed {
			return fmt.Errorf("expected checkout blocked at raw total %d", c.cart.RawTotal())
		}
	default:
		return fmt.Errorf("unknown checkout state %q", state)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &cartTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^the catalog item (\d+) "([^"]*)" priced (\d+)$`, tc.theCatalogItemPriced)

	// When steps
	ctx.Step(`^I add (-?\d+) of item (\d+)$`, tc.iAddOfItem)
	ctx.Step(`^the promo "([^"]*)" with (\d+(?:\.\d+)?) percent is applied$`, tc.thePromoIsApplied)
	ctx.Step(`^the promo is cleared$`, tc.thePromoIsCleared)

	// Then steps
	ctx.Step(`^the raw total is (\d+)$`, tc.theRawTotalIs)
	ctx.Step(`^the final total is (\d+)$`, tc.theFinalTotalIs)
	ctx.Step(`^the cart holds (\d+) units$`, tc.theCartHoldsUnits)
	ctx.Step(`^item (\d+) is not in the cart$`, tc.itemIsNotInTheCart)
	ctx.Step(`^checkout is (allowed|blocked)$`, tc.checkoutIs)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
