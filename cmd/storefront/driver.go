package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/Lixing-Zhang/fiesta-storefront/internal/catalog"
	"github.com/Lixing-Zhang/fiesta-storefront/internal/storefront"
)

// searchGrace is added to the debounce delay before showing search results
const searchGrace = 50 * time.Millisecond

const usage = `commands:
  categories                 list categories
  list                       show the visible items
  category <id|all>          filter by category
  sort <none|rating|new|price_asc|price_desc>
  search [text]              search names and descriptions
  add <item> [n]             add n units (default 1)
  remove <item> [n]          remove n units (default 1)
  cart                       show the checkout summary
  promo <code>               apply a promo code
  locate                     capture the delivery location
  name|phone|comment <text>  fill the checkout form
  submit                     send the order
  quit`

// driver runs line commands against a storefront Controller
type driver struct {
	ctrl   *storefront.Controller
	out    io.Writer
	settle time.Duration
}

func (d *driver) run(ctx context.Context, in io.Reader) error {
	select {
	case <-d.ctrl.Load(ctx):
	case <-ctx.Done():
		return nil
	}

	v, err := d.ctrl.View()
	if err != nil {
		return err
	}
	if v.LoadError != "" {
		d.printf("%s\n", v.LoadError)
	} else {
		d.printf("%d items in %d categories, type help for commands\n", len(v.Items), len(v.Categories))
	}

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		cmd, args := strings.ToLower(fields[0]), fields[1:]
		if cmd == "quit" || cmd == "exit" {
			return nil
		}

		if err := d.exec(ctx, cmd, args); err != nil {
			if errors.Is(err, storefront.ErrStopped) {
				return nil
			}
			d.printf("error: %v\n", err)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
	return scanner.Err()
}

func (d *driver) exec(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "help":
		d.printf("%s\n", usage)
		return nil

	case "categories":
		v, err := d.ctrl.View()
		if err != nil {
			return err
		}
		for _, c := range v.Categories {
			d.printf("%3d  %s\n", c.ID, c.Name)
		}
		return nil

	case "list":
		return d.printItems()

	case "category":
		if len(args) != 1 {
			return errors.New("usage: category <id|all>")
		}
		if err := d.ctrl.SelectCategory(args[0]); err != nil {
			return err
		}
		return d.printItems()

	case "sort":
		if len(args) != 1 {
			return errors.New("usage: sort <key>")
		}
		raw := args[0]
		if raw == "none" {
			raw = ""
		}
		key, ok := catalog.ParseSortKey(raw)
		if !ok {
			return fmt.Errorf("unknown sort key %q", args[0])
		}
		if err := d.ctrl.SetSort(key); err != nil {
			return err
		}
		return d.printItems()

	case "search":
		d.ctrl.Search(strings.Join(args, " "))
		select {
		case <-time.After(d.settle + searchGrace):
		case <-ctx.Done():
			return nil
		}
		return d.printItems()

	case "add", "remove":
		id, n, err := parseItemArgs(args)
		if err != nil {
			return err
		}
		if cmd == "remove" {
			n = -n
		}
		qty, err := d.ctrl.AdjustQuantity(id, n)
		if err != nil {
			return err
		}
		v, err := d.ctrl.View()
		if err != nil {
			return err
		}
		d.printf("item %d: %d in cart, total %s\n", id, qty, v.Cart.TotalText)
		if v.Cart.CheckoutHint != "" {
			d.printf("%s\n", v.Cart.CheckoutHint)
		}
		return nil

	case "cart":
		return d.printCart()

	case "promo":
		if len(args) != 1 {
			return errors.New("usage: promo <code>")
		}
		<-d.ctrl.ApplyPromo(ctx, args[0])
		v, err := d.ctrl.View()
		if err != nil {
			return err
		}
		d.printf("%s\n", v.Promo.Message)
		return nil

	case "locate":
		<-d.ctrl.RequestLocation(ctx)
		v, err := d.ctrl.View()
		if err != nil {
			return err
		}
		d.printf("%s\n", v.Location.Message)
		return nil

	case "name", "phone", "comment":
		v, err := d.ctrl.View()
		if err != nil {
			return err
		}
		customer := v.Customer
		text := strings.Join(args, " ")
		switch cmd {
		case "name":
			customer.Name = text
		case "phone":
			customer.Phone = text
		default:
			customer.Comment = text
		}
		return d.ctrl.SetCustomer(customer)

	case "submit":
		done, err := d.ctrl.Submit(ctx)
		if err != nil {
			return err
		}
		<-done
		v, err := d.ctrl.View()
		if err != nil {
			return err
		}
		switch {
		case v.SubmitError != "":
			d.printf("%s\n", v.SubmitError)
		case v.Closed:
			d.printf("order sent, %s\n", v.Checkout.FinalTotalText)
		default:
			d.printf("order logged (no host attached), %s\n", v.Checkout.FinalTotalText)
		}
		return nil
	}

	return fmt.Errorf("unknown command %q, type help", cmd)
}

func parseItemArgs(args []string) (int64, int, error) {
	if len(args) < 1 || len(args) > 2 {
		return 0, 0, errors.New("usage: add|remove <item> [n]")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid item id %q", args[0])
	}
	n := 1
	if len(args) == 2 {
		if n, err = strconv.Atoi(args[1]); err != nil || n <= 0 {
			return 0, 0, fmt.Errorf("invalid count %q", args[1])
		}
	}
	return id, n, nil
}

func (d *driver) printItems() error {
	v, err := d.ctrl.View()
	if err != nil {
		return err
	}
	if len(v.Items) == 0 {
		d.printf("no items\n")
		return nil
	}
	for _, it := range v.Items {
		marker := ""
		if it.IsNew {
			marker = " [new]"
		}
		d.printf("%3d  %-20s %12s  %.1f★  x%d%s\n", it.ID, it.Name, it.PriceText, it.Rating, it.Quantity, marker)
	}
	return nil
}

func (d *driver) printCart() error {
	v, err := d.ctrl.View()
	if err != nil {
		return err
	}
	if !v.Cart.Visible {
		d.printf("cart is empty\n")
		return nil
	}

	co := v.Checkout
	for _, l := range co.Lines {
		d.printf("%-20s x%-3d %12s\n", l.Name, l.Qty, l.LineTotalText)
	}
	d.printf("subtotal %s\n", co.RawTotalText)
	if co.DiscountText != "" {
		d.printf("discount %s\n", co.DiscountText)
	}
	d.printf("total    %s\n", co.FinalTotalText)
	if v.Cart.CheckoutHint != "" {
		d.printf("%s\n", v.Cart.CheckoutHint)
	}
	return nil
}

func (d *driver) printf(format string, args ...any) {
	fmt.Fprintf(d.out, format, args...)
}
