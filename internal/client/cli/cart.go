package cli

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/dmitrijs2005/storefront/internal/client/client"
	"github.com/dmitrijs2005/storefront/internal/client/models"
)

// Add puts a product from the catalog into the cart.
//
//	add <productID> [qty]
func (a *App) Add(ctx context.Context, args []string) error {
	id, err := parseID(args, 0, "add <productID> [qty]")
	if err != nil {
		return a.fail(err)
	}
	qty := 1
	if len(args) > 1 {
		if qty, err = strconv.Atoi(args[1]); err != nil {
			return a.fail(client.NewValidationError("invalid quantity %q", args[1]))
		}
	}

	p, err := a.findProduct(ctx, id)
	if err != nil {
		return a.fail(err)
	}
	if p.StockQuantity <= 0 {
		a.printf("%s is out of stock.\n", p.Name)
		return nil
	}

	_, err = a.cart.AddItem(ctx, p, qty)
	return err
}

// Cart prints the lines, the total and the draft shipping address.
func (a *App) Cart(ctx context.Context) error {
	lines, err := a.cart.Lines(ctx)
	if err != nil {
		return a.fail(err)
	}
	if len(lines) == 0 {
		a.println("Your cart is empty.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tQTY\tSUBTOTAL")
	for _, l := range lines {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n",
			l.ProductID, l.Name, models.FormatMoney(l.UnitPrice), l.Quantity, models.FormatMoney(l.Subtotal()))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	a.printf("Items: %d  Total: %s\n", lines.Items(), models.FormatMoney(lines.Total()))
	if addr := a.cart.Address(); addr != "" {
		a.printf("Shipping address: %s\n", addr)
	}
	return nil
}

// Qty sets a line's quantity; zero or less removes the line.
//
//	qty <productID> <n>
func (a *App) Qty(ctx context.Context, args []string) error {
	id, err := parseID(args, 0, "qty <productID> <n>")
	if err != nil {
		return a.fail(err)
	}
	if len(args) < 2 {
		return a.fail(client.NewValidationError("usage: qty <productID> <n>"))
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return a.fail(client.NewValidationError("invalid quantity %q", args[1]))
	}

	if _, err := a.cart.SetQuantity(ctx, id, n); err != nil {
		return a.fail(err)
	}
	return a.Cart(ctx)
}

// Remove drops a line from the cart.
//
//	remove <productID>
func (a *App) Remove(ctx context.Context, args []string) error {
	id, err := parseID(args, 0, "remove <productID>")
	if err != nil {
		return a.fail(err)
	}
	if _, err := a.cart.RemoveItem(ctx, id); err != nil {
		return a.fail(err)
	}
	return a.Cart(ctx)
}

func (a *App) Clear(ctx context.Context) error {
	if err := a.cart.Clear(ctx); err != nil {
		return a.fail(err)
	}
	a.println("Cart cleared.")
	return nil
}

// Checkout asks for the shipping address and places the order. An empty
// answer reuses the address typed for a previous attempt.
func (a *App) Checkout(ctx context.Context) error {
	address := ""
	if n, err := a.cart.Count(ctx); err == nil && n > 0 {
		prompt := "Shipping address"
		if draft := a.cart.Address(); draft != "" {
			prompt = fmt.Sprintf("%s [%s]", prompt, draft)
		}
		if address, err = getSimpleText(a.reader, prompt, a.out); err != nil {
			return err
		}
	}

	order, err := a.cart.Checkout(ctx, address)
	if err != nil {
		return err
	}
	if order.ID == 0 {
		a.println("Order placed. See 'orders' for its details.")
		return nil
	}
	a.printf("Order #%d placed, total %s, status %s\n", order.ID, models.FormatMoney(order.TotalAmount), order.Status)
	return nil
}
