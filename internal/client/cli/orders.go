package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/storefront/internal/client/client"
	"github.com/dmitrijs2005/storefront/internal/client/models"
	"github.com/dmitrijs2005/storefront/internal/client/services"
	"github.com/dmitrijs2005/storefront/internal/timex"
)

var viewTitles = map[services.OrderView]string{
	services.ViewMine:    "My orders",
	services.ViewAll:     "All orders",
	services.ViewPending: "Pending orders",
}

// Orders lists orders. Only admins can pick a view other than their own.
//
//	orders [mine|all|pending]
func (a *App) Orders(ctx context.Context, args []string) error {
	view := services.ViewMine
	if len(args) > 0 {
		view = services.ParseOrderView(args[0])
	}

	list, used, err := a.orders.List(ctx, view)
	if err != nil {
		return a.fail(err)
	}

	a.println(viewTitles[used])
	if len(list) == 0 {
		a.println("No orders found.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	header := "ID\tDATE\tSTATUS\tTOTAL\tADDRESS"
	if used != services.ViewMine {
		header += "\tUSER"
	}
	fmt.Fprintln(tw, header)
	for _, o := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s", o.ID, formatDate(o.OrderDate), o.Status, models.FormatMoney(o.TotalAmount), o.ShippingAddress)
		if used != services.ViewMine {
			fmt.Fprintf(tw, "\t%s", o.Username)
		}
		fmt.Fprintln(tw)
		for _, it := range o.OrderItems {
			fmt.Fprintf(tw, "\t  %d x %s @ %s\t\t%s\t\n", it.Quantity, it.ProductName, models.FormatMoney(it.UnitPrice), models.FormatMoney(it.TotalPrice))
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if used != services.ViewMine {
		sum := services.Summarize(list)
		parts := make([]string, 0, len(models.OrderStatuses))
		for _, st := range models.OrderStatuses {
			parts = append(parts, fmt.Sprintf("%s %d", st, sum.ByStatus[st]))
		}
		a.printf("%d orders: %s\n", sum.Total, strings.Join(parts, ", "))
	}
	return nil
}

func formatDate(t timex.DateTime) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// Status moves an order to a new status. Admin only.
//
//	status <orderID> <STATUS>
func (a *App) Status(ctx context.Context, args []string) error {
	id, err := parseID(args, 0, "status <orderID> <STATUS>")
	if err != nil {
		return a.fail(err)
	}
	if len(args) < 2 {
		return a.fail(client.NewValidationError("usage: status <orderID> <STATUS>"))
	}

	// an unknown status is rejected by the service
	st, _ := models.ParseOrderStatus(args[1])
	_, err = a.orders.UpdateStatus(ctx, id, st)
	return err
}

// DeleteOrder removes an order after confirmation. Admin only.
//
//	delorder <orderID>
func (a *App) DeleteOrder(ctx context.Context, args []string) error {
	id, err := parseID(args, 0, "delorder <orderID>")
	if err != nil {
		return a.fail(err)
	}
	ok, err := Confirm(a.reader, fmt.Sprintf("Delete order #%d? Stock will be restored.", id), a.out)
	if err != nil || !ok {
		return err
	}
	return a.orders.Delete(ctx, id)
}
