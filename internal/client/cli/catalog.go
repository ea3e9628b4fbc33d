package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/dmitrijs2005/storefront/internal/client/client"
	"github.com/dmitrijs2005/storefront/internal/client/models"
	"github.com/dmitrijs2005/storefront/internal/client/services"
)

// Products lists the catalog. The first argument is taken as a category id
// when it is numeric; the remaining words are a name/description filter.
//
//	products [categoryID] [query...]
func (a *App) Products(ctx context.Context, args []string) error {
	var categoryID int64
	if len(args) > 0 {
		if id, err := strconv.ParseInt(args[0], 10, 64); err == nil {
			categoryID = id
			args = args[1:]
		}
	}

	cat, err := a.catalog.Load(ctx)
	if err != nil {
		return a.fail(err)
	}
	a.rememberProducts(cat.Products)

	if categoryID != 0 {
		name := fmt.Sprintf("#%d", categoryID)
		for _, c := range cat.Categories {
			if c.ID == categoryID {
				name = c.Name
			}
		}
		a.printf("Category: %s\n", name)
	}

	list := services.Filter(cat.Products, categoryID, strings.Join(args, " "))
	if len(list) == 0 {
		a.println("No products found.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tSTOCK\tCATEGORY")
	for _, p := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", p.ID, p.Name, models.FormatMoney(p.Price), p.StockQuantity, p.CategoryName)
	}
	return tw.Flush()
}

func (a *App) Categories(ctx context.Context) error {
	cats, err := a.catalog.Categories(ctx)
	if err != nil {
		return a.fail(err)
	}
	if len(cats) == 0 {
		a.println("No categories.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDESCRIPTION")
	for _, c := range cats {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", c.ID, c.Name, c.Description)
	}
	return tw.Flush()
}

// NewProduct prompts for a product and creates it. Admin only.
func (a *App) NewProduct(ctx context.Context) error {
	in, err := a.productForm(models.ProductInput{})
	if err != nil {
		return err
	}
	p, err := a.catalog.CreateProduct(ctx, in)
	if err != nil {
		return err
	}
	a.forgetProducts()
	a.printf("Created product #%d\n", p.ID)
	return nil
}

// EditProduct prompts for new values, prefilled from the current product.
//
//	editproduct <id>
func (a *App) EditProduct(ctx context.Context, args []string) error {
	id, err := parseID(args, 0, "editproduct <id>")
	if err != nil {
		return a.fail(err)
	}
	p, err := a.findProduct(ctx, id)
	if err != nil {
		return a.fail(err)
	}

	in, err := a.productForm(p.Input())
	if err != nil {
		return err
	}
	if _, err := a.catalog.UpdateProduct(ctx, id, in); err != nil {
		return err
	}
	a.forgetProducts()
	return nil
}

// DeleteProduct asks for confirmation before deleting.
//
//	delproduct <id>
func (a *App) DeleteProduct(ctx context.Context, args []string) error {
	id, err := parseID(args, 0, "delproduct <id>")
	if err != nil {
		return a.fail(err)
	}
	ok, err := Confirm(a.reader, fmt.Sprintf("Delete product #%d?", id), a.out)
	if err != nil || !ok {
		return err
	}
	if err := a.catalog.DeleteProduct(ctx, id); err != nil {
		return err
	}
	a.forgetProducts()
	return nil
}

// productForm asks for every editable field; empty answers keep cur.
func (a *App) productForm(cur models.ProductInput) (models.ProductInput, error) {
	in := cur

	name, err := GetWithDefault(a.reader, "Name", cur.Name, a.out)
	if err != nil {
		return in, err
	}
	in.Name = name

	prompt := "Description"
	if cur.Description != "" {
		prompt += " (empty keeps the current one)"
	}
	desc, err := getMultiline(a.reader, prompt, a.out)
	if err != nil {
		return in, err
	}
	if desc != "" {
		in.Description = desc
	}

	price, err := GetWithDefault(a.reader, "Price", priceText(cur), a.out)
	if err != nil {
		return in, err
	}
	if in.Price, err = decimal.NewFromString(price); err != nil {
		return in, a.fail(client.NewValidationError("invalid price %q", price))
	}

	stock, err := GetWithDefault(a.reader, "Stock quantity", strconv.Itoa(cur.StockQuantity), a.out)
	if err != nil {
		return in, err
	}
	if in.StockQuantity, err = strconv.Atoi(stock); err != nil {
		return in, a.fail(client.NewValidationError("invalid stock quantity %q", stock))
	}

	catText := ""
	if cur.CategoryID != 0 {
		catText = strconv.FormatInt(cur.CategoryID, 10)
	}
	cat, err := GetWithDefault(a.reader, "Category id (optional)", catText, a.out)
	if err != nil {
		return in, err
	}
	in.CategoryID = 0
	if cat != "" {
		if in.CategoryID, err = strconv.ParseInt(cat, 10, 64); err != nil {
			return in, a.fail(client.NewValidationError("invalid category id %q", cat))
		}
	}

	path, err := getSimpleText(a.reader, "Image file (empty to keep)", a.out)
	if err != nil {
		return in, err
	}
	if path != "" {
		img, err := services.ImageFromFile(path)
		if err != nil {
			return in, a.fail(err)
		}
		in.Base64Image = img
	}
	return in, nil
}

func priceText(in models.ProductInput) string {
	if in.Name == "" && in.Price.IsZero() {
		return ""
	}
	return in.Price.StringFixed(2)
}

// findProduct looks id up in the last listing and reloads once on a miss.
func (a *App) findProduct(ctx context.Context, id int64) (models.Product, error) {
	a.mu.Lock()
	cached := a.products
	a.mu.Unlock()

	if p, ok := services.FindProduct(cached, id); ok {
		return p, nil
	}

	list, err := a.catalog.Products(ctx)
	if err != nil {
		return models.Product{}, err
	}
	a.rememberProducts(list)

	if p, ok := services.FindProduct(list, id); ok {
		return p, nil
	}
	return models.Product{}, client.NewValidationError("product %d not found", id)
}

func (a *App) rememberProducts(list []models.Product) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.products = list
}

func (a *App) forgetProducts() {
	a.rememberProducts(nil)
}

// parseID reads args[i] as a positive id, reporting usage otherwise.
func parseID(args []string, i int, usage string) (int64, error) {
	if len(args) <= i {
		return 0, client.NewValidationError("usage: %s", usage)
	}
	id, err := strconv.ParseInt(args[i], 10, 64)
	if err != nil || id <= 0 {
		return 0, client.NewValidationError("invalid id %q", args[i])
	}
	return id, nil
}
