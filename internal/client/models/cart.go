package models

import (
	"slices"

	"github.com/shopspring/decimal"
)

// CartLine is one product/quantity pair. ProductID is unique within a Cart
// and Quantity is always positive.
type CartLine struct {
	ProductID   int64           `json:"productId"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Quantity    int             `json:"quantity"`
	ImageData   string          `json:"imageData,omitempty"`
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// LineFromProduct snapshots the product fields shown in the cart.
func LineFromProduct(p Product, qty int) CartLine {
	return CartLine{
		ProductID:   p.ID,
		Name:        p.Name,
		Description: p.Description,
		UnitPrice:   p.Price,
		Quantity:    qty,
		ImageData:   p.Base64Image,
	}
}

// Cart is the ordered list of lines. Its methods never modify the receiver;
// they return an updated copy that the caller persists as a whole.
type Cart []CartLine

func (c Cart) index(productID int64) int {
	return slices.IndexFunc(c, func(l CartLine) bool { return l.ProductID == productID })
}

func (c Cart) Find(productID int64) (CartLine, bool) {
	if i := c.index(productID); i >= 0 {
		return c[i], true
	}
	return CartLine{}, false
}

// Add increments the quantity of an existing line or appends line.
func (c Cart) Add(line CartLine) Cart {
	out := slices.Clone(c)
	if i := out.index(line.ProductID); i >= 0 {
		out[i].Quantity += line.Quantity
		return out
	}
	return append(out, line)
}

// SetQuantity overwrites the quantity of productID. A non-positive qty removes
// the line; an unknown productID leaves the cart unchanged.
func (c Cart) SetQuantity(productID int64, qty int) Cart {
	if qty <= 0 {
		return c.Remove(productID)
	}
	out := slices.Clone(c)
	if i := out.index(productID); i >= 0 {
		out[i].Quantity = qty
	}
	return out
}

func (c Cart) Remove(productID int64) Cart {
	return slices.DeleteFunc(slices.Clone(c), func(l CartLine) bool { return l.ProductID == productID })
}

// Total is the exact sum of unit price times quantity.
func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c {
		total = total.Add(l.Subtotal())
	}
	return total
}

// Count is the number of distinct lines.
func (c Cart) Count() int {
	return len(c)
}

// Items is the total number of units across lines.
func (c Cart) Items() int {
	n := 0
	for _, l := range c {
		n += l.Quantity
	}
	return n
}

// Normalize merges duplicate product ids (first position wins, quantities are
// summed) and drops lines with a non-positive quantity.
func (c Cart) Normalize() Cart {
	out := make(Cart, 0, len(c))
	for _, l := range c {
		if l.Quantity <= 0 {
			continue
		}
		out = out.Add(l)
	}
	return out
}

// OrderRequest converts the cart into a checkout payload.
func (c Cart) OrderRequest(address string) OrderRequest {
	items := make([]OrderItemRequest, 0, len(c))
	for _, l := range c {
		items = append(items, OrderItemRequest{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return OrderRequest{OrderItems: items, ShippingAddress: address}
}

// FormatMoney renders an amount with two decimals.
func FormatMoney(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
