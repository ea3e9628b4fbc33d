package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/dmitrijs2005/storefront/internal/client/client"
	"github.com/dmitrijs2005/storefront/internal/client/models"
	"github.com/dmitrijs2005/storefront/internal/client/notify"
	"github.com/dmitrijs2005/storefront/internal/client/store"
	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/logging"
)

const (
	MsgAddedToCart      = "Product added to cart!"
	MsgAddToCartFailed  = "Failed to add product to cart"
	MsgOrderPlaced      = "Order placed successfully!"
	MsgOrderFailed      = "Failed to place order. Please try again."
	msgOrderFailedShort = "Failed to place order"
)

// ErrCheckoutInProgress is returned while an order submission is outstanding.
var ErrCheckoutInProgress = errors.New("checkout in progress")

type CheckoutState int

const (
	CheckoutIdle CheckoutState = iota
	CheckoutSubmitting
)

func (s CheckoutState) String() string {
	if s == CheckoutSubmitting {
		return "submitting"
	}
	return "idle"
}

type OrderPlacer interface {
	CreateOrder(ctx context.Context, req models.OrderRequest) (*models.Order, error)
}

// CartService owns the cart. Every mutation reads the latest stored snapshot
// and writes back a complete replacement; mu keeps those read-modify-write
// cycles in call order.
type CartService struct {
	store  store.Store
	orders OrderPlacer
	notes  notify.Publisher
	log    logging.Logger

	mu      sync.Mutex
	state   CheckoutState
	address string
}

func NewCartService(st store.Store, orders OrderPlacer, notes notify.Publisher, log logging.Logger) *CartService {
	return &CartService{store: st, orders: orders, notes: notes, log: log.With("service", "cart")}
}

func (c *CartService) publish(msg string, sev notify.Severity) {
	if c.notes != nil {
		c.notes.Publish(msg, sev)
	}
}

// mutate applies fn to the current snapshot and stores the result.
func (c *CartService) mutate(ctx context.Context, fn func(models.Cart) models.Cart) (models.Cart, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == CheckoutSubmitting {
		return nil, ErrCheckoutInProgress
	}

	cur, err := c.store.Cart(ctx)
	if err != nil {
		return nil, err
	}
	next := fn(cur)
	if err := c.store.SaveCart(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

// AddItem puts qty units of p in the cart, growing an existing line rather
// than adding a second one.
func (c *CartService) AddItem(ctx context.Context, p models.Product, qty int) (models.Cart, error) {
	if qty < 1 {
		err := client.NewValidationError("quantity must be at least 1")
		c.publish(err.Message, notify.SeverityError)
		return nil, err
	}

	cart, err := c.mutate(ctx, func(cur models.Cart) models.Cart {
		return cur.Add(models.LineFromProduct(p, qty))
	})
	if err != nil {
		if !errors.Is(err, ErrCheckoutInProgress) {
			c.log.Error(ctx, "add to cart", "product_id", p.ID, "error", err)
			c.publish(MsgAddToCartFailed, notify.SeverityError)
		}
		return nil, fmt.Errorf("add item: %w", err)
	}

	c.publish(MsgAddedToCart, notify.SeveritySuccess)
	return cart, nil
}

// SetQuantity overwrites a line's quantity; qty <= 0 removes it and an
// unknown productID changes nothing.
func (c *CartService) SetQuantity(ctx context.Context, productID int64, qty int) (models.Cart, error) {
	cart, err := c.mutate(ctx, func(cur models.Cart) models.Cart {
		return cur.SetQuantity(productID, qty)
	})
	if err != nil {
		return nil, fmt.Errorf("set quantity: %w", err)
	}
	return cart, nil
}

func (c *CartService) RemoveItem(ctx context.Context, productID int64) (models.Cart, error) {
	cart, err := c.mutate(ctx, func(cur models.Cart) models.Cart {
		return cur.Remove(productID)
	})
	if err != nil {
		return nil, fmt.Errorf("remove item: %w", err)
	}
	return cart, nil
}

func (c *CartService) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == CheckoutSubmitting {
		return ErrCheckoutInProgress
	}
	if err := c.store.ClearCart(ctx); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func (c *CartService) Lines(ctx context.Context) (models.Cart, error) {
	return c.store.Cart(ctx)
}

// Count is the badge value: the number of lines.
func (c *CartService) Count(ctx context.Context) (int, error) {
	cart, err := c.store.Cart(ctx)
	if err != nil {
		return 0, err
	}
	return cart.Count(), nil
}

// Total is recomputed from the stored lines on every call.
func (c *CartService) Total(ctx context.Context) (decimal.Decimal, error) {
	cart, err := c.store.Cart(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return cart.Total(), nil
}

func (c *CartService) Address() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.address
}

func (c *CartService) SetAddress(addr string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.address = addr
}

func (c *CartService) State() CheckoutState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Checkout turns the whole cart into one order. Preconditions are checked
// locally first. On success the cart and draft address are cleared; on any
// failure both stay as they were. When address is empty the draft address
// is used.
func (c *CartService) Checkout(ctx context.Context, address string) (*models.Order, error) {
	c.mu.Lock()
	if c.state == CheckoutSubmitting {
		c.mu.Unlock()
		return nil, ErrCheckoutInProgress
	}
	if address == "" {
		address = c.address
	}

	cart, err := c.store.Cart(ctx)
	if err != nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("checkout: %w", err)
	}
	var invalid error
	switch {
	case len(cart) == 0:
		invalid = client.ErrCartEmpty
	case common.IsBlank(address):
		invalid = client.ErrAddressRequired
	}
	if invalid != nil {
		c.mu.Unlock()
		c.publish(client.UserMessage(invalid), notify.SeverityError)
		return nil, invalid
	}

	c.address = address
	c.state = CheckoutSubmitting
	c.mu.Unlock()

	order, err := c.orders.CreateOrder(ctx, cart.OrderRequest(address))

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = CheckoutIdle

	// a 2xx reply means the order exists even if its body was unreadable
	var unread *client.DecodeError
	if errors.As(err, &unread) {
		c.log.Warn(ctx, "order placed, reply unreadable", "status", unread.StatusCode, "error", err)
		if order == nil {
			order = &models.Order{}
		}
		err = nil
	}

	if err != nil {
		if abandoned(ctx, err) {
			return nil, err
		}
		c.log.Warn(ctx, "checkout failed", "error", err, "lines", len(cart))
		c.publish(failureText(err, msgOrderFailedShort, MsgOrderFailed), notify.SeverityError)
		return nil, fmt.Errorf("checkout: %w", err)
	}

	// the order exists server-side now; a cleanup failure must not hide that
	if err := c.store.ClearCart(context.WithoutCancel(ctx)); err != nil {
		c.log.Error(ctx, "clear cart after checkout", "order_id", order.ID, "error", err)
	}
	c.address = ""
	c.log.Info(ctx, "order placed", "order_id", order.ID, "lines", len(cart))
	c.publish(MsgOrderPlaced, notify.SeveritySuccess)
	return order, nil
}
