package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/storefront/internal/client/client"
	"github.com/dmitrijs2005/storefront/internal/client/models"
	"github.com/dmitrijs2005/storefront/internal/client/notify"
	"github.com/dmitrijs2005/storefront/internal/client/store"
	"github.com/dmitrijs2005/storefront/internal/logging"
)

const (
	MsgOrderStatusFailed = "Failed to update order status"
	MsgOrderDeleted      = "Order deleted successfully"
	MsgOrderDeleteFailed = "Failed to delete order"
)

// ErrAdminOnly guards admin operations before they reach the server.
var ErrAdminOnly = client.NewValidationError("admin privileges required")

type OrderView string

const (
	ViewMine    OrderView = "mine"
	ViewAll     OrderView = "all"
	ViewPending OrderView = "pending"
)

// ParseOrderView maps user input to a view; anything unknown is ViewMine.
func ParseOrderView(s string) OrderView {
	switch OrderView(strings.ToLower(strings.TrimSpace(s))) {
	case ViewAll:
		return ViewAll
	case ViewPending:
		return ViewPending
	default:
		return ViewMine
	}
}

type OrdersClient interface {
	MyOrders(ctx context.Context) ([]models.Order, error)
	AllOrders(ctx context.Context) ([]models.Order, error)
	PendingOrders(ctx context.Context) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status models.OrderStatus) (*models.Order, error)
	DeleteOrder(ctx context.Context, id int64) error
}

type OrderService struct {
	client OrdersClient
	store  store.Store
	notes  notify.Publisher
	log    logging.Logger
}

func NewOrderService(c OrdersClient, st store.Store, notes notify.Publisher, log logging.Logger) *OrderService {
	return &OrderService{client: c, store: st, notes: notes, log: log.With("service", "orders")}
}

func (s *OrderService) publish(msg string, sev notify.Severity) {
	if s.notes != nil {
		s.notes.Publish(msg, sev)
	}
}

// reject reports a local precondition failure and returns it.
func (s *OrderService) reject(err *client.ValidationError) error {
	s.publish(err.Message, notify.SeverityError)
	return err
}

func (s *OrderService) isAdmin(ctx context.Context) (bool, error) {
	return signedInAdmin(ctx, s.store)
}

// List returns the orders for view. Customers always get their own orders,
// whatever view they ask for; the view actually used is returned.
func (s *OrderService) List(ctx context.Context, view OrderView) ([]models.Order, OrderView, error) {
	admin, err := s.isAdmin(ctx)
	if err != nil {
		return nil, ViewMine, err
	}
	if !admin {
		view = ViewMine
	}

	var orders []models.Order
	switch view {
	case ViewAll:
		orders, err = s.client.AllOrders(ctx)
	case ViewPending:
		orders, err = s.client.PendingOrders(ctx)
	default:
		orders, err = s.client.MyOrders(ctx)
	}
	if err != nil {
		return nil, view, fmt.Errorf("list %s orders: %w", view, err)
	}
	return orders, view, nil
}

func (s *OrderService) UpdateStatus(ctx context.Context, id int64, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, s.reject(client.NewValidationError("invalid order status %q", status))
	}
	admin, err := s.isAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if !admin {
		return nil, s.reject(ErrAdminOnly)
	}

	o, err := s.client.UpdateOrderStatus(ctx, id, status)
	if err != nil {
		if !abandoned(ctx, err) {
			s.log.Warn(ctx, "update order status", "order_id", id, "status", status, "error", err)
			s.publish(failureText(err, MsgOrderStatusFailed, MsgOrderStatusFailed), notify.SeverityError)
		}
		return nil, fmt.Errorf("update order %d: %w", id, err)
	}

	s.publish(fmt.Sprintf("Order status updated to %s", status), notify.SeveritySuccess)
	return o, nil
}

// Delete removes an order; the server puts its stock back.
func (s *OrderService) Delete(ctx context.Context, id int64) error {
	admin, err := s.isAdmin(ctx)
	if err != nil {
		return err
	}
	if !admin {
		return s.reject(ErrAdminOnly)
	}

	if err := s.client.DeleteOrder(ctx, id); err != nil {
		if !abandoned(ctx, err) {
			s.log.Warn(ctx, "delete order", "order_id", id, "error", err)
			s.publish(failureText(err, MsgOrderDeleteFailed, MsgOrderDeleteFailed), notify.SeverityError)
		}
		return fmt.Errorf("delete order %d: %w", id, err)
	}

	s.publish(MsgOrderDeleted, notify.SeveritySuccess)
	return nil
}

// Summary counts orders per status.
type Summary struct {
	Total    int
	ByStatus map[models.OrderStatus]int
}

func Summarize(orders []models.Order) Summary {
	sum := Summary{Total: len(orders), ByStatus: make(map[models.OrderStatus]int, len(models.OrderStatuses))}
	for _, st := range models.OrderStatuses {
		sum.ByStatus[st] = 0
	}
	for _, o := range orders {
		sum.ByStatus[o.Status]++
	}
	return sum
}
