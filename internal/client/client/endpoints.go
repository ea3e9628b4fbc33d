package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/storefront/internal/client/models"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token     string      `json:"token"`
	ID        int64       `json:"id"`
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Role      models.Role `json:"role"`
}

func (c *HTTPClient) Login(ctx context.Context, creds models.Credentials) (*models.Session, error) {
	var resp authResponse
	req := loginRequest{Username: creds.Username, Password: string(creds.Password)}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", req, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("%w: login response without token", ErrUnexpected)
	}

	return &models.Session{
		Token: resp.Token,
		Profile: models.Profile{
			ID:        resp.ID,
			Username:  resp.Username,
			Email:     resp.Email,
			FirstName: resp.FirstName,
			LastName:  resp.LastName,
			Role:      resp.Role,
		},
	}, nil
}

func (c *HTTPClient) Register(ctx context.Context, reg models.Registration) error {
	return c.do(ctx, http.MethodPost, "/api/auth/register", reg, nil)
}

func (c *HTTPClient) Products(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	if err := c.do(ctx, http.MethodGet, "/api/products", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) Categories(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	if err := c.do(ctx, http.MethodGet, "/api/categories", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) CreateProduct(ctx context.Context, in models.ProductInput) (*models.Product, error) {
	var out models.Product
	if err := c.do(ctx, http.MethodPost, "/api/products", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) UpdateProduct(ctx context.Context, id int64, in models.ProductInput) (*models.Product, error) {
	var out models.Product
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/products/%d", id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) DeleteProduct(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/products/%d", id), nil, nil)
}

// CreateOrder places an order. When the server accepted it but its reply
// could not be decoded, the partly decoded order comes back together with
// the *DecodeError.
func (c *HTTPClient) CreateOrder(ctx context.Context, req models.OrderRequest) (*models.Order, error) {
	var out models.Order
	if err := c.do(ctx, http.MethodPost, "/api/orders", req, &out); err != nil {
		var unread *DecodeError
		if errors.As(err, &unread) {
			return &out, err
		}
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) listOrders(ctx context.Context, path string) ([]models.Order, error) {
	var out []models.Order
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) MyOrders(ctx context.Context) ([]models.Order, error) {
	return c.listOrders(ctx, "/api/orders/my-orders")
}

func (c *HTTPClient) AllOrders(ctx context.Context) ([]models.Order, error) {
	return c.listOrders(ctx, "/api/orders/admin/all")
}

func (c *HTTPClient) PendingOrders(ctx context.Context) ([]models.Order, error) {
	return c.listOrders(ctx, "/api/orders/admin/pending")
}

func (c *HTTPClient) UpdateOrderStatus(ctx context.Context, id int64, status models.OrderStatus) (*models.Order, error) {
	var out models.Order
	path := fmt.Sprintf("/api/orders/%d/status?status=%s", id, url.QueryEscape(string(status)))
	if err := c.do(ctx, http.MethodPut, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) DeleteOrder(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/orders/%d", id), nil, nil)
}
