package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/storefront/internal/client/client"
	"github.com/dmitrijs2005/storefront/internal/client/models"
	"github.com/dmitrijs2005/storefront/internal/client/notify"
	"github.com/dmitrijs2005/storefront/internal/client/store"
	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/logging"
)

// MaxImageSize is the largest product image accepted, in bytes.
const MaxImageSize = 10 * 1024 * 1024

const (
	MsgProductAdded        = "Product added successfully!"
	MsgProductUpdated      = "Product updated successfully!"
	MsgProductDeleted      = "Product deleted successfully!"
	MsgProductAddFailed    = "Failed to add product"
	MsgProductUpdateFailed = "Failed to update product"
	MsgProductDeleteFailed = "Failed to delete product"
	MsgImageTooLarge       = "Image size must be less than 10MB"
)

type CatalogClient interface {
	Products(ctx context.Context) ([]models.Product, error)
	Categories(ctx context.Context) ([]models.Category, error)
	CreateProduct(ctx context.Context, in models.ProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, id int64, in models.ProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

// Catalog is one consistent read of products and categories.
type Catalog struct {
	Products   []models.Product
	Categories []models.Category
}

type CatalogService struct {
	client CatalogClient
	store  store.Store
	notes  notify.Publisher
	log    logging.Logger
}

func NewCatalogService(c CatalogClient, st store.Store, notes notify.Publisher, log logging.Logger) *CatalogService {
	return &CatalogService{client: c, store: st, notes: notes, log: log.With("service", "catalog")}
}

// requireAdmin rejects product changes from anyone but a signed-in admin.
func (s *CatalogService) requireAdmin(ctx context.Context) error {
	admin, err := signedInAdmin(ctx, s.store)
	if err != nil {
		return err
	}
	if !admin {
		s.publish(ErrAdminOnly.Message, notify.SeverityError)
		return ErrAdminOnly
	}
	return nil
}

func (s *CatalogService) publish(msg string, sev notify.Severity) {
	if s.notes != nil {
		s.notes.Publish(msg, sev)
	}
}

func (s *CatalogService) Products(ctx context.Context) ([]models.Product, error) {
	return s.client.Products(ctx)
}

func (s *CatalogService) Categories(ctx context.Context) ([]models.Category, error) {
	return s.client.Categories(ctx)
}

// Load fetches products and categories concurrently; the first failure
// cancels the other request.
func (s *CatalogService) Load(ctx context.Context) (*Catalog, error) {
	var cat Catalog
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		p, err := s.client.Products(gctx)
		if err != nil {
			return fmt.Errorf("products: %w", err)
		}
		cat.Products = p
		return nil
	})
	g.Go(func() error {
		c, err := s.client.Categories(gctx)
		if err != nil {
			return fmt.Errorf("categories: %w", err)
		}
		cat.Categories = c
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &cat, nil
}

// Filter keeps products in categoryID (0 means any) whose name or
// description contains query, case-insensitively.
func Filter(products []models.Product, categoryID int64, query string) []models.Product {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if categoryID != 0 && p.CategoryID != categoryID {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(p.Name), q) &&
			!strings.Contains(strings.ToLower(p.Description), q) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// FindProduct looks a product up by id.
func FindProduct(products []models.Product, id int64) (models.Product, bool) {
	for _, p := range products {
		if p.ID == id {
			return p, true
		}
	}
	return models.Product{}, false
}

// ValidateProduct checks an admin payload before it is sent.
func ValidateProduct(in models.ProductInput) error {
	switch {
	case common.IsBlank(in.Name):
		return client.NewValidationError("product name is required")
	case in.Price.LessThan(decimal.Zero):
		return client.NewValidationError("price must not be negative")
	case in.StockQuantity < 0:
		return client.NewValidationError("stock quantity must not be negative")
	case imageSize(in.Base64Image) > MaxImageSize:
		return client.NewValidationError("%s", MsgImageTooLarge)
	}
	return nil
}

// imageSize is the decoded size of a base64 payload, with or without a
// data-URL prefix.
func imageSize(img string) int {
	if _, payload, ok := strings.Cut(img, ";base64,"); ok {
		img = payload
	}
	img = strings.TrimRight(img, "=")
	return base64.RawStdEncoding.DecodedLen(len(img))
}

// ImageFromFile reads an image and returns it as a data URL. Files over
// MaxImageSize are refused without being read.
func ImageFromFile(path string) (string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if fi.Size() > MaxImageSize {
		return "", client.NewValidationError("%s", MsgImageTooLarge)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	mime := http.DetectContentType(raw)
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(raw), nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, in models.ProductInput) (*models.Product, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	if err := ValidateProduct(in); err != nil {
		s.publish(err.Error(), notify.SeverityError)
		return nil, err
	}

	p, err := s.client.CreateProduct(ctx, in)
	if err != nil {
		if !abandoned(ctx, err) {
			s.log.Warn(ctx, "create product", "error", err)
			s.publish(failureText(err, MsgProductAddFailed, MsgProductAddFailed), notify.SeverityError)
		}
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.publish(MsgProductAdded, notify.SeveritySuccess)
	return p, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id int64, in models.ProductInput) (*models.Product, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	if err := ValidateProduct(in); err != nil {
		s.publish(err.Error(), notify.SeverityError)
		return nil, err
	}

	p, err := s.client.UpdateProduct(ctx, id, in)
	if err != nil {
		if !abandoned(ctx, err) {
			s.log.Warn(ctx, "update product", "product_id", id, "error", err)
			s.publish(failureText(err, MsgProductUpdateFailed, MsgProductUpdateFailed), notify.SeverityError)
		}
		return nil, fmt.Errorf("update product %d: %w", id, err)
	}

	s.publish(MsgProductUpdated, notify.SeveritySuccess)
	return p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.requireAdmin(ctx); err != nil {
		return err
	}
	if err := s.client.DeleteProduct(ctx, id); err != nil {
		if !abandoned(ctx, err) {
			s.log.Warn(ctx, "delete product", "product_id", id, "error", err)
			s.publish(failureText(err, MsgProductDeleteFailed, MsgProductDeleteFailed), notify.SeverityError)
		}
		return fmt.Errorf("delete product %d: %w", id, err)
	}

	s.publish(MsgProductDeleted, notify.SeveritySuccess)
	return nil
}
