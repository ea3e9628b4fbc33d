package models

import "github.com/shopspring/decimal"

type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type Product struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stockQuantity"`
	CategoryID    int64           `json:"categoryId,omitempty"`
	CategoryName  string          `json:"categoryName,omitempty"`
	Base64Image   string          `json:"base64Image,omitempty"`
}

// ProductInput is the admin create/update payload.
type ProductInput struct {
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stockQuantity"`
	CategoryID    int64           `json:"categoryId,omitempty"`
	Base64Image   string          `json:"base64Image,omitempty"`
}

// Input returns the editable part of p, used to prefill an update.
func (p Product) Input() ProductInput {
	return ProductInput{
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		StockQuantity: p.StockQuantity,
		CategoryID:    p.CategoryID,
		Base64Image:   p.Base64Image,
	}
}
