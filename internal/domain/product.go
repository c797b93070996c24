package domain

import "time"

type Product struct {
	ID            int64          `json:"id"`
	ProductCode   string         `json:"productCode,omitempty"`
	Name          string         `json:"name"`
	Slug          string         `json:"slug,omitempty"`
	Description   string         `json:"description,omitempty"`
	Price         int64          `json:"price"`
	SalePrice     int64          `json:"salePrice,omitempty"`
	StockQuantity int            `json:"stockQuantity"`
	CategoryID    int64          `json:"categoryId,omitempty"`
	Brand         string         `json:"brand,omitempty"`
	Color         string         `json:"color,omitempty"`
	Size          string         `json:"size,omitempty"`
	IsActive      bool           `json:"isActive"`
	Images        []ProductImage `json:"images,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// UnitPrice is the price snapshot taken when the product enters a cart:
// the sale price when one is set, otherwise the list price.
func (p Product) UnitPrice() int64 {
	if p.SalePrice > 0 {
		return p.SalePrice
	}
	return p.Price
}

type ProductImage struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"productId"`
	ImageURL  string `json:"imageUrl"`
	AltText   string `json:"altText,omitempty"`
	SortOrder int    `json:"sortOrder"`
	IsPrimary bool   `json:"isPrimary"`
}
