package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"storefront-client/internal/domain"
)

// ProductSearchParams filter and page the product list. Zero values are
// omitted from the query string.
type ProductSearchParams struct {
	Page       int
	Size       int
	CategoryID int64
	Brand      string
	MinPrice   int64
	MaxPrice   int64
	SortBy     string
	SortOrder  string
	Search     string
}

func (p ProductSearchParams) query() string {
	q := url.Values{}
	q.Set("page", strconv.Itoa(p.Page))
	size := p.Size
	if size <= 0 {
		size = 10
	}
	q.Set("size", strconv.Itoa(size))
	if p.CategoryID > 0 {
		q.Set("categoryId", strconv.FormatInt(p.CategoryID, 10))
	}
	if p.Brand != "" {
		q.Set("brand", p.Brand)
	}
	if p.MinPrice > 0 {
		q.Set("minPrice", strconv.FormatInt(p.MinPrice, 10))
	}
	if p.MaxPrice > 0 {
		q.Set("maxPrice", strconv.FormatInt(p.MaxPrice, 10))
	}
	if p.SortBy != "" {
		q.Set("sortBy", p.SortBy)
	}
	if p.SortOrder != "" {
		q.Set("sortOrder", p.SortOrder)
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	return q.Encode()
}

func (c *Client) ListProducts(ctx context.Context, params ProductSearchParams) (domain.Page[domain.Product], error) {
	var page domain.Page[domain.Product]
	err := c.get(ctx, "/products?"+params.query(), &page)
	return page, err
}

func (c *Client) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	var product domain.Product
	err := c.get(ctx, fmt.Sprintf("/products/%d", id), &product)
	return product, err
}

func (c *Client) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var categories []domain.Category
	err := c.get(ctx, "/categories", &categories)
	return categories, err
}
