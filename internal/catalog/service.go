// Package catalog is the read side of the product catalog.
package catalog

import (
	"context"

	"storefront-client/internal/api"
	"storefront-client/internal/domain"
)

type catalogAPI interface {
	ListProducts(ctx context.Context, params api.ProductSearchParams) (domain.Page[domain.Product], error)
	GetProduct(ctx context.Context, id int64) (domain.Product, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
}

type Service struct {
	api catalogAPI
}

func New(apiClient catalogAPI) *Service {
	return &Service{api: apiClient}
}

func (s *Service) List(ctx context.Context, params api.ProductSearchParams) (domain.Page[domain.Product], error) {
	return s.api.ListProducts(ctx, params)
}

func (s *Service) Get(ctx context.Context, id int64) (domain.Product, error) {
	if id <= 0 {
		return domain.Product{}, domain.ErrNotFound
	}
	return s.api.GetProduct(ctx, id)
}

func (s *Service) Categories(ctx context.Context) ([]domain.Category, error) {
	return s.api.ListCategories(ctx)
}
