package service

import (
	"context"
	"fmt"

	"storefront/internal/core/domain"
	"storefront/internal/port"
)

// CatalogService exposes read-only catalog lookups. All methods see active
// products only.
type CatalogService struct {
	catalog port.CatalogRepository
}

func NewCatalogService(catalog port.CatalogRepository) *CatalogService {
	return &CatalogService{catalog: catalog}
}

// ListProducts returns active products sorted by name. A non-empty search
// term restricts to case-insensitive substring matches on name or
// description.
func (s *CatalogService) ListProducts(ctx context.Context, search string) ([]domain.Product, error) {
	products, err := s.catalog.ListActive(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("catalog.ListActive: %w", err)
	}
	return products, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	product, err := s.catalog.GetByID(ctx, id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("catalog.GetByID: %w", err)
	}
	return product, nil
}

func (s *CatalogService) GetProductBySKU(ctx context.Context, sku string) (domain.Product, error) {
	product, err := s.catalog.GetBySKU(ctx, sku)
	if err != nil {
		return domain.Product{}, fmt.Errorf("catalog.GetBySKU: %w", err)
	}
	return product, nil
}

func (s *CatalogService) GetProductsByIDs(ctx context.Context, ids []int64) ([]domain.Product, error) {
	products, err := s.catalog.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("catalog.GetByIDs: %w", err)
	}
	return products, nil
}
