package port

import (
	"context"

	"storefront/internal/core/domain"
)

// CatalogRepository is a read-only view of active products. Inactive
// products are invisible to every method.
type CatalogRepository interface {
	// ListActive returns active products sorted by name. A non-empty search
	// term restricts the result to products whose name or description
	// contains the term, case-insensitively.
	ListActive(ctx context.Context, search string) ([]domain.Product, error)

	// GetByID returns domain.ErrProductNotFound for missing or inactive ids.
	GetByID(ctx context.Context, id int64) (domain.Product, error)

	// GetBySKU returns domain.ErrProductNotFound for missing or inactive SKUs.
	GetBySKU(ctx context.Context, sku string) (domain.Product, error)

	// GetByIDs returns the subset of ids that are active products; callers
	// detect missing ids by comparing sizes.
	GetByIDs(ctx context.Context, ids []int64) ([]domain.Product, error)
}
