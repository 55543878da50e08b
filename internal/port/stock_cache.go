package port

import (
	"context"
	"errors"
)

// ErrStockNotCached means the gate holds no value for the product; callers
// fall through to the database transaction.
var ErrStockNotCached = errors.New("stock not cached")

// StockCache is an optimistic stock gate in front of the database. It lets
// hot checkouts fail fast; the storage transaction remains the sole
// correctness guarantee.
type StockCache interface {
	// DecrementStock atomically decreases cached stock, returns false if
	// insufficient, ErrStockNotCached if the product has not been seeded.
	DecrementStock(ctx context.Context, productID int64, quantity int) (bool, error)

	// RestoreStock gives quantity back after a failed database write.
	RestoreStock(ctx context.Context, productID int64, quantity int) error

	// SetStock seeds the cached value, typically from the catalog at boot.
	SetStock(ctx context.Context, productID int64, quantity int) error
}
