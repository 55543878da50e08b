package port

import (
	"context"

	"storefront/internal/core/domain"
)

// Notifier sends the order confirmation after the transaction commits.
// Errors are logged and swallowed by the caller, never propagated to the
// checkout result.
type Notifier interface {
	SendOrderConfirmation(ctx context.Context, order domain.Order) error
}
