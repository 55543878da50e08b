package port

import (
	"context"

	"storefront/internal/core/domain"
)

type OrderRepository interface {
	// CreateOrder persists the draft, its items and the stock decrements in
	// one transaction. The stock check is re-evaluated by the storage layer
	// at write time; a line that would drive stock below zero aborts the
	// whole transaction with domain.ErrInsufficientStock. Returns the
	// materialized order with items and product snapshots attached.
	CreateOrder(ctx context.Context, userID int64, draft domain.OrderDraft, customer domain.CustomerDetails) (domain.Order, error)

	// GetOrder returns domain.ErrOrderNotFound for unknown ids. Ownership is
	// not checked here; the service layer enforces it.
	GetOrder(ctx context.Context, orderID int64) (domain.Order, error)

	// GetUserOrders returns the user's orders, newest first, items attached.
	GetUserOrders(ctx context.Context, userID int64) ([]domain.Order, error)
}

type UserRepository interface {
	GetByToken(ctx context.Context, token string) (domain.User, error)
}
