package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"storefront/internal/core/domain"
	"storefront/internal/obs"
	"storefront/internal/port"
)

// CheckoutService turns a cart into a persisted order. The flow is:
// validate against the catalog, optimistic stock gate, one storage
// transaction for order + items + stock decrement, then a best-effort
// confirmation after commit.
type CheckoutService struct {
	catalog  port.CatalogRepository
	orders   port.OrderRepository
	stock    port.StockCache // optional, nil disables the gate
	notifier port.Notifier   // optional, nil skips confirmations
}

func NewCheckoutService(catalog port.CatalogRepository, orders port.OrderRepository, stock port.StockCache, notifier port.Notifier) *CheckoutService {
	return &CheckoutService{
		catalog:  catalog,
		orders:   orders,
		stock:    stock,
		notifier: notifier,
	}
}

// CreateOrder validates the cart, persists the order atomically and fires
// the confirmation. Business-rule failures leave the store unchanged.
//
// Duplicate product ids stay independent lines, each validated against the
// stock value read here; the storage layer's conditional decrement is the
// final arbiter under concurrency.
func (s *CheckoutService) CreateOrder(ctx context.Context, user domain.User, items []domain.CartItem, customer domain.CustomerDetails) (domain.Order, error) {
	var o domain.Order

	if len(items) == 0 {
		return o, domain.ErrEmptyCart
	}

	ids := lo.Uniq(lo.Map(items, func(it domain.CartItem, _ int) int64 {
		return it.ProductID
	}))

	products, err := s.catalog.GetByIDs(ctx, ids)
	if err != nil {
		return o, fmt.Errorf("catalog.GetByIDs: %w", err)
	}
	if len(products) != len(ids) {
		// covers both nonexistent and inactive products
		return o, domain.ErrProductNotFound
	}
	byID := lo.KeyBy(products, func(p domain.Product) int64 { return p.ID })

	draft := domain.OrderDraft{Total: decimal.Zero}
	for _, it := range items {
		product, ok := byID[it.ProductID]
		if !ok {
			return o, fmt.Errorf("product %d: %w", it.ProductID, domain.ErrProductNotFound)
		}
		if !product.InStock(it.Quantity) {
			return o, fmt.Errorf("product %s: %w", product.Name, domain.ErrInsufficientStock)
		}

		subtotal := product.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		draft.Lines = append(draft.Lines, domain.DraftLine{
			Product:   product,
			Quantity:  it.Quantity,
			UnitPrice: product.Price,
			Subtotal:  subtotal,
		})
		draft.Total = draft.Total.Add(subtotal)
	}

	if customer.Name == "" {
		customer.Name = user.Name
	}
	if customer.Email == "" {
		customer.Email = user.Email
	}

	granted, err := s.passStockGate(ctx, draft)
	if err != nil {
		return o, err
	}

	order, err := s.orders.CreateOrder(ctx, user.ID, draft, customer)
	if err != nil {
		s.restoreStockGate(ctx, granted)
		return o, fmt.Errorf("orders.CreateOrder: %w", err)
	}

	s.notify(ctx, order)

	return order, nil
}

// GetOrder returns the order only to its owner.
func (s *CheckoutService) GetOrder(ctx context.Context, user domain.User, orderID int64) (domain.Order, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("orders.GetOrder: %w", err)
	}

	if order.UserID != user.ID {
		return domain.Order{}, domain.ErrNotOrderOwner
	}

	return order, nil
}

func (s *CheckoutService) GetUserOrders(ctx context.Context, user domain.User) ([]domain.Order, error) {
	orders, err := s.orders.GetUserOrders(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("orders.GetUserOrders: %w", err)
	}
	return orders, nil
}

type grantedStock struct {
	productID int64
	quantity  int
}

// passStockGate runs the optimistic per-line cache decrement. A gate miss
// fails fast with ErrInsufficientStock after restoring earlier lines; a
// cache outage only logs and lets the transaction decide.
func (s *CheckoutService) passStockGate(ctx context.Context, draft domain.OrderDraft) ([]grantedStock, error) {
	if s.stock == nil {
		return nil, nil
	}

	granted := make([]grantedStock, 0, len(draft.Lines))
	for _, line := range draft.Lines {
		ok, err := s.stock.DecrementStock(ctx, line.Product.ID, line.Quantity)
		if errors.Is(err, port.ErrStockNotCached) {
			continue
		}
		if err != nil {
			obs.Logger.Warn("stock gate unavailable, deferring to storage",
				"product_id", line.Product.ID,
				"error", err.Error(),
			)
			continue
		}
		if !ok {
			s.restoreStockGate(ctx, granted)
			return nil, fmt.Errorf("product %s: %w", line.Product.Name, domain.ErrInsufficientStock)
		}
		granted = append(granted, grantedStock{productID: line.Product.ID, quantity: line.Quantity})
	}

	return granted, nil
}

func (s *CheckoutService) restoreStockGate(ctx context.Context, granted []grantedStock) {
	for _, g := range granted {
		if err := s.stock.RestoreStock(ctx, g.productID, g.quantity); err != nil {
			obs.Logger.Error("stock gate restore failed",
				"product_id", g.productID,
				"quantity", g.quantity,
				"error", err.Error(),
			)
		}
	}
}

// notify fires the confirmation exactly once, after commit. Failures are
// logged, never propagated.
func (s *CheckoutService) notify(ctx context.Context, order domain.Order) {
	if s.notifier == nil {
		return
	}

	if err := s.notifier.SendOrderConfirmation(ctx, order); err != nil {
		obs.Logger.Error("order confirmation failed",
			"order_id", order.ID,
			"order_number", order.OrderNumber,
			"customer_email", order.CustomerEmail,
			"error", err.Error(),
		)
		return
	}

	obs.Logger.Info("order confirmation sent",
		"order_id", order.ID,
		"order_number", order.OrderNumber,
		"customer_email", order.CustomerEmail,
	)
}
