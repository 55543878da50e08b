package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var validOrderStatuses = map[OrderStatus]struct{}{
	OrderStatusPending:   {},
	OrderStatusShipped:   {},
	OrderStatusDelivered: {},
	OrderStatusCancelled: {},
}

func ToOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if _, ok := validOrderStatuses[status]; ok {
		return status, nil
	}
	return "", fmt.Errorf("invalid order status: %q", s)
}

type Order struct {
	ID              int64
	UserID          int64
	OrderNumber     string
	TotalAmount     decimal.Decimal
	Status          OrderStatus
	CustomerName    string
	CustomerEmail   string
	ShippingAddress string
	Items           []OrderItem
	CreatedAt       time.Time
}

// OrderItem captures the product price at order time; later catalog price
// changes never alter it.
type OrderItem struct {
	OrderID   int64
	ProductID int64
	Quantity  int
	Price     decimal.Decimal
	Subtotal  decimal.Decimal
	Product   Product
}

// NewOrderNumber returns a human-legible order number, e.g.
// ORD-20260829-1A2B3C4D. Uniqueness is enforced by the storage layer;
// callers regenerate on collision.
func NewOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%s", now.UTC().Format("20060102"), suffix)
}
