package domain

import "github.com/shopspring/decimal"

// CartItem is a single requested line of a checkout call. Repeated product
// IDs are kept as independent lines, not merged.
type CartItem struct {
	ProductID int64
	Quantity  int
}

// CustomerDetails are optional overrides; empty fields default to the
// ordering user's own name and email.
type CustomerDetails struct {
	Name            string
	Email           string
	ShippingAddress string
}

// DraftLine is one validated line of a not-yet-persisted order.
type DraftLine struct {
	Product   Product
	Quantity  int
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}

// OrderDraft is the in-memory result of cart validation, ready to be
// persisted atomically.
type OrderDraft struct {
	Lines []DraftLine
	Total decimal.Decimal
}
