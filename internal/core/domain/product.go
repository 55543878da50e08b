package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          int64
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	SKU         string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// InStock reports whether the product can satisfy the requested quantity
// based on the stock value read at load time.
func (p Product) InStock(quantity int) bool {
	return p.Active && quantity > 0 && p.Stock >= quantity
}
