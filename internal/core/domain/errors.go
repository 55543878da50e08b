package domain

import "errors"

// Business-rule failures. All of them abort the checkout before or during
// the storage transaction and leave the store unchanged.
var (
	ErrEmptyCart         = errors.New("order must contain at least one item")
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrOrderNotFound     = errors.New("order not found")
	ErrNotOrderOwner     = errors.New("order belongs to another user")
	ErrUserNotFound      = errors.New("user not found")
)
