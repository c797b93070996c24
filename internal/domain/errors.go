package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrNotReady indicates the cart manager was used before its initial load.
	ErrNotReady = errors.New("cart not loaded")
	// ErrQuantityTooLow indicates a cart mutation asked for a quantity below 1.
	ErrQuantityTooLow = errors.New("quantity must be at least 1")
	// ErrEmptyCart indicates an operation that needs cart contents found none.
	ErrEmptyCart = errors.New("cart is empty")
)
