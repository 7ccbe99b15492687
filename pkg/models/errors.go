package models

import "errors"

var (
	ErrInvalidSize     = errors.New("size not available for product")
	ErrItemNotFound    = errors.New("item not found in cart")
	ErrEmptyCart       = errors.New("cart is empty")
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidProduct  = errors.New("invalid product")
	ErrNotFound        = errors.New("not found")
	ErrUpstream        = errors.New("upstream failure")
)
