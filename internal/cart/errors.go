package cart

import "errors"

var (
	ErrEmptyCart  = errors.New("cart is empty, nothing to checkout")
	ErrOutOfStock = errors.New("cart item quantity exceeds available stock")
)
