package domain

import "github.com/shopspring/decimal"

// CartItem is a cart line with the price captured when the product was added
// and the stock level observed when the cart was last read.
type CartItem struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int32           `json:"quantity"`
	Stock       int32           `json:"stock"`
}

// LineTotal returns unit price x quantity.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt32(i.Quantity))
}

// InStock reports whether the requested quantity is covered by the stock snapshot.
func (i CartItem) InStock() bool {
	return i.Quantity <= i.Stock
}

// ClampQuantity returns the quantity to store when adding n more units of a
// product with the given stock: never above stock, never below 1.
func ClampQuantity(current, n, stock int32) int32 {
	q := current + n
	if q > stock {
		q = stock
	}
	if q < 1 {
		q = 1
	}
	return q
}

// CartSummary is the priced view over cart items, coupon and shipping rule.
// It is recomputed on every read and never stored.
type CartSummary struct {
	Items      []CartItem      `json:"items"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Discount   decimal.Decimal `json:"discount"`
	Shipping   decimal.Decimal `json:"shipping"`
	Total      decimal.Decimal `json:"total"`
	CouponCode string          `json:"coupon_code,omitempty"`
	Currency   string          `json:"currency"`
}

// IsEmpty reports whether the summary has no lines.
func (s CartSummary) IsEmpty() bool {
	return len(s.Items) == 0
}
