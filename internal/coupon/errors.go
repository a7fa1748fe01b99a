package coupon

import "errors"

var (
	ErrNotFound          = errors.New("coupon not found")
	ErrExpired           = errors.New("coupon has expired")
	ErrUsageExhausted    = errors.New("coupon has been used maximum times")
	ErrBelowMinimumOrder = errors.New("cart total is below the coupon minimum order")
	ErrInvalidSubtotal   = errors.New("cart subtotal must not be negative")
)

// ReasonCode maps a coupon error to the code shown to shoppers.
// It returns an empty string for errors that are not coupon rejections.
func ReasonCode(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "coupon_not_found"
	case errors.Is(err, ErrExpired):
		return "coupon_expired"
	case errors.Is(err, ErrUsageExhausted):
		return "coupon_usage_exhausted"
	case errors.Is(err, ErrBelowMinimumOrder):
		return "coupon_below_minimum_order"
	case errors.Is(err, ErrInvalidSubtotal):
		return "invalid_subtotal"
	default:
		return ""
	}
}

// IsRejection reports whether err is one of the coupon rejections.
func IsRejection(err error) bool {
	return ReasonCode(err) != ""
}
