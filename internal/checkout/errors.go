package checkout

import (
	"errors"

	"github.com/fjod/go_cart/checkout/internal/cart"
	"github.com/fjod/go_cart/checkout/internal/coupon"
)

var (
	ErrMissingAddress        = errors.New("shipping address is required")
	ErrInvalidAddress        = errors.New("shipping address is invalid")
	ErrNothingToPay          = errors.New("order total is zero, nothing to pay")
	ErrIllegalTransition     = errors.New("illegal transition of checkout status")
	ErrCheckoutInProgress    = errors.New("a checkout attempt is already in progress")
	ErrPaymentStart          = errors.New("could not start payment")
	ErrConfirmationCancelled = errors.New("payment confirmation cancelled")
)

// ReasonCode maps an orchestrator error to a stable code for clients.
func ReasonCode(err error) string {
	if code := coupon.ReasonCode(err); code != "" {
		return code
	}
	switch {
	case errors.Is(err, cart.ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, cart.ErrOutOfStock):
		return "out_of_stock"
	case errors.Is(err, ErrMissingAddress):
		return "missing_address"
	case errors.Is(err, ErrInvalidAddress):
		return "invalid_address"
	case errors.Is(err, ErrNothingToPay):
		return "nothing_to_pay"
	case errors.Is(err, ErrIllegalTransition):
		return "illegal_transition"
	case errors.Is(err, ErrCheckoutInProgress):
		return "checkout_in_progress"
	case errors.Is(err, ErrPaymentStart):
		return "payment_start_failed"
	case errors.Is(err, ErrConfirmationCancelled):
		return "confirmation_cancelled"
	default:
		return "internal_error"
	}
}

// IsBlocking reports whether err stopped checkout before any side effect.
func IsBlocking(err error) bool {
	switch ReasonCode(err) {
	case "empty_cart", "out_of_stock", "missing_address", "invalid_address", "nothing_to_pay":
		return true
	}
	return coupon.IsRejection(err)
}
