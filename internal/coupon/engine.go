package coupon

import (
	"context"
	"fmt"
	"strings"
	"time"

	d "github.com/fjod/go_cart/checkout/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Validator looks a coupon up by its normalized code.
// Implementations return ErrNotFound when no coupon matches.
type Validator interface {
	Validate(ctx context.Context, code string) (*d.Coupon, error)
}

type Engine struct {
	validator Validator
	now       func() time.Time
}

func NewEngine(validator Validator) *Engine {
	return &Engine{
		validator: validator,
		now:       time.Now,
	}
}

// NormalizeCode trims the code and folds it to upper case; codes are case-insensitive.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Apply validates code against the cart subtotal and computes the discount.
// It has no side effects: usage is recorded only after a confirmed payment.
func (e *Engine) Apply(ctx context.Context, code string, subtotal decimal.Decimal) (*d.AppliedCoupon, error) {
	if subtotal.IsNegative() {
		return nil, ErrInvalidSubtotal
	}
	normalized := NormalizeCode(code)
	if normalized == "" {
		return nil, ErrNotFound
	}

	c, err := e.validator.Validate(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if err := e.check(c, subtotal); err != nil {
		return nil, err
	}

	return &d.AppliedCoupon{
		Code:     c.Code,
		Kind:     c.Kind,
		Value:    c.Value,
		Discount: Discount(c, subtotal),
	}, nil
}

func (e *Engine) check(c *d.Coupon, subtotal decimal.Decimal) error {
	if c == nil || !c.Active {
		return ErrNotFound
	}
	if c.IsExpired(e.now()) {
		return ErrExpired
	}
	if c.IsExhausted() {
		return ErrUsageExhausted
	}
	if subtotal.LessThan(c.MinOrder) {
		return fmt.Errorf("%w: minimum order is %s", ErrBelowMinimumOrder, c.MinOrder.StringFixed(2))
	}
	return nil
}

// Discount computes the coupon discount for subtotal, clamped to [0, subtotal].
func Discount(c *d.Coupon, subtotal decimal.Decimal) decimal.Decimal {
	if c == nil || !subtotal.IsPositive() || !c.Value.IsPositive() {
		return decimal.Zero
	}
	var discount decimal.Decimal
	switch c.Kind {
	case d.DiscountPercent:
		discount = subtotal.Mul(c.Value).Div(hundred)
	case d.DiscountFlat:
		discount = c.Value
	default:
		return decimal.Zero
	}
	return decimal.Min(discount, subtotal).Round(2)
}
