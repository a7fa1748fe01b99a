package cart

import (
	"fmt"

	d "github.com/fjod/go_cart/checkout/domain"
	"github.com/fjod/go_cart/checkout/internal/coupon"
	"github.com/shopspring/decimal"
)

// ShippingBasis selects which amount is compared against the free-shipping threshold.
type ShippingBasis string

const (
	ShippingBasisSubtotal   ShippingBasis = "subtotal"
	ShippingBasisDiscounted ShippingBasis = "discounted"
)

// ShippingRule: free when the basis amount is strictly above FreeAbove, Fee otherwise.
type ShippingRule struct {
	FreeAbove decimal.Decimal
	Fee       decimal.Decimal
	Basis     ShippingBasis
}

// DefaultShippingRule mirrors the storefront: free above 2000, 199 otherwise.
func DefaultShippingRule() ShippingRule {
	return ShippingRule{
		FreeAbove: decimal.NewFromInt(2000),
		Fee:       decimal.NewFromInt(199),
		Basis:     ShippingBasisSubtotal,
	}
}

type Aggregator struct {
	rule     ShippingRule
	currency string
}

func NewAggregator(rule ShippingRule, currency string) *Aggregator {
	if rule.Basis == "" {
		rule.Basis = ShippingBasisSubtotal
	}
	return &Aggregator{
		rule:     rule,
		currency: currency,
	}
}

// Summarize prices the cart. It copies items and never mutates its inputs,
// so repeated calls with the same inputs return equal summaries.
func (a *Aggregator) Summarize(items []d.CartItem, applied *d.AppliedCoupon) d.CartSummary {
	lines := make([]d.CartItem, len(items))
	copy(lines, items)

	subtotal := decimal.Zero
	for _, item := range lines {
		subtotal = subtotal.Add(item.LineTotal())
	}

	discount := decimal.Zero
	code := ""
	if applied != nil {
		discount = coupon.Discount(&d.Coupon{Kind: applied.Kind, Value: applied.Value}, subtotal)
		code = applied.Code
	}

	discounted := decimal.Max(decimal.Zero, subtotal.Sub(discount))
	shipping := a.shipping(lines, subtotal, discounted)

	return d.CartSummary{
		Items:      lines,
		Subtotal:   subtotal.Round(2),
		Discount:   discount.Round(2),
		Shipping:   shipping.Round(2),
		Total:      discounted.Add(shipping).Round(2),
		CouponCode: code,
		Currency:   a.currency,
	}
}

func (a *Aggregator) shipping(items []d.CartItem, subtotal, discounted decimal.Decimal) decimal.Decimal {
	if len(items) == 0 {
		return decimal.Zero
	}
	basis := subtotal
	if a.rule.Basis == ShippingBasisDiscounted {
		basis = discounted
	}
	if basis.GreaterThan(a.rule.FreeAbove) {
		return decimal.Zero
	}
	return a.rule.Fee
}

// CanCheckout is false if the cart is empty or any item's quantity exceeds its stock snapshot.
func (a *Aggregator) CanCheckout(items []d.CartItem) bool {
	return CheckStock(items) == nil
}

// CheckStock returns the reason checkout is blocked, or nil.
func CheckStock(items []d.CartItem) error {
	if len(items) == 0 {
		return ErrEmptyCart
	}
	for _, item := range items {
		if !item.InStock() {
			return fmt.Errorf("%w: product %s wants %d, %d available",
				ErrOutOfStock, item.ProductID, item.Quantity, item.Stock)
		}
	}
	return nil
}
