package service

import (
	"context"
	"fmt"

	d "github.com/fjod/go_cart/checkout/domain"
	"github.com/fjod/go_cart/checkout/internal/cart"
)

// CartView serves the cart page: live lines priced without a coupon.
type CartView struct {
	cart       *CartHandler
	aggregator *cart.Aggregator
}

func NewCartView(cart *CartHandler, aggregator *cart.Aggregator) *CartView {
	return &CartView{cart: cart, aggregator: aggregator}
}

func (v *CartView) GetCart(ctx context.Context, userID string) (d.CartSummary, bool, error) {
	items, err := v.cart.GetCart(ctx, userID)
	if err != nil {
		return d.CartSummary{}, false, fmt.Errorf("failed to get cart: %w", err)
	}
	return v.aggregator.Summarize(items, nil), v.aggregator.CanCheckout(items), nil
}

func (v *CartView) AddItem(ctx context.Context, userID, productID string, quantity int32) (d.CartSummary, bool, error) {
	if err := v.cart.AddItem(ctx, userID, productID, quantity); err != nil {
		return d.CartSummary{}, false, err
	}
	return v.GetCart(ctx, userID)
}
