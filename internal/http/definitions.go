package http

import (
	"context"

	d "github.com/fjod/go_cart/checkout/domain"
	"github.com/fjod/go_cart/checkout/internal/checkout"
)

type CartService interface {
	GetCart(ctx context.Context, userID string) (d.CartSummary, bool, error)
	AddItem(ctx context.Context, userID, productID string, quantity int32) (d.CartSummary, bool, error)
}

type CheckoutService interface {
	Begin(ctx context.Context, userID string) (checkout.Snapshot, error)
	Snapshot(userID string) checkout.Snapshot
	SetAddress(ctx context.Context, userID string, addr d.Address) (checkout.Snapshot, error)
	EditAddress(userID string) (checkout.Snapshot, error)
	ApplyCoupon(ctx context.Context, userID, code string) (d.CartSummary, error)
	RemoveCoupon(userID string) error
	Summary(ctx context.Context, userID string) (d.CartSummary, error)
	Pay(ctx context.Context, userID string) (checkout.Snapshot, error)
	Cancel(userID string) error
}

type PaymentService interface {
	Signal(sessionID string, sig d.Signal) error
	HandleWebhook(ctx context.Context, body []byte, signature string) error
}
