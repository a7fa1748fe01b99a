package service

import (
	"context"

	d "github.com/fjod/go_cart/checkout/domain"
)

// CartBackend is the cart store as the HTTP layer and checkout see it.
type CartBackend interface {
	GetCart(ctx context.Context, userID string) ([]d.CartItem, error)
	AddItem(ctx context.Context, userID, productID string, quantity int32) error
	ClearCart(ctx context.Context, userID string) error
}

type AddressBackend interface {
	GetCurrentAddress(ctx context.Context, userID string) (*d.Address, error)
	UpsertAddress(ctx context.Context, userID string, addr d.Address) (*d.Address, error)
}

type OrderBackend interface {
	CreateOrder(ctx context.Context, userID string, summary d.CartSummary, addr d.Address) (*d.Order, error)
	AttachPayment(ctx context.Context, orderID string, session *d.PaymentSession) error
	DeleteOrder(ctx context.Context, orderID string) (bool, error)
	GetOrderStatus(ctx context.Context, orderID string) (d.OrderStatus, error)
}

type CouponBackend interface {
	Validate(ctx context.Context, code string) (*d.Coupon, error)
	RecordUsage(ctx context.Context, code string) error
}

type StatusBackend interface {
	QueryStatus(ctx context.Context, correlationID string) (*d.StatusReport, error)
}

// PaymentRecorder applies server-side payment notifications.
type PaymentRecorder interface {
	MarkPaymentSucceeded(ctx context.Context, transactionID, paymentID string) (string, error)
	MarkPaymentFailed(ctx context.Context, transactionID, reason string) error
}

// SignalSink receives the shopper's answer from the gateway UI.
type SignalSink interface {
	Deliver(sessionID string, sig d.Signal) error
}
