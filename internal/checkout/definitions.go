package checkout

import (
	"context"
	"time"

	d "github.com/fjod/go_cart/checkout/domain"
	"github.com/fjod/go_cart/checkout/internal/poller"
	"github.com/shopspring/decimal"
)

type CartProvider interface {
	GetCart(ctx context.Context, userID string) ([]d.CartItem, error)
	ClearCart(ctx context.Context, userID string) error
}

type AddressStore interface {
	// GetCurrentAddress returns nil, nil when the user has no address yet.
	GetCurrentAddress(ctx context.Context, userID string) (*d.Address, error)
	UpsertAddress(ctx context.Context, userID string, addr d.Address) (*d.Address, error)
}

type OrderService interface {
	CreateOrder(ctx context.Context, userID string, summary d.CartSummary, addr d.Address) (*d.Order, error)
	AttachPayment(ctx context.Context, orderID string, session *d.PaymentSession) error
	// DeleteOrder reports whether an order was removed. Deleting an order
	// that is already gone is not an error.
	DeleteOrder(ctx context.Context, orderID string) (bool, error)
	GetOrderStatus(ctx context.Context, orderID string) (d.OrderStatus, error)
}

type PaymentGateway interface {
	Create(ctx context.Context, intent d.PaymentIntent) (*d.PaymentSession, error)
	Open(ctx context.Context, session *d.PaymentSession) (d.Signal, error)
	// Release drops the session's callback mailbox. Safe to call more than once.
	Release(session *d.PaymentSession)
}

type Confirmer interface {
	Confirm(ctx context.Context, correlationID string, timeout time.Duration, onProgress poller.ProgressFunc) (poller.Result, error)
}

type CouponApplier interface {
	Apply(ctx context.Context, code string, subtotal decimal.Decimal) (*d.AppliedCoupon, error)
}

type CouponUsageRecorder interface {
	RecordUsage(ctx context.Context, code string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, event d.CheckoutEvent) error
}

// Observer is told about every state change and progress event.
// It runs outside the orchestrator lock and must not block for long.
type Observer func(Snapshot)

// Snapshot is a consistent read of one checkout.
type Snapshot struct {
	UserID     string            `json:"user_id"`
	State      d.CheckoutState   `json:"state"`
	Reason     d.AbortReason     `json:"reason,omitempty"`
	Address    *d.Address        `json:"address,omitempty"`
	CouponCode string            `json:"coupon_code,omitempty"`
	Session    *d.PaymentSession `json:"payment_session,omitempty"`
	Order      *d.OrderRef       `json:"order,omitempty"`
	Progress   *d.Progress       `json:"progress,omitempty"`
	Outcome    *d.Outcome        `json:"outcome,omitempty"`
	Busy       bool              `json:"busy"`
}

type Config struct {
	Currency            string
	ConfirmationTimeout time.Duration
	CompensationTimeout time.Duration
	EventTimeout        time.Duration
}

func DefaultConfig() Config {
	return Config{
		Currency:            "INR",
		ConfirmationTimeout: poller.DefaultTimeout,
		CompensationTimeout: 10 * time.Second,
		EventTimeout:        5 * time.Second,
	}
}

// Deps are the collaborators one orchestrator drives.
type Deps struct {
	Cart      CartProvider
	Addresses AddressStore
	Orders    OrderService
	Gateway   PaymentGateway
	Confirmer Confirmer
	Coupons   CouponApplier
	Usage     CouponUsageRecorder
	Events    EventPublisher
}
