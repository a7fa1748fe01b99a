package http

import (
	"context"

	d "github.com/fjod/go_cart/checkout/domain"
	"github.com/fjod/go_cart/checkout/internal/checkout"
)

// MockCartService implements CartService for testing
type MockCartService struct {
	Summary     d.CartSummary
	CanCheckout bool
	Err         error
	UserID      string
	ProductID   string
	Quantity    int32
}

func (m *MockCartService) GetCart(_ context.Context, userID string) (d.CartSummary, bool, error) {
	m.UserID = userID
	return m.Summary, m.CanCheckout, m.Err
}

func (m *MockCartService) AddItem(_ context.Context, userID, productID string, quantity int32) (d.CartSummary, bool, error) {
	m.UserID = userID
	m.ProductID = productID
	m.Quantity = quantity
	return m.Summary, m.CanCheckout, m.Err
}

// MockCheckoutService implements CheckoutService for testing
type MockCheckoutService struct {
	Snap      checkout.Snapshot
	Summ      d.CartSummary
	Err       error
	UserID    string
	Address   *d.Address
	Code      string
	Cancelled bool
	Removed   bool
}

func (m *MockCheckoutService) Begin(_ context.Context, userID string) (checkout.Snapshot, error) {
	m.UserID = userID
	return m.Snap, m.Err
}

func (m *MockCheckoutService) Snapshot(userID string) checkout.Snapshot {
	m.UserID = userID
	return m.Snap
}

func (m *MockCheckoutService) SetAddress(_ context.Context, userID string, addr d.Address) (checkout.Snapshot, error) {
	m.UserID = userID
	m.Address = &addr
	return m.Snap, m.Err
}

func (m *MockCheckoutService) EditAddress(userID string) (checkout.Snapshot, error) {
	m.UserID = userID
	return m.Snap, m.Err
}

func (m *MockCheckoutService) ApplyCoupon(_ context.Context, userID, code string) (d.CartSummary, error) {
	m.UserID = userID
	m.Code = code
	return m.Summ, m.Err
}

func (m *MockCheckoutService) RemoveCoupon(userID string) error {
	m.UserID = userID
	m.Removed = true
	return m.Err
}

func (m *MockCheckoutService) Summary(_ context.Context, userID string) (d.CartSummary, error) {
	m.UserID = userID
	return m.Summ, m.Err
}

func (m *MockCheckoutService) Pay(_ context.Context, userID string) (checkout.Snapshot, error) {
	m.UserID = userID
	return m.Snap, m.Err
}

func (m *MockCheckoutService) Cancel(userID string) error {
	m.UserID = userID
	m.Cancelled = true
	return m.Err
}

// MockPaymentService implements PaymentService for testing
type MockPaymentService struct {
	Err       error
	SessionID string
	Sig       d.Signal
	Body      []byte
	Signature string
}

func (m *MockPaymentService) Signal(sessionID string, sig d.Signal) error {
	m.SessionID = sessionID
	m.Sig = sig
	return m.Err
}

func (m *MockPaymentService) HandleWebhook(_ context.Context, body []byte, signature string) error {
	m.Body = body
	m.Signature = signature
	return m.Err
}
