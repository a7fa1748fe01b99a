package service

import (
	"context"
	"sync"

	d "github.com/fjod/go_cart/checkout/domain"
	"github.com/fjod/go_cart/checkout/internal/coupon"
	"github.com/fjod/go_cart/checkout/internal/gateway"
	"github.com/shopspring/decimal"
)

// MockCart implements CartBackend for testing
type MockCart struct {
	mu       sync.Mutex
	Items    []d.CartItem
	Err      error
	AddErr   error
	Added    []string
	Cleared  []string
	ClearErr error
}

func (m *MockCart) GetCart(_ context.Context, _ string) ([]d.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]d.CartItem(nil), m.Items...), m.Err
}

func (m *MockCart) AddItem(_ context.Context, _ string, productID string, quantity int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AddErr != nil {
		return m.AddErr
	}
	m.Added = append(m.Added, productID)
	m.Items = append(m.Items, d.CartItem{ProductID: productID, ProductName: productID, UnitPrice: decimal.NewFromInt(100), Quantity: quantity, Stock: quantity})
	return nil
}

func (m *MockCart) ClearCart(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Cleared = append(m.Cleared, userID)
	return m.ClearErr
}

func (m *MockCart) ClearedUsers() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Cleared...)
}

// MockAddresses implements AddressBackend for testing
type MockAddresses struct {
	Current *d.Address
}

func (m *MockAddresses) GetCurrentAddress(_ context.Context, _ string) (*d.Address, error) {
	return m.Current, nil
}

func (m *MockAddresses) UpsertAddress(_ context.Context, _ string, addr d.Address) (*d.Address, error) {
	m.Current = &addr
	return &addr, nil
}

// MockOrders implements OrderBackend for testing
type MockOrders struct {
	mu        sync.Mutex
	CreateErr error
	AttachErr error
	Deleted   []string
	Attached  *d.PaymentSession
}

func (m *MockOrders) CreateOrder(_ context.Context, userID string, summary d.CartSummary, addr d.Address) (*d.Order, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	return &d.Order{
		ID:              "ord-1",
		OrderNumber:     "1250",
		UserID:          userID,
		Total:           summary.Total,
		Currency:        summary.Currency,
		ShippingAddress: addr,
		Status:          d.OrderStatusPaymentPending,
	}, nil
}

func (m *MockOrders) AttachPayment(_ context.Context, _ string, session *d.PaymentSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Attached = session
	return m.AttachErr
}

func (m *MockOrders) DeleteOrder(_ context.Context, orderID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deleted = append(m.Deleted, orderID)
	return true, nil
}

func (m *MockOrders) GetOrderStatus(_ context.Context, _ string) (d.OrderStatus, error) {
	return d.OrderStatusPaymentPending, nil
}

func (m *MockOrders) DeletedOrders() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Deleted...)
}

// MockCoupons implements CouponBackend for testing
type MockCoupons struct {
	mu      sync.Mutex
	Coupons map[string]*d.Coupon
	Used    []string
}

func (m *MockCoupons) Validate(_ context.Context, code string) (*d.Coupon, error) {
	c, ok := m.Coupons[code]
	if !ok {
		return nil, coupon.ErrNotFound
	}
	return c, nil
}

func (m *MockCoupons) RecordUsage(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Used = append(m.Used, code)
	return nil
}

// MockStatus implements StatusBackend for testing
type MockStatus struct {
	mu     sync.Mutex
	Status d.PaymentStatus
	Calls  int
}

func (m *MockStatus) QueryStatus(_ context.Context, _ string) (*d.StatusReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	return &d.StatusReport{Status: m.Status, OrderID: "ord-1", OrderNumber: "1250"}, nil
}

// MockGatewayClient implements gateway.GatewayClient on top of a real broker
type MockGatewayClient struct {
	Broker    *gateway.Broker
	SessionID string
	CreateErr error
}

func (m *MockGatewayClient) CreateSession(_ context.Context, _ decimal.Decimal, _, _ string) (string, error) {
	if m.CreateErr != nil {
		return "", m.CreateErr
	}
	m.Broker.Register(m.SessionID)
	return m.SessionID, nil
}

func (m *MockGatewayClient) OpenUI(ctx context.Context, sessionID string) (d.Signal, error) {
	return m.Broker.Wait(ctx, sessionID)
}

func (m *MockGatewayClient) ReleaseUI(sessionID string) {
	m.Broker.Forget(sessionID)
}

// MockPublisher implements checkout.EventPublisher for testing
type MockPublisher struct {
	mu     sync.Mutex
	Events []d.CheckoutEvent
}

func (m *MockPublisher) Publish(_ context.Context, event d.CheckoutEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
	return nil
}

// MockRecorder implements PaymentRecorder for testing
type MockRecorder struct {
	UserID     string
	SucceedErr error
	FailErr    error
	Succeeded  []string
	Failed     []string
	Reasons    []string
}

func (m *MockRecorder) MarkPaymentSucceeded(_ context.Context, transactionID, _ string) (string, error) {
	if m.SucceedErr != nil {
		return "", m.SucceedErr
	}
	m.Succeeded = append(m.Succeeded, transactionID)
	return m.UserID, nil
}

func (m *MockRecorder) MarkPaymentFailed(_ context.Context, transactionID, reason string) error {
	if m.FailErr != nil {
		return m.FailErr
	}
	m.Failed = append(m.Failed, transactionID)
	m.Reasons = append(m.Reasons, reason)
	return nil
}
