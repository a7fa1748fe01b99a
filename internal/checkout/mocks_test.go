package checkout

import (
	"context"
	"sync"
	"time"

	d "github.com/fjod/go_cart/checkout/domain"
	"github.com/fjod/go_cart/checkout/internal/coupon"
	"github.com/fjod/go_cart/checkout/internal/poller"
)

// calls records collaborator calls in order, across all mocks of one test.
type calls struct {
	mu  sync.Mutex
	log []string
}

func (c *calls) add(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.log = append(c.log, name)
}

func (c *calls) list() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.log...)
}

// MockCartProvider implements CartProvider for testing
type MockCartProvider struct {
	Items    []d.CartItem
	Err      error
	ClearErr error
	Cleared  bool
	calls    *calls
}

func (m *MockCartProvider) GetCart(_ context.Context, _ string) ([]d.CartItem, error) {
	m.calls.add("GetCart")
	return m.Items, m.Err
}

func (m *MockCartProvider) ClearCart(_ context.Context, _ string) error {
	m.calls.add("ClearCart")
	m.Cleared = true
	return m.ClearErr
}

// MockAddressStore implements AddressStore for testing
type MockAddressStore struct {
	Current   *d.Address
	GetErr    error
	UpsertErr error
	Upserted  *d.Address
}

func (m *MockAddressStore) GetCurrentAddress(_ context.Context, _ string) (*d.Address, error) {
	return m.Current, m.GetErr
}

func (m *MockAddressStore) UpsertAddress(_ context.Context, _ string, addr d.Address) (*d.Address, error) {
	if m.UpsertErr != nil {
		return nil, m.UpsertErr
	}
	m.Upserted = &addr
	m.Current = &addr
	return &addr, nil
}

// MockOrderService implements OrderService for testing
type MockOrderService struct {
	Order       *d.Order
	CreateErr   error
	AttachErr   error
	DeleteErr   error
	Status      d.OrderStatus
	StatusErr   error
	Created     *d.CartSummary
	Deleted     []string
	Attached    *d.PaymentSession
	DeleteCtxOK bool
	calls       *calls
}

func (m *MockOrderService) CreateOrder(_ context.Context, userID string, summary d.CartSummary, addr d.Address) (*d.Order, error) {
	m.calls.add("CreateOrder")
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	m.Created = &summary
	order := *m.Order
	order.UserID = userID
	order.Total = summary.Total
	order.Currency = summary.Currency
	order.ShippingAddress = addr
	return &order, nil
}

func (m *MockOrderService) AttachPayment(_ context.Context, _ string, session *d.PaymentSession) error {
	m.calls.add("AttachPayment")
	m.Attached = session
	return m.AttachErr
}

func (m *MockOrderService) DeleteOrder(ctx context.Context, orderID string) (bool, error) {
	m.calls.add("DeleteOrder")
	m.DeleteCtxOK = ctx.Err() == nil
	if m.DeleteErr != nil {
		return false, m.DeleteErr
	}
	m.Deleted = append(m.Deleted, orderID)
	return true, nil
}

func (m *MockOrderService) GetOrderStatus(_ context.Context, _ string) (d.OrderStatus, error) {
	if m.Status == "" {
		return d.OrderStatusPaymentPending, m.StatusErr
	}
	return m.Status, m.StatusErr
}

// MockGateway implements PaymentGateway for testing
type MockGateway struct {
	Session   *d.PaymentSession
	CreateErr error
	Signal    d.Signal
	OpenErr   error
	// BlockOpen makes Open wait for ctx to be cancelled.
	BlockOpen bool
	Opened    chan struct{}
	Intent    *d.PaymentIntent
	calls     *calls
}

func (m *MockGateway) Create(_ context.Context, intent d.PaymentIntent) (*d.PaymentSession, error) {
	m.calls.add("CreateSession")
	m.Intent = &intent
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	s := *m.Session
	s.OrderID = intent.OrderID
	s.Amount = intent.Amount
	s.Currency = intent.Currency
	return &s, nil
}

func (m *MockGateway) Open(ctx context.Context, _ *d.PaymentSession) (d.Signal, error) {
	m.calls.add("OpenUI")
	if m.Opened != nil {
		close(m.Opened)
	}
	if m.BlockOpen {
		<-ctx.Done()
		return d.Signal{}, ctx.Err()
	}
	return m.Signal, m.OpenErr
}

func (m *MockGateway) Release(_ *d.PaymentSession) {
	m.calls.add("Release")
}

// MockConfirmer implements Confirmer for testing
type MockConfirmer struct {
	Result        poller.Result
	Err           error
	Progress      []d.Progress
	Block         bool
	Started       chan struct{}
	CorrelationID string
	Timeout       time.Duration
	calls         *calls
}

func (m *MockConfirmer) Confirm(ctx context.Context, correlationID string, timeout time.Duration, onProgress poller.ProgressFunc) (poller.Result, error) {
	m.calls.add("Confirm")
	m.CorrelationID = correlationID
	m.Timeout = timeout
	for _, p := range m.Progress {
		onProgress(p)
	}
	if m.Started != nil {
		close(m.Started)
	}
	if m.Block {
		<-ctx.Done()
		return poller.Result{}, ctx.Err()
	}
	return m.Result, m.Err
}

// MockCouponValidator implements coupon.Validator for testing
type MockCouponValidator struct {
	Coupons map[string]*d.Coupon
}

func (m *MockCouponValidator) Validate(_ context.Context, code string) (*d.Coupon, error) {
	c, ok := m.Coupons[code]
	if !ok {
		return nil, coupon.ErrNotFound
	}
	return c, nil
}

// MockUsageRecorder implements CouponUsageRecorder for testing
type MockUsageRecorder struct {
	Codes []string
	Err   error
	calls *calls
}

func (m *MockUsageRecorder) RecordUsage(_ context.Context, code string) error {
	m.calls.add("RecordUsage")
	m.Codes = append(m.Codes, code)
	return m.Err
}

// MockPublisher implements EventPublisher for testing
type MockPublisher struct {
	mu     sync.Mutex
	Events []d.CheckoutEvent
	Err    error
}

func (m *MockPublisher) Publish(_ context.Context, event d.CheckoutEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
	return m.Err
}

func (m *MockPublisher) Types() []d.EventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]d.EventType, len(m.Events))
	for i, e := range m.Events {
		types[i] = e.Type
	}
	return types
}
