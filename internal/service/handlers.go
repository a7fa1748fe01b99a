package service

import (
	"context"
	"time"

	d "github.com/fjod/go_cart/checkout/domain"
)

type CartHandler struct {
	cart    CartBackend
	timeout time.Duration
}

func NewCartHandler(cart CartBackend, timeout time.Duration) *CartHandler {
	return &CartHandler{
		cart:    cart,
		timeout: timeout,
	}
}

func (h *CartHandler) GetCart(ctx context.Context, userID string) ([]d.CartItem, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	return h.cart.GetCart(ctx, userID)
}

func (h *CartHandler) AddItem(ctx context.Context, userID, productID string, quantity int32) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	return h.cart.AddItem(ctx, userID, productID, quantity)
}

func (h *CartHandler) ClearCart(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	return h.cart.ClearCart(ctx, userID)
}

type AddressHandler struct {
	addresses AddressBackend
	timeout   time.Duration
}

func NewAddressHandler(addresses AddressBackend, timeout time.Duration) *AddressHandler {
	return &AddressHandler{
		addresses: addresses,
		timeout:   timeout,
	}
}

func (h *AddressHandler) GetCurrentAddress(ctx context.Context, userID string) (*d.Address, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	return h.addresses.GetCurrentAddress(ctx, userID)
}

func (h *AddressHandler) UpsertAddress(ctx context.Context, userID string, addr d.Address) (*d.Address, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	return h.addresses.UpsertAddress(ctx, userID, addr)
}

type OrderHandler struct {
	orders  OrderBackend
	timeout time.Duration
}

func NewOrderHandler(orders OrderBackend, timeout time.Duration) *OrderHandler {
	return &OrderHandler{
		orders:  orders,
		timeout: timeout,
	}
}

func (h *OrderHandler) CreateOrder(ctx context.Context, userID string, summary d.CartSummary, addr d.Address) (*d.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	return h.orders.CreateOrder(ctx, userID, summary, addr)
}

func (h *OrderHandler) AttachPayment(ctx context.Context, orderID string, session *d.PaymentSession) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	return h.orders.AttachPayment(ctx, orderID, session)
}

func (h *OrderHandler) DeleteOrder(ctx context.Context, orderID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	return h.orders.DeleteOrder(ctx, orderID)
}

func (h *OrderHandler) GetOrderStatus(ctx context.Context, orderID string) (d.OrderStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	return h.orders.GetOrderStatus(ctx, orderID)
}

type CouponHandler struct {
	coupons CouponBackend
	timeout time.Duration
}

func NewCouponHandler(coupons CouponBackend, timeout time.Duration) *CouponHandler {
	return &CouponHandler{
		coupons: coupons,
		timeout: timeout,
	}
}

func (h *CouponHandler) Validate(ctx context.Context, code string) (*d.Coupon, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	return h.coupons.Validate(ctx, code)
}

func (h *CouponHandler) RecordUsage(ctx context.Context, code string) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	return h.coupons.RecordUsage(ctx, code)
}

type StatusHandler struct {
	status  StatusBackend
	timeout time.Duration
}

func NewStatusHandler(status StatusBackend, timeout time.Duration) *StatusHandler {
	return &StatusHandler{
		status:  status,
		timeout: timeout,
	}
}

func (h *StatusHandler) QueryStatus(ctx context.Context, correlationID string) (*d.StatusReport, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	return h.status.QueryStatus(ctx, correlationID)
}
