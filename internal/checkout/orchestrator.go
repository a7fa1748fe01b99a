package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	d "github.com/fjod/go_cart/checkout/domain"
	"github.com/fjod/go_cart/checkout/internal/cart"
	"github.com/fjod/go_cart/checkout/internal/coupon"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Orchestrator drives one user's checkout from cart review to a terminal
// payment outcome. Operations are serialized: while one runs, the others
// fail with ErrCheckoutInProgress.
type Orchestrator struct {
	userID     string
	deps       Deps
	aggregator *cart.Aggregator
	cfg        Config
	validate   *validator.Validate
	observer   Observer
	logger     *zap.Logger
	now        func() time.Time

	mu         sync.Mutex
	busy       bool
	state      d.CheckoutState
	reason     d.AbortReason
	address    *d.Address
	couponCode string
	session    *d.PaymentSession
	order      *d.Order
	progress   *d.Progress
	outcome    *d.Outcome
}

type Option func(*Orchestrator)

func WithObserver(observer Observer) Option {
	return func(o *Orchestrator) { o.observer = observer }
}

func WithValidator(v *validator.Validate) Option {
	return func(o *Orchestrator) { o.validate = v }
}

func NewOrchestrator(userID string, deps Deps, aggregator *cart.Aggregator, cfg Config, logger *zap.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		userID:     userID,
		deps:       deps,
		aggregator: aggregator,
		cfg:        cfg,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		logger:     logger.With(zap.String("user_id", userID)),
		now:        time.Now,
		state:      d.CheckoutStateCartReview,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) UserID() string {
	return o.userID
}

func (o *Orchestrator) CurrentState() d.CheckoutState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

func (o *Orchestrator) snapshotLocked() Snapshot {
	s := Snapshot{
		UserID:     o.userID,
		State:      o.state,
		Reason:     o.reason,
		CouponCode: o.couponCode,
		Busy:       o.busy,
	}
	if o.address != nil {
		addr := *o.address
		s.Address = &addr
	}
	if o.session != nil {
		sess := *o.session
		s.Session = &sess
	}
	if o.order != nil {
		s.Order = &d.OrderRef{OrderID: o.order.ID, OrderNumber: o.order.OrderNumber}
	}
	if o.progress != nil {
		p := *o.progress
		s.Progress = &p
	}
	if o.outcome != nil {
		out := *o.outcome
		s.Outcome = &out
	}
	return s
}

func (o *Orchestrator) acquire() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.busy {
		return ErrCheckoutInProgress
	}
	o.busy = true
	return nil
}

func (o *Orchestrator) release() {
	o.mu.Lock()
	o.busy = false
	o.mu.Unlock()
}

// transition moves the state machine along a legal edge and tells the observer.
func (o *Orchestrator) transition(to d.CheckoutState, reason d.AbortReason) error {
	o.mu.Lock()
	from := o.state
	if !d.CanTransitionTo(from, to) {
		o.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	o.state = to
	o.reason = reason
	snap := o.snapshotLocked()
	o.mu.Unlock()

	o.logger.Info("checkout state changed",
		zap.String("from", from.String()),
		zap.String("state", to.String()),
		zap.String("reason", string(reason)))
	o.notify(snap)
	return nil
}

func (o *Orchestrator) notify(snap Snapshot) {
	if o.observer != nil {
		o.observer(snap)
	}
}

// Begin starts or restarts checkout from the live cart and the user's
// current address. A terminal or abandoned checkout starts over.
func (o *Orchestrator) Begin(ctx context.Context) error {
	if err := o.acquire(); err != nil {
		return err
	}
	defer o.release()

	items, err := o.deps.Cart.GetCart(ctx, o.userID)
	if err != nil {
		return fmt.Errorf("failed to load cart: %w", err)
	}
	if err := cart.CheckStock(items); err != nil {
		return err
	}
	addr, err := o.deps.Addresses.GetCurrentAddress(ctx, o.userID)
	if err != nil {
		return fmt.Errorf("failed to load address: %w", err)
	}

	o.mu.Lock()
	if o.state.IsInFlight() {
		o.logger.Warn("restarting abandoned checkout",
			zap.String("state", o.state.String()))
	}
	if o.state == d.CheckoutStateCompleted {
		o.couponCode = ""
	}
	o.state = d.CheckoutStateCartReview
	o.reason = d.AbortReasonNone
	o.session = nil
	o.order = nil
	o.progress = nil
	o.outcome = nil
	o.address = addr
	o.mu.Unlock()

	if addr == nil {
		return o.transition(d.CheckoutStateAddressRequired, d.AbortReasonNone)
	}
	return o.transition(d.CheckoutStateAddressReady, d.AbortReasonNone)
}

// SetAddress validates and stores the shipping address.
func (o *Orchestrator) SetAddress(ctx context.Context, addr d.Address) (*d.Address, error) {
	if err := o.acquire(); err != nil {
		return nil, err
	}
	defer o.release()

	if state := o.CurrentState(); !d.CanTransitionTo(state, d.CheckoutStateAddressReady) || state == d.CheckoutStateCartReview {
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, state, d.CheckoutStateAddressReady)
	}
	if err := o.validate.StructCtx(ctx, addr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}

	saved, err := o.deps.Addresses.UpsertAddress(ctx, o.userID, addr)
	if err != nil {
		return nil, fmt.Errorf("failed to save address: %w", err)
	}

	o.mu.Lock()
	o.address = saved
	o.mu.Unlock()

	if err := o.transition(d.CheckoutStateAddressReady, d.AbortReasonNone); err != nil {
		return nil, err
	}
	return saved, nil
}

// EditAddress reopens address collection.
func (o *Orchestrator) EditAddress() error {
	if err := o.acquire(); err != nil {
		return err
	}
	defer o.release()

	if state := o.CurrentState(); state != d.CheckoutStateAddressReady {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, state, d.CheckoutStateAddressRequired)
	}
	return o.transition(d.CheckoutStateAddressRequired, d.AbortReasonNone)
}

// ApplyCoupon validates code against the live subtotal and remembers it for
// this checkout. A rejected code leaves the previous one in place.
func (o *Orchestrator) ApplyCoupon(ctx context.Context, code string) (d.CartSummary, error) {
	if err := o.acquire(); err != nil {
		return d.CartSummary{}, err
	}
	defer o.release()

	if state := o.CurrentState(); state.IsTerminal() || state.IsInFlight() {
		return d.CartSummary{}, fmt.Errorf("%w: cannot change coupon in %s", ErrIllegalTransition, state)
	}

	items, err := o.deps.Cart.GetCart(ctx, o.userID)
	if err != nil {
		return d.CartSummary{}, fmt.Errorf("failed to load cart: %w", err)
	}
	base := o.aggregator.Summarize(items, nil)
	applied, err := o.deps.Coupons.Apply(ctx, code, base.Subtotal)
	if err != nil {
		return base, err
	}

	o.mu.Lock()
	o.couponCode = applied.Code
	o.mu.Unlock()

	o.logger.Info("coupon applied",
		zap.String("coupon_code", applied.Code),
		zap.String("discount", applied.Discount.StringFixed(2)))
	return o.aggregator.Summarize(items, applied), nil
}

func (o *Orchestrator) RemoveCoupon() error {
	if err := o.acquire(); err != nil {
		return err
	}
	defer o.release()

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state.IsInFlight() {
		return fmt.Errorf("%w: cannot change coupon in %s", ErrIllegalTransition, o.state)
	}
	o.couponCode = ""
	return nil
}

// Summary prices the live cart with the remembered coupon. A coupon that no
// longer applies contributes no discount; ProceedToPayment reports why.
func (o *Orchestrator) Summary(ctx context.Context) (d.CartSummary, error) {
	o.mu.Lock()
	code := o.couponCode
	o.mu.Unlock()

	items, err := o.deps.Cart.GetCart(ctx, o.userID)
	if err != nil {
		return d.CartSummary{}, fmt.Errorf("failed to load cart: %w", err)
	}
	summary, _, err := o.price(ctx, items, code)
	if err != nil && !coupon.IsRejection(err) {
		return d.CartSummary{}, err
	}
	return summary, nil
}

// price summarizes items and applies code when set. On a coupon rejection the
// summary is returned without discount together with the rejection.
func (o *Orchestrator) price(ctx context.Context, items []d.CartItem, code string) (d.CartSummary, *d.AppliedCoupon, error) {
	base := o.aggregator.Summarize(items, nil)
	if code == "" {
		return base, nil, nil
	}
	applied, err := o.deps.Coupons.Apply(ctx, code, base.Subtotal)
	if err != nil {
		if coupon.IsRejection(err) {
			o.logger.Info("coupon no longer applies",
				zap.String("coupon_code", code),
				zap.Error(err))
		}
		return base, nil, err
	}
	return o.aggregator.Summarize(items, applied), applied, nil
}
