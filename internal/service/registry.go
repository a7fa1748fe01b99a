package service

import (
	"context"
	"sync"
	"time"

	d "github.com/fjod/go_cart/checkout/domain"
	"github.com/fjod/go_cart/checkout/internal/cart"
	"github.com/fjod/go_cart/checkout/internal/checkout"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Registry owns one checkout orchestrator per user and runs payment attempts
// in the background so an HTTP request only waits until the gateway session
// exists. Entries of users idle past a TTL are evicted by RunEviction.
type Registry struct {
	deps       checkout.Deps
	aggregator *cart.Aggregator
	cfg        checkout.Config
	validate   *validator.Validate
	logger     *zap.Logger
	now        func() time.Time

	baseCtx    context.Context
	cancelBase context.CancelFunc
	wg         sync.WaitGroup

	mu      sync.Mutex
	closed  bool
	entries map[string]*entry
}

type entry struct {
	orch     *checkout.Orchestrator
	lastUsed time.Time

	mu      sync.Mutex
	attempt *attempt
}

// idle reports whether the entry has no running attempt and no busy operation.
func (e *entry) idle() bool {
	e.mu.Lock()
	a := e.attempt
	e.mu.Unlock()
	if a != nil {
		if done, _, _ := a.result(); !done {
			return false
		}
	}
	return !e.orch.Snapshot().Busy
}

// attempt is one background ProceedToPayment run.
type attempt struct {
	ready    chan struct{}
	finished chan struct{}
	once     sync.Once
	cancel   context.CancelFunc

	mu      sync.Mutex
	done    bool
	outcome *d.Outcome
	err     error
}

func (a *attempt) signal() {
	a.once.Do(func() { close(a.ready) })
}

func (a *attempt) finish(out *d.Outcome, err error) {
	a.mu.Lock()
	a.done = true
	a.outcome = out
	a.err = err
	a.mu.Unlock()
	close(a.finished)
	a.signal()
}

func (a *attempt) result() (bool, *d.Outcome, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.done, a.outcome, a.err
}

func NewRegistry(deps checkout.Deps, aggregator *cart.Aggregator, cfg checkout.Config, validate *validator.Validate, logger *zap.Logger) *Registry {
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		deps:       deps,
		aggregator: aggregator,
		cfg:        cfg,
		validate:   validate,
		logger:     logger,
		now:        time.Now,
		baseCtx:    ctx,
		cancelBase: cancel,
		entries:    make(map[string]*entry),
	}
}

func (r *Registry) entry(userID string) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[userID]; ok {
		e.lastUsed = r.now()
		return e
	}
	e := &entry{lastUsed: r.now()}
	e.orch = checkout.NewOrchestrator(userID, r.deps, r.aggregator, r.cfg, r.logger,
		checkout.WithValidator(r.validate),
		checkout.WithObserver(r.observer(e)))
	r.entries[userID] = e
	return e
}

// observer releases a waiting Pay call as soon as the gateway session is open.
func (r *Registry) observer(e *entry) checkout.Observer {
	return func(s checkout.Snapshot) {
		if s.State != d.CheckoutStateAwaitingConfirmation {
			return
		}
		e.mu.Lock()
		a := e.attempt
		e.mu.Unlock()
		if a != nil {
			a.signal()
		}
	}
}

func (r *Registry) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func (r *Registry) Snapshot(userID string) checkout.Snapshot {
	return r.entry(userID).orch.Snapshot()
}

func (r *Registry) Begin(ctx context.Context, userID string) (checkout.Snapshot, error) {
	orch := r.entry(userID).orch
	err := orch.Begin(ctx)
	return orch.Snapshot(), err
}

func (r *Registry) SetAddress(ctx context.Context, userID string, addr d.Address) (checkout.Snapshot, error) {
	orch := r.entry(userID).orch
	_, err := orch.SetAddress(ctx, addr)
	return orch.Snapshot(), err
}

func (r *Registry) EditAddress(userID string) (checkout.Snapshot, error) {
	orch := r.entry(userID).orch
	err := orch.EditAddress()
	return orch.Snapshot(), err
}

func (r *Registry) ApplyCoupon(ctx context.Context, userID, code string) (d.CartSummary, error) {
	return r.entry(userID).orch.ApplyCoupon(ctx, code)
}

func (r *Registry) RemoveCoupon(userID string) error {
	return r.entry(userID).orch.RemoveCoupon()
}

func (r *Registry) Summary(ctx context.Context, userID string) (d.CartSummary, error) {
	return r.entry(userID).orch.Summary(ctx)
}

// Pay starts a payment attempt and returns once the gateway session is open,
// or earlier when the attempt is rejected or fails to start. The attempt
// keeps running after Pay returns.
func (r *Registry) Pay(ctx context.Context, userID string) (checkout.Snapshot, error) {
	if r.isClosed() {
		return checkout.Snapshot{}, ErrShuttingDown
	}
	e := r.entry(userID)

	attemptCtx, cancel := context.WithCancel(r.baseCtx)
	a := &attempt{ready: make(chan struct{}), finished: make(chan struct{}), cancel: cancel}

	e.mu.Lock()
	if prev := e.attempt; prev != nil {
		if done, _, _ := prev.result(); !done {
			e.mu.Unlock()
			cancel()
			return e.orch.Snapshot(), checkout.ErrCheckoutInProgress
		}
	}
	e.attempt = a
	e.mu.Unlock()

	log := r.logger.With(zap.String("user_id", userID))
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer cancel()
		out, err := e.orch.ProceedToPayment(attemptCtx)
		if err != nil {
			log.Warn("payment attempt ended with error", zap.Error(err))
		} else if out != nil {
			log.Info("payment attempt finished",
				zap.String("state", out.State.String()),
				zap.String("reason", string(out.Reason)),
				zap.String("correlation_id", out.CorrelationID))
		}
		a.finish(out, err)
	}()

	select {
	case <-a.ready:
	case <-ctx.Done():
		return e.orch.Snapshot(), ctx.Err()
	}

	if done, _, err := a.result(); done && err != nil {
		return e.orch.Snapshot(), err
	}
	return e.orch.Snapshot(), nil
}

// Wait blocks until the user's current attempt finishes and returns its result.
func (r *Registry) Wait(ctx context.Context, userID string) (*d.Outcome, error) {
	e := r.entry(userID)
	e.mu.Lock()
	a := e.attempt
	e.mu.Unlock()
	if a == nil {
		return nil, ErrNoCheckout
	}

	select {
	case <-a.finished:
		_, out, err := a.result()
		return out, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Cancel aborts the user's in-flight payment attempt. While the gateway UI
// is open this discards the order; during confirmation the attempt stops
// without an outcome and can be restarted with Begin.
func (r *Registry) Cancel(userID string) error {
	e := r.entry(userID)
	e.mu.Lock()
	a := e.attempt
	e.mu.Unlock()
	if a == nil {
		return ErrNoCheckout
	}
	if done, _, _ := a.result(); done {
		return ErrNoCheckout
	}
	a.cancel()
	return nil
}

// Evict drops the orchestrators of users not seen for longer than ttl.
// Entries with a running attempt or operation are kept.
func (r *Registry) Evict(ttl time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-ttl)
	evicted := 0
	for userID, e := range r.entries {
		if e.lastUsed.After(cutoff) || !e.idle() {
			continue
		}
		delete(r.entries, userID)
		evicted++
	}
	return evicted
}

// RunEviction calls Evict every interval until ctx is done.
func (r *Registry) RunEviction(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Evict(ttl); n > 0 {
				r.logger.Debug("evicted idle checkouts", zap.Int("count", n))
			}
		}
	}
}

// Shutdown cancels every in-flight attempt and waits for them to unwind.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.cancelBase()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
