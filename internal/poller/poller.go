package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	d "github.com/fjod/go_cart/checkout/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultInterval = 10 * time.Second
	DefaultTimeout  = 180 * time.Second
	DefaultTick     = time.Second
)

// StatusQuerier asks the payment status service about one payment attempt.
type StatusQuerier interface {
	QueryStatus(ctx context.Context, correlationID string) (*d.StatusReport, error)
}

type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeFailed   Outcome = "failed"
	OutcomeTimedOut Outcome = "timed_out"
)

// Result is the terminal answer of Confirm. Order is set only on success.
type Result struct {
	Outcome  Outcome
	Order    *d.OrderRef
	Attempts int
}

// ProgressFunc receives attempt and countdown events. Calls are serialized
// and never happen after Confirm has returned or its context was cancelled.
type ProgressFunc func(d.Progress)

type Poller struct {
	status        StatusQuerier
	interval      time.Duration
	backoffStep   time.Duration
	countdownTick time.Duration
	timeout       time.Duration
	logger        *zap.Logger
}

type Option func(*Poller)

func WithInterval(interval time.Duration) Option {
	return func(p *Poller) { p.interval = interval }
}

// WithBackoffStep adds step x attempt to every wait after the first query.
func WithBackoffStep(step time.Duration) Option {
	return func(p *Poller) { p.backoffStep = step }
}

func WithCountdownTick(tick time.Duration) Option {
	return func(p *Poller) { p.countdownTick = tick }
}

func WithTimeout(timeout time.Duration) Option {
	return func(p *Poller) { p.timeout = timeout }
}

func NewPoller(status StatusQuerier, logger *zap.Logger, opts ...Option) *Poller {
	p := &Poller{
		status:        status,
		interval:      DefaultInterval,
		countdownTick: DefaultTick,
		timeout:       DefaultTimeout,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var errResolved = errors.New("payment status resolved")

// Confirm polls the payment status for correlationID until it is paid, failed
// or the timeout elapses. A non-positive timeout uses the poller default.
// If ctx is cancelled first, Confirm stops every scheduled and in-flight
// query and returns ctx.Err().
func (p *Poller) Confirm(ctx context.Context, correlationID string, timeout time.Duration, onProgress ProgressFunc) (Result, error) {
	if timeout <= 0 {
		timeout = p.timeout
	}
	deadline := time.Now().Add(timeout)

	scope, stop := context.WithDeadline(ctx, deadline)
	defer stop()

	r := &run{
		correlationID: correlationID,
		deadline:      deadline,
		onProgress:    onProgress,
	}

	g, gctx := errgroup.WithContext(scope)
	g.Go(func() error {
		return p.countdown(gctx, r)
	})
	g.Go(func() error {
		if err := p.poll(gctx, r); err != nil {
			return err
		}
		return errResolved
	})
	err := g.Wait()
	r.close()

	if res, ok := r.result(); ok {
		return res, nil
	}
	if ctx.Err() != nil {
		p.logger.Info("payment confirmation cancelled",
			zap.String("correlation_id", correlationID),
			zap.Int("attempt", r.attemptCount()))
		return Result{Attempts: r.attemptCount()}, ctx.Err()
	}
	if errors.Is(scope.Err(), context.DeadlineExceeded) {
		p.logger.Warn("payment confirmation timed out",
			zap.String("correlation_id", correlationID),
			zap.Int("attempt", r.attemptCount()),
			zap.Duration("timeout", timeout))
		return Result{Outcome: OutcomeTimedOut, Attempts: r.attemptCount()}, nil
	}
	return Result{Attempts: r.attemptCount()}, err
}

func (p *Poller) poll(ctx context.Context, r *run) error {
	next := time.NewTimer(0)
	defer next.Stop()

	for {
		select {
		case <-next.C:
		case <-ctx.Done():
			return ctx.Err()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		attempt := r.nextAttempt()
		report, err := p.status.QueryStatus(ctx, r.correlationID)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.emit(ctx, attempt)

		if err != nil {
			p.logger.Warn("payment status query failed, will retry",
				zap.String("correlation_id", r.correlationID),
				zap.Int("attempt", attempt),
				zap.Error(err))
		} else if res, done := classify(report, attempt); done {
			r.resolve(res)
			return nil
		}

		next.Reset(p.delay(attempt))
	}
}

func (p *Poller) delay(attempt int) time.Duration {
	return p.interval + time.Duration(attempt-1)*p.backoffStep
}

func classify(report *d.StatusReport, attempt int) (Result, bool) {
	if report == nil {
		return Result{}, false
	}
	switch report.Status {
	case d.PaymentStatusPaid:
		return Result{
			Outcome:  OutcomeSuccess,
			Order:    &d.OrderRef{OrderID: report.OrderID, OrderNumber: report.OrderNumber},
			Attempts: attempt,
		}, true
	case d.PaymentStatusFailed, d.PaymentStatusNotFound:
		return Result{Outcome: OutcomeFailed, Attempts: attempt}, true
	default:
		return Result{}, false
	}
}

func (p *Poller) countdown(ctx context.Context, r *run) error {
	ticker := time.NewTicker(p.countdownTick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.emit(ctx, r.attemptCount())
		case <-ctx.Done():
			return nil
		}
	}
}

// run is the state shared by the poll and countdown goroutines of one Confirm call.
type run struct {
	correlationID string
	deadline      time.Time
	onProgress    ProgressFunc

	mu       sync.Mutex
	attempts int
	res      *Result
	closed   bool
}

func (r *run) nextAttempt() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts++
	return r.attempts
}

func (r *run) attemptCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempts
}

func (r *run) resolve(res Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.res = &res
}

func (r *run) result() (Result, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.res == nil {
		return Result{}, false
	}
	return *r.res, true
}

func (r *run) close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
}

// emit holds the lock while calling onProgress so that events are serialized
// and none can start once the run is closed or its scope is cancelled.
func (r *run) emit(ctx context.Context, attempt int) {
	if r.onProgress == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || ctx.Err() != nil {
		return
	}
	remaining := time.Until(r.deadline).Round(time.Second)
	if remaining < 0 {
		remaining = 0
	}
	r.onProgress(d.Progress{
		CorrelationID:    r.correlationID,
		Attempt:          attempt,
		RemainingSeconds: int(remaining / time.Second),
	})
}
