package checkout

import (
	"context"
	"fmt"

	d "github.com/fjod/go_cart/checkout/domain"
	"github.com/fjod/go_cart/checkout/internal/cart"
	"github.com/fjod/go_cart/checkout/internal/poller"
	"go.uber.org/zap"
)

const supportMessage = "We could not confirm your payment in time. If you were charged, contact support with reference %s."

// ProceedToPayment runs one payment attempt: re-validates the cart, creates
// the order and payment session, waits for the gateway UI and confirms the
// payment. It returns the terminal outcome, or an error when the attempt was
// blocked before any side effect, failed to start, or was cancelled by the
// caller while the payment was being confirmed.
func (o *Orchestrator) ProceedToPayment(ctx context.Context) (*d.Outcome, error) {
	if err := o.acquire(); err != nil {
		return nil, err
	}
	defer o.release()

	summary, addr, err := o.prepare(ctx)
	if err != nil {
		return nil, err
	}

	if err := o.transition(d.CheckoutStatePaymentInitiating, d.AbortReasonNone); err != nil {
		return nil, err
	}

	order, session, err := o.startPayment(ctx, summary, *addr)
	if err != nil {
		o.logger.Error("payment start failed", zap.Error(err))
		o.abort(ctx, d.AbortReasonPaymentStartFailed, nil, summary, "We could not start the payment. Please try again.")
		return nil, fmt.Errorf("%w: %w", ErrPaymentStart, err)
	}

	o.mu.Lock()
	o.order = order
	o.session = session
	o.mu.Unlock()

	if err := o.transition(d.CheckoutStateAwaitingConfirmation, d.AbortReasonNone); err != nil {
		return nil, err
	}
	return o.await(ctx, order, session, summary)
}

// prepare checks every precondition of a payment attempt without side effects.
func (o *Orchestrator) prepare(ctx context.Context) (d.CartSummary, *d.Address, error) {
	o.mu.Lock()
	state := o.state
	addr := o.address
	code := o.couponCode
	o.mu.Unlock()

	if state != d.CheckoutStateAddressReady {
		if state == d.CheckoutStateAddressRequired {
			return d.CartSummary{}, nil, ErrMissingAddress
		}
		return d.CartSummary{}, nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, state, d.CheckoutStatePaymentInitiating)
	}
	if addr == nil {
		return d.CartSummary{}, nil, ErrMissingAddress
	}

	items, err := o.deps.Cart.GetCart(ctx, o.userID)
	if err != nil {
		return d.CartSummary{}, nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if err := cart.CheckStock(items); err != nil {
		return d.CartSummary{}, nil, err
	}
	summary, _, err := o.price(ctx, items, code)
	if err != nil {
		return d.CartSummary{}, nil, err
	}
	// The gateway only accepts positive amounts.
	if !summary.Total.IsPositive() {
		return d.CartSummary{}, nil, ErrNothingToPay
	}
	return summary, addr, nil
}

// startPayment creates the order, the gateway session and links them. If the
// order exists but a later step fails, the order is deleted before returning.
func (o *Orchestrator) startPayment(ctx context.Context, summary d.CartSummary, addr d.Address) (*d.Order, *d.PaymentSession, error) {
	order, err := o.deps.Orders.CreateOrder(ctx, o.userID, summary, addr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create order: %w", err)
	}
	log := o.logger.With(zap.String("order_id", order.ID))
	log.Info("order created",
		zap.String("order_number", order.OrderNumber),
		zap.String("total", order.Total.StringFixed(2)))

	session, err := o.deps.Gateway.Create(ctx, d.PaymentIntent{
		OrderID:  order.ID,
		Amount:   order.Total,
		Currency: order.Currency,
	})
	if err != nil {
		o.compensate(ctx, order, err)
		return nil, nil, fmt.Errorf("failed to create payment session: %w", err)
	}

	if err := o.deps.Orders.AttachPayment(ctx, order.ID, session); err != nil {
		o.deps.Gateway.Release(session)
		o.compensate(ctx, order, err)
		return nil, nil, fmt.Errorf("failed to attach payment session: %w", err)
	}
	log.Info("payment session attached",
		zap.String("session_id", session.SessionID),
		zap.String("correlation_id", session.CorrelationID))
	return order, session, nil
}

// await waits for the gateway signal and then confirms the payment.
func (o *Orchestrator) await(ctx context.Context, order *d.Order, session *d.PaymentSession, summary d.CartSummary) (*d.Outcome, error) {
	log := o.logger.With(
		zap.String("order_id", order.ID),
		zap.String("correlation_id", session.CorrelationID))

	sig, err := o.deps.Gateway.Open(ctx, session)
	o.deps.Gateway.Release(session)
	switch {
	case err != nil && ctx.Err() != nil:
		log.Info("checkout cancelled while payment UI was open")
		if o.compensate(ctx, order, ctx.Err()) {
			return nil, fmt.Errorf("%w (correlation id %s): %w", ErrConfirmationCancelled, session.CorrelationID, ctx.Err())
		}
		return o.abort(ctx, d.AbortReasonUserCancelled, order, summary, "Payment was cancelled."), nil
	case err != nil:
		log.Error("payment UI failed", zap.Error(err))
		if !o.compensate(ctx, order, err) {
			o.abort(ctx, d.AbortReasonPaymentStartFailed, order, summary, "We could not start the payment. Please try again.")
			return nil, fmt.Errorf("%w: %w", ErrPaymentStart, err)
		}
	case sig.Kind == d.SignalDismissed:
		log.Info("payment dismissed by shopper")
		if !o.compensate(ctx, order, nil) {
			return o.abort(ctx, d.AbortReasonUserCancelled, order, summary, "Payment was cancelled."), nil
		}
	}

	log.Info("payment progressed, confirming", zap.String("payment_id", sig.PaymentID))
	res, err := o.deps.Confirmer.Confirm(ctx, session.CorrelationID, o.cfg.ConfirmationTimeout, o.recordProgress)
	if err != nil {
		log.Warn("payment confirmation cancelled by caller", zap.Error(err))
		return nil, fmt.Errorf("%w (correlation id %s): %w", ErrConfirmationCancelled, session.CorrelationID, err)
	}

	switch res.Outcome {
	case poller.OutcomeSuccess:
		return o.complete(ctx, order, session, summary, res.Order)
	case poller.OutcomeFailed:
		return o.abort(ctx, d.AbortReasonPaymentFailed, order, summary, "Payment failed. You can retry checkout."), nil
	default:
		return o.abort(ctx, d.AbortReasonConfirmationTimedOut, order, summary, fmt.Sprintf(supportMessage, session.CorrelationID)), nil
	}
}

func (o *Orchestrator) recordProgress(p d.Progress) {
	o.mu.Lock()
	o.progress = &p
	snap := o.snapshotLocked()
	o.mu.Unlock()
	o.notify(snap)
}

// complete finalizes a confirmed payment. Coupon usage and cart cleanup
// failures are logged and do not undo the payment.
func (o *Orchestrator) complete(ctx context.Context, order *d.Order, session *d.PaymentSession, summary d.CartSummary, ref *d.OrderRef) (*d.Outcome, error) {
	detached := context.WithoutCancel(ctx)
	if ref == nil || ref.OrderID == "" {
		ref = &d.OrderRef{OrderID: order.ID, OrderNumber: order.OrderNumber}
	}
	if ref.OrderNumber == "" {
		ref.OrderNumber = order.OrderNumber
	}

	if summary.CouponCode != "" {
		if err := o.deps.Usage.RecordUsage(detached, summary.CouponCode); err != nil {
			o.logger.Error("failed to record coupon usage",
				zap.String("coupon_code", summary.CouponCode),
				zap.String("order_id", order.ID),
				zap.Error(err))
		}
	}
	if err := o.deps.Cart.ClearCart(detached, o.userID); err != nil {
		o.logger.Warn("failed to clear cart after payment",
			zap.String("order_id", order.ID),
			zap.Error(err))
	}

	out := &d.Outcome{
		State:         d.CheckoutStateCompleted,
		Order:         ref,
		CorrelationID: session.CorrelationID,
		Message:       "Payment confirmed. Thank you for your order!",
	}
	if err := o.finish(out); err != nil {
		return nil, err
	}
	o.publish(ctx, d.EventCheckoutCompleted, order, summary, out)
	return out, nil
}

// abort ends the attempt in CheckoutStateAborted and publishes the outcome.
func (o *Orchestrator) abort(ctx context.Context, reason d.AbortReason, order *d.Order, summary d.CartSummary, message string) *d.Outcome {
	out := &d.Outcome{
		State:   d.CheckoutStateAborted,
		Reason:  reason,
		Message: message,
	}
	o.mu.Lock()
	if o.session != nil {
		out.CorrelationID = o.session.CorrelationID
	}
	o.mu.Unlock()
	if reason == d.AbortReasonPaymentFailed && order != nil {
		out.Order = &d.OrderRef{OrderID: order.ID, OrderNumber: order.OrderNumber}
	}

	if err := o.finish(out); err != nil {
		o.logger.Error("failed to abort checkout", zap.Error(err))
		return out
	}
	o.publish(ctx, d.EventCheckoutAborted, order, summary, out)
	return out
}

func (o *Orchestrator) finish(out *d.Outcome) error {
	o.mu.Lock()
	o.outcome = out
	o.mu.Unlock()
	if err := o.transition(out.State, out.Reason); err != nil {
		o.mu.Lock()
		o.outcome = nil
		o.mu.Unlock()
		return err
	}
	return nil
}
