package checkout

import (
	"context"
	"errors"

	d "github.com/fjod/go_cart/checkout/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// compensate deletes an order whose payment will not happen. It runs detached
// from the caller's cancellation under its own timeout. When the delete
// fails, a compensation event is queued so the order can be cleaned up later.
// It returns true when the order was kept because its payment already
// progressed past payment_pending; the caller must then confirm the payment
// instead of reporting a cancellation.
func (o *Orchestrator) compensate(ctx context.Context, order *d.Order, cause error) (kept bool) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.cfg.CompensationTimeout)
	defer cancel()

	log := o.logger.With(zap.String("order_id", order.ID))

	status, err := o.deps.Orders.GetOrderStatus(cctx, order.ID)
	if err == nil && !status.IsPrePayment() {
		log.Warn("order left in place, payment already progressed",
			zap.String("order_status", status.String()))
		return true
	}

	deleted, err := o.deps.Orders.DeleteOrder(cctx, order.ID)
	if err == nil {
		log.Info("order discarded", zap.Bool("deleted", deleted), zap.NamedError("cause", cause))
		return false
	}

	log.Error("failed to discard order, queueing compensation", zap.Error(err))
	event := o.newEvent(d.EventCompensationRequired, order)
	event.Error = joinErrors(cause, err)
	o.mu.Lock()
	if o.session != nil {
		event.CorrelationID = o.session.CorrelationID
	}
	o.mu.Unlock()

	pctx, pcancel := context.WithTimeout(context.WithoutCancel(ctx), o.cfg.EventTimeout)
	defer pcancel()
	if err := o.deps.Events.Publish(pctx, event); err != nil {
		log.Error("failed to publish compensation event",
			zap.String("event_id", event.EventID),
			zap.Error(err))
	}
	return false
}

// publish sends the outcome event. Failures are logged only.
func (o *Orchestrator) publish(ctx context.Context, typ d.EventType, order *d.Order, summary d.CartSummary, out *d.Outcome) {
	event := o.newEvent(typ, order)
	event.State = out.State
	event.Reason = out.Reason
	event.CorrelationID = out.CorrelationID
	event.Total = summary.Total
	event.Currency = summary.Currency
	event.CouponCode = summary.CouponCode

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.cfg.EventTimeout)
	defer cancel()
	if err := o.deps.Events.Publish(pctx, event); err != nil {
		o.logger.Error("failed to publish checkout event",
			zap.String("event_type", string(typ)),
			zap.String("event_id", event.EventID),
			zap.Error(err))
	}
}

func (o *Orchestrator) newEvent(typ d.EventType, order *d.Order) d.CheckoutEvent {
	event := d.CheckoutEvent{
		EventID:    uuid.NewString(),
		Type:       typ,
		UserID:     o.userID,
		OccurredAt: o.now().UTC(),
	}
	if order != nil {
		event.OrderID = order.ID
		event.OrderNumber = order.OrderNumber
		event.Total = order.Total
		event.Currency = order.Currency
	}
	return event
}

func joinErrors(errs ...error) string {
	var kept []error
	for _, err := range errs {
		if err != nil && !errors.Is(err, context.Canceled) {
			kept = append(kept, err)
		}
	}
	if len(kept) == 0 {
		return ""
	}
	return errors.Join(kept...).Error()
}
