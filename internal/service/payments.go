package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	d "github.com/fjod/go_cart/checkout/domain"
	"github.com/fjod/go_cart/checkout/internal/gateway"
	"github.com/fjod/go_cart/checkout/internal/repository"
	"go.uber.org/zap"
)

// Payments applies what the gateway tells us outside the checkout flow: the
// browser callback that closes the gateway UI and the signed server webhook
// that settles a transaction.
type Payments struct {
	recorder PaymentRecorder
	cart     CartBackend
	signals  SignalSink
	secret   string
	timeout  time.Duration
	logger   *zap.Logger
}

func NewPayments(recorder PaymentRecorder, cart CartBackend, signals SignalSink, webhookSecret string, timeout time.Duration, logger *zap.Logger) *Payments {
	return &Payments{
		recorder: recorder,
		cart:     cart,
		signals:  signals,
		secret:   webhookSecret,
		timeout:  timeout,
		logger:   logger,
	}
}

func (p *Payments) Signal(sessionID string, sig d.Signal) error {
	if err := p.signals.Deliver(sessionID, sig); err != nil {
		return err
	}
	p.logger.Info("gateway ui signal delivered",
		zap.String("session_id", sessionID),
		zap.String("kind", string(sig.Kind)))
	return nil
}

// HandleWebhook verifies and applies one gateway webhook. Events for
// transactions we no longer know are acknowledged and logged.
func (p *Payments) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if err := gateway.VerifySignature(body, signature, p.secret); err != nil {
		return err
	}
	ev, err := gateway.ParseWebhook(body)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	log := p.logger.With(
		zap.String("event", ev.Event),
		zap.String("correlation_id", ev.GatewayOrderID),
		zap.String("payment_id", ev.PaymentID))

	switch ev.Event {
	case gateway.EventPaymentCaptured:
		userID, err := p.recorder.MarkPaymentSucceeded(ctx, ev.GatewayOrderID, ev.PaymentID)
		if errors.Is(err, repository.ErrTransactionNotFound) {
			log.Error("captured payment for unknown transaction")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to record captured payment: %w", err)
		}
		if err := p.cart.ClearCart(ctx, userID); err != nil {
			log.Warn("failed to clear cart after capture", zap.String("user_id", userID), zap.Error(err))
		}
		log.Info("payment captured", zap.String("user_id", userID))

	case gateway.EventPaymentFailed:
		err := p.recorder.MarkPaymentFailed(ctx, ev.GatewayOrderID, ev.ErrorReason)
		if errors.Is(err, repository.ErrTransactionNotFound) {
			log.Warn("failed payment for unknown transaction")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to record failed payment: %w", err)
		}
		log.Info("payment failed", zap.String("error_reason", ev.ErrorReason))

	default:
		log.Debug("ignoring webhook event")
	}
	return nil
}
