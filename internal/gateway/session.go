package gateway

import (
	"context"
	"fmt"

	d "github.com/fjod/go_cart/checkout/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// GatewayClient is the raw gateway surface a Session drives.
type GatewayClient interface {
	CreateSession(ctx context.Context, amount decimal.Decimal, currency, receipt string) (string, error)
	OpenUI(ctx context.Context, sessionID string) (d.Signal, error)
	ReleaseUI(sessionID string)
}

// Session opens a payment session for an order and reports the single
// signal the shopper gives it.
type Session struct {
	client GatewayClient
	logger *zap.Logger
}

func NewSession(client GatewayClient, logger *zap.Logger) *Session {
	return &Session{client: client, logger: logger}
}

// Create opens a gateway session for intent. The gateway session id doubles
// as the correlation id the status service knows the payment by.
func (s *Session) Create(ctx context.Context, intent d.PaymentIntent) (*d.PaymentSession, error) {
	if !intent.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	id, err := s.client.CreateSession(ctx, intent.Amount, intent.Currency, intent.OrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment session for order %s: %w", intent.OrderID, err)
	}
	return &d.PaymentSession{
		SessionID:     id,
		OrderID:       intent.OrderID,
		Amount:        intent.Amount,
		Currency:      intent.Currency,
		CorrelationID: id,
	}, nil
}

// Open blocks until the shopper completes or dismisses the gateway UI.
func (s *Session) Open(ctx context.Context, session *d.PaymentSession) (d.Signal, error) {
	sig, err := s.client.OpenUI(ctx, session.SessionID)
	if err != nil {
		return d.Signal{}, err
	}
	s.logger.Info("gateway signal received",
		zap.String("session_id", session.SessionID),
		zap.String("order_id", session.OrderID),
		zap.String("signal", string(sig.Kind)))
	return sig, nil
}

// Release abandons a session nobody will open, so a late browser callback
// for it is rejected instead of accepted into an unread mailbox.
func (s *Session) Release(session *d.PaymentSession) {
	if session == nil {
		return
	}
	s.client.ReleaseUI(session.SessionID)
}
