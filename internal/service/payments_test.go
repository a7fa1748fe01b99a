package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	d "github.com/fjod/go_cart/checkout/domain"
	"github.com/fjod/go_cart/checkout/internal/gateway"
	"github.com/fjod/go_cart/checkout/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const webhookSecret = "whsec_test"

func webhookBody(event, orderID, reason string) []byte {
	return []byte(fmt.Sprintf(
		`{"event":%q,"payload":{"payment":{"entity":{"id":"pay_1","order_id":%q,"error_reason":%q}}}}`,
		event, orderID, reason))
}

func newPayments(rec *MockRecorder, c *MockCart, b *gateway.Broker) *Payments {
	return NewPayments(rec, c, b, webhookSecret, time.Second, zap.NewNop())
}

func TestHandleWebhook_Captured(t *testing.T) {
	rec := &MockRecorder{UserID: "user-1"}
	c := &MockCart{}
	p := newPayments(rec, c, gateway.NewBroker())

	body := webhookBody(gateway.EventPaymentCaptured, "order_GW1", "")
	err := p.HandleWebhook(context.Background(), body, gateway.Sign(body, webhookSecret))
	require.NoError(t, err)

	assert.Equal(t, []string{"order_GW1"}, rec.Succeeded)
	assert.Equal(t, []string{"user-1"}, c.ClearedUsers())
}

func TestHandleWebhook_Failed(t *testing.T) {
	rec := &MockRecorder{}
	c := &MockCart{}
	p := newPayments(rec, c, gateway.NewBroker())

	body := webhookBody(gateway.EventPaymentFailed, "order_GW1", "card_declined")
	require.NoError(t, p.HandleWebhook(context.Background(), body, gateway.Sign(body, webhookSecret)))

	assert.Equal(t, []string{"order_GW1"}, rec.Failed)
	assert.Equal(t, []string{"card_declined"}, rec.Reasons)
	assert.Empty(t, c.ClearedUsers())
}

func TestHandleWebhook_BadSignature(t *testing.T) {
	rec := &MockRecorder{}
	p := newPayments(rec, &MockCart{}, gateway.NewBroker())

	body := webhookBody(gateway.EventPaymentCaptured, "order_GW1", "")
	err := p.HandleWebhook(context.Background(), body, gateway.Sign(body, "other-secret"))
	assert.ErrorIs(t, err, gateway.ErrInvalidSignature)
	assert.Empty(t, rec.Succeeded)
}

func TestHandleWebhook_UnknownTransactionIsAcknowledged(t *testing.T) {
	rec := &MockRecorder{SucceedErr: repository.ErrTransactionNotFound}
	c := &MockCart{}
	p := newPayments(rec, c, gateway.NewBroker())

	body := webhookBody(gateway.EventPaymentCaptured, "order_gone", "")
	require.NoError(t, p.HandleWebhook(context.Background(), body, gateway.Sign(body, webhookSecret)))
	assert.Empty(t, c.ClearedUsers())
}

func TestHandleWebhook_StoreErrorIsReturned(t *testing.T) {
	boom := errors.New("db down")
	rec := &MockRecorder{FailErr: boom}
	p := newPayments(rec, &MockCart{}, gateway.NewBroker())

	body := webhookBody(gateway.EventPaymentFailed, "order_GW1", "")
	err := p.HandleWebhook(context.Background(), body, gateway.Sign(body, webhookSecret))
	assert.ErrorIs(t, err, boom)
}

func TestHandleWebhook_OtherEventsIgnored(t *testing.T) {
	rec := &MockRecorder{}
	p := newPayments(rec, &MockCart{}, gateway.NewBroker())

	body := []byte(`{"event":"order.paid","payload":{}}`)
	require.NoError(t, p.HandleWebhook(context.Background(), body, gateway.Sign(body, webhookSecret)))
	assert.Empty(t, rec.Succeeded)
	assert.Empty(t, rec.Failed)
}

func TestSignal_DeliversToWaitingSession(t *testing.T) {
	b := gateway.NewBroker()
	b.Register("order_GW1")
	p := newPayments(&MockRecorder{}, &MockCart{}, b)

	require.NoError(t, p.Signal("order_GW1", d.Signal{Kind: d.SignalDismissed}))

	sig, err := b.Wait(context.Background(), "order_GW1")
	require.NoError(t, err)
	assert.Equal(t, d.SignalDismissed, sig.Kind)

	assert.ErrorIs(t, p.Signal("order_GW1", d.Signal{Kind: d.SignalCompleted}), gateway.ErrUnknownSession)
}
