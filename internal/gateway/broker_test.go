package gateway

import (
	"context"
	"testing"
	"time"

	d "github.com/fjod/go_cart/checkout/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroker_DeliverThenWait(t *testing.T) {
	b := NewBroker()
	b.Register("order_1")

	require.NoError(t, b.Deliver("order_1", d.Signal{Kind: d.SignalCompleted, PaymentID: "pay_1"}))

	sig, err := b.Wait(context.Background(), "order_1")
	require.NoError(t, err)
	assert.Equal(t, d.SignalCompleted, sig.Kind)
	assert.Equal(t, "pay_1", sig.PaymentID)
	assert.Equal(t, 0, b.Pending())
}

func TestBroker_WaitThenDeliver(t *testing.T) {
	b := NewBroker()
	b.Register("order_1")

	got := make(chan d.Signal, 1)
	go func() {
		sig, _ := b.Wait(context.Background(), "order_1")
		got <- sig
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, b.Deliver("order_1", d.Signal{Kind: d.SignalDismissed}))

	select {
	case sig := <-got:
		assert.Equal(t, d.SignalDismissed, sig.Kind)
	case <-time.After(time.Second):
		t.Fatal("signal was not delivered")
	}
}

func TestBroker_RejectsDuplicateSignal(t *testing.T) {
	b := NewBroker()
	b.Register("order_1")

	require.NoError(t, b.Deliver("order_1", d.Signal{Kind: d.SignalCompleted}))
	err := b.Deliver("order_1", d.Signal{Kind: d.SignalDismissed})

	assert.ErrorIs(t, err, ErrSignalAlreadyDelivered)
}

func TestBroker_RejectsUnknownSession(t *testing.T) {
	b := NewBroker()

	assert.ErrorIs(t, b.Deliver("nope", d.Signal{Kind: d.SignalCompleted}), ErrUnknownSession)
	_, err := b.Wait(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrUnknownSession)
}

func TestBroker_RejectsInvalidKind(t *testing.T) {
	b := NewBroker()
	b.Register("order_1")

	assert.ErrorIs(t, b.Deliver("order_1", d.Signal{Kind: "maybe"}), ErrInvalidSignal)
}

func TestBroker_WaitCancelled(t *testing.T) {
	b := NewBroker()
	b.Register("order_1")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Wait(ctx, "order_1")

	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, b.Deliver("order_1", d.Signal{Kind: d.SignalCompleted}), ErrUnknownSession)
}
