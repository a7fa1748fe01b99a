package gateway

import (
	"context"
	"sync"

	d "github.com/fjod/go_cart/checkout/domain"
)

// Broker hands the browser's completed/dismissed callback to the one
// goroutine waiting on that payment session.
type Broker struct {
	mu       sync.Mutex
	sessions map[string]*mailbox
}

type mailbox struct {
	ch        chan d.Signal
	delivered bool
}

func NewBroker() *Broker {
	return &Broker{sessions: make(map[string]*mailbox)}
}

// Register opens a mailbox for sessionID. Registering twice is a no-op.
func (b *Broker) Register(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.sessions[sessionID]; ok {
		return
	}
	b.sessions[sessionID] = &mailbox{ch: make(chan d.Signal, 1)}
}

// Deliver accepts exactly one signal per registered session.
func (b *Broker) Deliver(sessionID string, sig d.Signal) error {
	if sig.Kind != d.SignalCompleted && sig.Kind != d.SignalDismissed {
		return ErrInvalidSignal
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	box, ok := b.sessions[sessionID]
	if !ok {
		return ErrUnknownSession
	}
	if box.delivered {
		return ErrSignalAlreadyDelivered
	}
	box.delivered = true
	box.ch <- sig
	return nil
}

// Wait blocks until the signal for sessionID arrives or ctx is done.
// The session is forgotten once Wait returns.
func (b *Broker) Wait(ctx context.Context, sessionID string) (d.Signal, error) {
	b.mu.Lock()
	box, ok := b.sessions[sessionID]
	b.mu.Unlock()
	if !ok {
		return d.Signal{}, ErrUnknownSession
	}
	defer b.Forget(sessionID)

	select {
	case sig := <-box.ch:
		return sig, nil
	case <-ctx.Done():
		return d.Signal{}, ctx.Err()
	}
}

func (b *Broker) Forget(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.sessions, sessionID)
}

func (b *Broker) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sessions)
}
