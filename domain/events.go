package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type EventType string

const (
	EventCheckoutCompleted    EventType = "checkout.completed"
	EventCheckoutAborted      EventType = "checkout.aborted"
	EventCompensationRequired EventType = "checkout.compensation_required"
)

// CheckoutEvent is published when a checkout attempt ends, and when an order
// that should have been discarded could not be deleted.
type CheckoutEvent struct {
	EventID       string          `json:"event_id"`
	Type          EventType       `json:"event_type"`
	UserID        string          `json:"user_id"`
	OrderID       string          `json:"order_id"`
	OrderNumber   string          `json:"order_number,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	State         CheckoutState   `json:"state,omitempty"`
	Reason        AbortReason     `json:"reason,omitempty"`
	Total         decimal.Decimal `json:"total"`
	Currency      string          `json:"currency"`
	CouponCode    string          `json:"coupon_code,omitempty"`
	Error         string          `json:"error,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
}
