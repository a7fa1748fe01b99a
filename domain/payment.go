package domain

import "github.com/shopspring/decimal"

// PaymentSession ties a gateway session to the order it pays for.
// CorrelationID is what the status service is queried with.
type PaymentSession struct {
	SessionID     string          `json:"session_id"`
	OrderID       string          `json:"order_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	CorrelationID string          `json:"correlation_id"`
}

// PaymentIntent is what the core hands to the gateway.
type PaymentIntent struct {
	OrderID  string
	Amount   decimal.Decimal
	Currency string
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusNotFound PaymentStatus = "not_found"
)

// IsTerminal reports whether polling can stop on this status.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusPaid || s == PaymentStatusFailed || s == PaymentStatusNotFound
}

// StatusReport is one answer from the payment status service.
type StatusReport struct {
	Status      PaymentStatus
	OrderID     string
	OrderNumber string
}

// OrderRef identifies a confirmed order to the shopper.
type OrderRef struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number,omitempty"`
}

type SignalKind string

const (
	SignalCompleted SignalKind = "completed"
	SignalDismissed SignalKind = "dismissed"
)

// Signal is the single answer a shopper gives the gateway UI. Completed means
// the payment was submitted, not that it was captured.
type Signal struct {
	Kind      SignalKind `json:"kind" validate:"required,oneof=completed dismissed"`
	PaymentID string     `json:"payment_id,omitempty"`
}
