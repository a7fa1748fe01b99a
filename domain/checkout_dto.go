package domain

// Outcome is the terminal result of a checkout attempt.
type Outcome struct {
	State         CheckoutState `json:"state"`
	Reason        AbortReason   `json:"reason,omitempty"`
	Order         *OrderRef     `json:"order,omitempty"`
	CorrelationID string        `json:"correlation_id,omitempty"`
	Message       string        `json:"message"`
}

// Progress is emitted while a payment is being confirmed.
type Progress struct {
	CorrelationID    string `json:"correlation_id"`
	Attempt          int    `json:"attempt"`
	RemainingSeconds int    `json:"remaining_seconds"`
}
