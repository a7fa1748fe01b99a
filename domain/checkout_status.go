package domain

type CheckoutState string

const (
	CheckoutStateCartReview           CheckoutState = "CART_REVIEW"
	CheckoutStateAddressRequired      CheckoutState = "ADDRESS_REQUIRED"
	CheckoutStateAddressReady         CheckoutState = "ADDRESS_READY"
	CheckoutStatePaymentInitiating    CheckoutState = "PAYMENT_INITIATING"
	CheckoutStateAwaitingConfirmation CheckoutState = "AWAITING_CONFIRMATION"
	CheckoutStateCompleted            CheckoutState = "COMPLETED"
	CheckoutStateAborted              CheckoutState = "ABORTED"
)

var transitions = map[CheckoutState][]CheckoutState{
	CheckoutStateCartReview:           {CheckoutStateAddressRequired, CheckoutStateAddressReady},
	CheckoutStateAddressRequired:      {CheckoutStateAddressReady},
	CheckoutStateAddressReady:         {CheckoutStateAddressRequired, CheckoutStateAddressReady, CheckoutStatePaymentInitiating},
	CheckoutStatePaymentInitiating:    {CheckoutStateAwaitingConfirmation, CheckoutStateAborted},
	CheckoutStateAwaitingConfirmation: {CheckoutStateCompleted, CheckoutStateAborted},
}

// CanTransitionTo reports whether the checkout state machine allows moving from one state to another.
func CanTransitionTo(from, to CheckoutState) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s CheckoutState) IsTerminal() bool {
	return s == CheckoutStateCompleted || s == CheckoutStateAborted
}

// IsInFlight reports whether a payment attempt is running.
func (s CheckoutState) IsInFlight() bool {
	return s == CheckoutStatePaymentInitiating || s == CheckoutStateAwaitingConfirmation
}

// String representation (for logging)
func (s CheckoutState) String() string {
	return string(s)
}

// AbortReason says why a checkout ended in CheckoutStateAborted.
type AbortReason string

const (
	AbortReasonNone                 AbortReason = ""
	AbortReasonUserCancelled        AbortReason = "user_cancelled"
	AbortReasonPaymentFailed        AbortReason = "payment_failed"
	AbortReasonConfirmationTimedOut AbortReason = "confirmation_timed_out"
	AbortReasonPaymentStartFailed   AbortReason = "payment_start_failed"
)
