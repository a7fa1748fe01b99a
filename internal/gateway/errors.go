package gateway

import "errors"

var (
	ErrUnknownSession         = errors.New("unknown payment session")
	ErrSignalAlreadyDelivered = errors.New("payment session already received a signal")
	ErrInvalidSignal          = errors.New("invalid payment signal")
	ErrGatewayRejected        = errors.New("payment gateway rejected the request")
	ErrInvalidSignature       = errors.New("webhook signature mismatch")
	ErrInvalidAmount          = errors.New("payment amount must be positive")
	ErrMalformedWebhook       = errors.New("malformed webhook payload")
)
