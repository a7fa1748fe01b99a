package service

import "errors"

var (
	ErrNoCheckout   = errors.New("no payment attempt in flight for user")
	ErrShuttingDown = errors.New("service is shutting down")
)
