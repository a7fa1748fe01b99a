package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fjod/go_cart/checkout/internal/cart"
	"github.com/fjod/go_cart/checkout/internal/cartstore"
	"github.com/fjod/go_cart/checkout/internal/checkout"
	"github.com/fjod/go_cart/checkout/internal/coupon"
	"github.com/fjod/go_cart/checkout/internal/gateway"
	"github.com/fjod/go_cart/checkout/internal/service"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleError converts domain errors to HTTP status codes with stable codes.
func handleError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case coupon.IsRejection(err):
		respondError(w, http.StatusUnprocessableEntity, coupon.ReasonCode(err), err.Error())
	case errors.Is(err, cart.ErrEmptyCart), errors.Is(err, cart.ErrOutOfStock),
		errors.Is(err, checkout.ErrMissingAddress), errors.Is(err, checkout.ErrInvalidAddress),
		errors.Is(err, checkout.ErrNothingToPay):
		respondError(w, http.StatusUnprocessableEntity, checkout.ReasonCode(err), err.Error())
	case errors.Is(err, checkout.ErrIllegalTransition), errors.Is(err, checkout.ErrCheckoutInProgress):
		respondError(w, http.StatusConflict, checkout.ReasonCode(err), err.Error())
	case errors.Is(err, checkout.ErrPaymentStart):
		logger.Error("payment start failed", zap.Error(err))
		respondError(w, http.StatusBadGateway, checkout.ReasonCode(err), "could not start payment, please try again")
	case errors.Is(err, service.ErrNoCheckout):
		respondError(w, http.StatusNotFound, "no_checkout", err.Error())
	case errors.Is(err, service.ErrShuttingDown):
		respondError(w, http.StatusServiceUnavailable, "shutting_down", err.Error())
	case errors.Is(err, cartstore.ErrProductNotFound):
		respondError(w, http.StatusNotFound, "product_not_found", err.Error())
	case errors.Is(err, cartstore.ErrOutOfStock):
		respondError(w, http.StatusConflict, "out_of_stock", err.Error())
	case errors.Is(err, gateway.ErrUnknownSession):
		respondError(w, http.StatusNotFound, "unknown_session", err.Error())
	case errors.Is(err, gateway.ErrSignalAlreadyDelivered):
		respondError(w, http.StatusConflict, "signal_already_delivered", err.Error())
	case errors.Is(err, gateway.ErrInvalidSignal), errors.Is(err, gateway.ErrMalformedWebhook):
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, gateway.ErrInvalidSignature):
		respondError(w, http.StatusUnauthorized, "invalid_signature", "signature mismatch")
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", "request timeout")
	case errors.Is(err, context.Canceled):
		respondError(w, http.StatusRequestTimeout, "cancelled", "request cancelled")
	default:
		logger.Error("request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
