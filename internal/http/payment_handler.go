package http

import (
	"encoding/json"
	"io"
	"net/http"

	d "github.com/fjod/go_cart/checkout/domain"
	"github.com/fjod/go_cart/checkout/internal/gateway"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const maxWebhookBody = 1 << 20

type PaymentHandler struct {
	payments PaymentService
	validate *validator.Validate
	logger   *zap.Logger
}

func NewPaymentHandler(payments PaymentService, validate *validator.Validate, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		payments: payments,
		validate: validate,
		logger:   logger,
	}
}

func (h *PaymentHandler) Signal(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "invalid_session_id", "session_id is required")
		return
	}

	var sig d.Signal
	if err := json.NewDecoder(r.Body).Decode(&sig); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if err := h.validate.StructCtx(r.Context(), sig); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if err := h.payments.Signal(sessionID, sig); err != nil {
		handleError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		respondError(w, http.StatusRequestEntityTooLarge, "invalid_request", "webhook body too large")
		return
	}

	if err := h.payments.HandleWebhook(r.Context(), body, r.Header.Get(gateway.SignatureHeader)); err != nil {
		handleError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
