package http

import (
	"encoding/json"
	"net/http"

	d "github.com/fjod/go_cart/checkout/domain"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type CheckoutHandler struct {
	checkout CheckoutService
	validate *validator.Validate
	logger   *zap.Logger
}

func NewCheckoutHandler(checkout CheckoutService, validate *validator.Validate, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		validate: validate,
		logger:   logger,
	}
}

type CouponRequestDTO struct {
	Code string `json:"code" validate:"required,max=32"`
}

func (h *CheckoutHandler) Begin(w http.ResponseWriter, r *http.Request) {
	snap, err := h.checkout.Begin(r.Context(), getUserIDFromContext(r.Context()))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

func (h *CheckoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.checkout.Snapshot(getUserIDFromContext(r.Context())))
}

func (h *CheckoutHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if err := h.checkout.Cancel(getUserIDFromContext(r.Context())); err != nil {
		handleError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// SetAddress leaves validation to the orchestrator so the rejection carries
// the invalid_address code.
func (h *CheckoutHandler) SetAddress(w http.ResponseWriter, r *http.Request) {
	var addr d.Address
	if err := json.NewDecoder(r.Body).Decode(&addr); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	snap, err := h.checkout.SetAddress(r.Context(), getUserIDFromContext(r.Context()), addr)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

func (h *CheckoutHandler) EditAddress(w http.ResponseWriter, r *http.Request) {
	snap, err := h.checkout.EditAddress(getUserIDFromContext(r.Context()))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

func (h *CheckoutHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var req CouponRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if err := h.validate.StructCtx(r.Context(), req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	summary, err := h.checkout.ApplyCoupon(r.Context(), getUserIDFromContext(r.Context()), req.Code)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (h *CheckoutHandler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	if err := h.checkout.RemoveCoupon(getUserIDFromContext(r.Context())); err != nil {
		handleError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CheckoutHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.checkout.Summary(r.Context(), getUserIDFromContext(r.Context()))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// Pay answers once the gateway session is open. The browser then drives the
// gateway UI and reports back on the signal endpoint; progress is read with Get.
func (h *CheckoutHandler) Pay(w http.ResponseWriter, r *http.Request) {
	snap, err := h.checkout.Pay(r.Context(), getUserIDFromContext(r.Context()))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusAccepted, snap)
}
