package http

import (
	"encoding/json"
	"net/http"

	d "github.com/fjod/go_cart/checkout/domain"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type CartHandler struct {
	cart     CartService
	validate *validator.Validate
	logger   *zap.Logger
}

func NewCartHandler(cart CartService, validate *validator.Validate, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		cart:     cart,
		validate: validate,
		logger:   logger,
	}
}

type AddItemRequestDTO struct {
	ProductID string `json:"product_id" validate:"required,max=64"`
	Quantity  int32  `json:"quantity" validate:"min=1,max=99"`
}

// CartResponseDTO is the priced cart plus whether it can go to checkout.
type CartResponseDTO struct {
	d.CartSummary
	CanCheckout bool `json:"can_checkout"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())

	summary, ok, err := h.cart.GetCart(r.Context(), userID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, CartResponseDTO{CartSummary: summary, CanCheckout: ok})
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if err := h.validate.StructCtx(r.Context(), req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	summary, ok, err := h.cart.AddItem(r.Context(), userID, req.ProductID, req.Quantity)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, CartResponseDTO{CartSummary: summary, CanCheckout: ok})
}
