package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"

	"github.com/xenking/shopfront/internal/domain/order"
	"github.com/xenking/shopfront/internal/token"
)

type initiateCheckoutRequest struct {
	PaymentIntent string `json:"payment_intent"`
}

type initiateCheckoutResponse struct {
	PaymentIntent string   `json:"payment_intent"`
	Cart          cartView `json:"cart"`
	Token         string   `json:"token"`
}

type confirmPaymentRequest struct {
	PaymentIntent string `json:"payment_intent"`
}

type confirmPaymentResponse struct {
	OrderID string `json:"order_id,omitempty"`
	Status  string `json:"status"`
}

type promoSalesResponse struct {
	Code       string `json:"code"`
	OrderCount int    `json:"order_count"`
	TotalSales string `json:"total_sales"`
}

// initiateCheckout binds the presented cart snapshot to a payment intent.
// The presented token becomes terminal; the response carries a fresh one.
func (h *Handler) initiateCheckout(w http.ResponseWriter, r *http.Request) {
	var req initiateCheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PaymentIntent == "" {
		h.writeError(w, r, errors.Wrap(errBadRequest, "payment intent required"))
		return
	}

	c, snap, err := h.loadCart(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if snap == nil {
		h.writeError(w, r, token.ErrInvalidToken)
		return
	}

	p, fresh, err := h.orch.Initiate(r.Context(), snap, r.Header.Get(HeaderCartToken), req.PaymentIntent)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, initiateCheckoutResponse{
		PaymentIntent: p.PaymentIntent,
		Cart:          newCartView(c),
		Token:         fresh,
	})
}

// confirmPayment is the payment gateway webhook. Confirmation is idempotent
// by intent id: duplicates answer 200 with status "already_processed".
func (h *Handler) confirmPayment(w http.ResponseWriter, r *http.Request) {
	var req confirmPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PaymentIntent == "" {
		h.writeError(w, r, errors.Wrap(errBadRequest, "payment intent required"))
		return
	}

	ord, err := h.orch.ConfirmPayment(r.Context(), req.PaymentIntent)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if ord == nil {
		writeJSON(w, http.StatusOK, confirmPaymentResponse{Status: "already_processed"})
		return
	}

	writeJSON(w, http.StatusCreated, confirmPaymentResponse{
		OrderID: ord.ID,
		Status:  string(ord.Status),
	})
}

// promoSales reports the total sales attributed to a promo code: the summed
// final price of every order that referenced it, to two decimals.
func (h *Handler) promoSales(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	orders, err := h.orders.ListByPromoCode(r.Context(), code)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, promoSalesResponse{
		Code:       code,
		OrderCount: len(orders),
		TotalSales: order.AttributedSales(orders).StringFixed(2),
	})
}
