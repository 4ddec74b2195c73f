package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/shopfront/internal/domain/auth"
	"github.com/xenking/shopfront/internal/domain/cart"
	"github.com/xenking/shopfront/internal/domain/catalog"
	"github.com/xenking/shopfront/internal/domain/checkout"
	"github.com/xenking/shopfront/internal/domain/membership"
	"github.com/xenking/shopfront/internal/domain/order"
	"github.com/xenking/shopfront/internal/domain/promo"
	"github.com/xenking/shopfront/internal/token"
)

// errorResponse is the error envelope every failure renders as.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// writeError maps a domain error to its HTTP status class. Unclassified
// errors never leak details to the client.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
		msg = "internal error"
	}

	writeJSON(w, status, errorResponse{Code: status, Message: msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, cart.ErrEmptyShipDate),
		errors.Is(err, cart.ErrEmptyGiftMessage),
		errors.Is(err, catalog.ErrUnknownSelection),
		errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest

	case errors.Is(err, auth.ErrUnauthorized):
		return http.StatusUnauthorized

	case errors.Is(err, promo.ErrExpired),
		errors.Is(err, promo.ErrDisabled),
		errors.Is(err, promo.ErrOutOfUses),
		errors.Is(err, token.ErrInvalidToken),
		errors.Is(err, token.ErrTokenExpired):
		return http.StatusForbidden

	case errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, promo.ErrNotFound),
		errors.Is(err, membership.ErrNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, checkout.ErrPendingNotFound):
		return http.StatusNotFound

	case errors.Is(err, checkout.ErrIntentInUse):
		return http.StatusConflict

	default:
		return http.StatusInternalServerError
	}
}

// errBadRequest classifies malformed request bodies.
var errBadRequest = errors.New("bad request")
