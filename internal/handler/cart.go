package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/shopfront/internal/domain/catalog"
	"github.com/xenking/shopfront/internal/domain/membership"
)

type upsertItemRequest struct {
	ItemID    string `json:"item_id"`
	Selection string `json:"selection"`
	Quantity  *int   `json:"quantity"`
}

type applyPromoRequest struct {
	Code string `json:"code"`
}

type setShipDateRequest struct {
	Date string `json:"date"`
}

type setGiftMessageRequest struct {
	Message string `json:"message"`
}

// getCart returns the current cart. With no token it mints an empty cart;
// the presented token stays valid since nothing was mutated.
func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	c, snap, err := h.loadCart(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if snap != nil {
		writeJSON(w, http.StatusOK, cartResponse{
			Cart:  newCartView(c),
			Token: r.Header.Get(HeaderCartToken),
		})
		return
	}

	h.issue(w, r, c, nil, "")
}

// upsertItem sets the quantity of one cart line. New lines are priced at the
// caller's effective membership tier.
func (h *Handler) upsertItem(w http.ResponseWriter, r *http.Request) {
	var req upsertItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, errors.Wrap(errBadRequest, "invalid body"))
		return
	}
	if req.Quantity == nil {
		h.writeError(w, r, errors.Wrap(errBadRequest, "quantity required"))
		return
	}

	sel, err := catalog.ParseSelection(req.Selection)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	c, snap, err := h.loadCart(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.userID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	tier, err := h.effectiveTier(r.Context(), user)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	updated, err := h.carts.UpsertLine(r.Context(), c, tier, req.ItemID, sel, *req.Quantity)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.issue(w, r, updated, snap, user)
}

// applyPromo attaches a promo code, replacing any code already attached.
func (h *Handler) applyPromo(w http.ResponseWriter, r *http.Request) {
	var req applyPromoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		h.writeError(w, r, errors.Wrap(errBadRequest, "promo code required"))
		return
	}

	c, snap, err := h.loadCart(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	updated, err := h.carts.ApplyPromo(r.Context(), c, req.Code)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.issue(w, r, updated, snap, "")
}

// removePromo detaches the attached promo code, if any.
func (h *Handler) removePromo(w http.ResponseWriter, r *http.Request) {
	c, snap, err := h.loadCart(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.issue(w, r, h.carts.RemovePromo(c), snap, "")
}

// applyMembership re-prices the cart at the caller's effective tier. Guests
// price as NonMember; an authenticated caller without a membership record is
// a NotFound.
func (h *Handler) applyMembership(w http.ResponseWriter, r *http.Request) {
	c, snap, err := h.loadCart(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.userID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	tier := membership.TierNonMember
	if user != "" {
		rec, err := h.members.FindByUser(r.Context(), user)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		tier = rec.EffectiveTier(h.now())
	}

	updated, err := h.carts.ApplyMembershipPricing(r.Context(), c, tier)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.issue(w, r, updated, snap, user)
}

// setShipDate sets the desired ship date (YYYY-MM-DD).
func (h *Handler) setShipDate(w http.ResponseWriter, r *http.Request) {
	var req setShipDateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, errors.Wrap(errBadRequest, "invalid body"))
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		h.writeError(w, r, errors.Wrap(errBadRequest, "invalid ship date"))
		return
	}

	c, snap, err := h.loadCart(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	updated, err := h.carts.SetShipDate(c, date)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.issue(w, r, updated, snap, "")
}

// setGiftMessage sets the gift message.
func (h *Handler) setGiftMessage(w http.ResponseWriter, r *http.Request) {
	var req setGiftMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, errors.Wrap(errBadRequest, "invalid body"))
		return
	}

	c, snap, err := h.loadCart(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	updated, err := h.carts.SetGiftMessage(c, req.Message)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.issue(w, r, updated, snap, "")
}
