// Package handler exposes the cart, checkout, and promo operations over
// HTTP. Every cart mutation verifies the incoming token, computes a new cart
// value, and answers with the updated cart plus a fresh token; a mutation is
// not applied unless the client receives that success response.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"

	"github.com/xenking/shopfront/internal/domain/auth"
	"github.com/xenking/shopfront/internal/domain/cart"
	"github.com/xenking/shopfront/internal/domain/checkout"
	"github.com/xenking/shopfront/internal/domain/membership"
	"github.com/xenking/shopfront/internal/domain/order"
	"github.com/xenking/shopfront/internal/token"
)

// Header names for the cart token and API key credentials.
const (
	HeaderCartToken = "X-Cart-Token"
	HeaderAPIKey    = "api_key"
)

// TokenStore tracks superseded token ids.
type TokenStore interface {
	Invalidate(ctx context.Context, id string, ttl time.Duration) error
	IsInvalidated(ctx context.Context, id string) (bool, error)
}

// Handler implements the HTTP surface, delegating business logic to the cart
// service and checkout orchestrator.
type Handler struct {
	carts    *cart.Service
	orch     *checkout.Orchestrator
	orders   order.Repository
	members  membership.Repository
	signer   *token.Signer
	tokens   TokenStore
	auth     *auth.Authenticator
	now      func() time.Time
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	carts *cart.Service,
	orch *checkout.Orchestrator,
	orders order.Repository,
	members membership.Repository,
	signer *token.Signer,
	tokens TokenStore,
	authn *auth.Authenticator,
) *Handler {
	return &Handler{
		carts:    carts,
		orch:     orch,
		orders:   orders,
		members:  members,
		signer:   signer,
		tokens:   tokens,
		auth:     authn,
		now:      time.Now,
	}
}

// Routes returns the API router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/cart", h.getCart)
	r.Put("/cart/items", h.upsertItem)
	r.Post("/cart/promo", h.applyPromo)
	r.Delete("/cart/promo", h.removePromo)
	r.Post("/cart/membership", h.applyMembership)
	r.Put("/cart/ship-date", h.setShipDate)
	r.Put("/cart/gift-message", h.setGiftMessage)

	r.Post("/checkout", h.initiateCheckout)
	r.Post("/payments/confirm", h.confirmPayment)

	r.Get("/promos/{code}/sales", h.promoSales)

	return r
}

// loadCart resolves the request's cart snapshot. A missing token yields a
// fresh empty cart; an invalid, expired, or superseded token is rejected.
func (h *Handler) loadCart(r *http.Request) (cart.Cart, *token.Snapshot, error) {
	raw := r.Header.Get(HeaderCartToken)
	if raw == "" {
		return cart.Empty(), nil, nil
	}

	snap, err := h.signer.Verify(raw)
	if err != nil {
		return cart.Cart{}, nil, err
	}

	revoked, err := h.tokens.IsInvalidated(r.Context(), snap.ID)
	if err != nil {
		return cart.Cart{}, nil, err
	}
	if revoked {
		return cart.Cart{}, nil, token.ErrInvalidToken
	}

	return snap.Cart, snap, nil
}

// userID resolves the caller's identity from the api_key header. No header
// means a guest; a present but invalid key is an error.
func (h *Handler) userID(r *http.Request) (string, error) {
	raw := r.Header.Get(HeaderAPIKey)
	if raw == "" {
		return "", nil
	}
	return h.auth.Authenticate(r.Context(), raw)
}

// effectiveTier resolves the pricing tier for a user. Guests and users
// without a membership record price as NonMember.
func (h *Handler) effectiveTier(ctx context.Context, userID string) (membership.Tier, error) {
	if userID == "" {
		return membership.TierNonMember, nil
	}
	rec, err := h.members.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, membership.ErrNotFound) {
			return membership.TierNonMember, nil
		}
		return membership.TierNonMember, err
	}
	return rec.EffectiveTier(h.now()), nil
}

// issue supersedes the old snapshot (when there is one) and responds with
// the cart and a fresh token.
func (h *Handler) issue(w http.ResponseWriter, r *http.Request, c cart.Cart, old *token.Snapshot, userID string) {
	if old != nil {
		if userID == "" {
			userID = old.UserID
		}
		if err := h.tokens.Invalidate(r.Context(), old.ID, h.signer.TTL()); err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	tok, _, err := h.signer.Issue(c, userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, cartResponse{
		Cart:  newCartView(c),
		Token: tok,
	})
}
