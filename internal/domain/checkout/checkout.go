// Package checkout binds cart snapshots to payment attempts and finalizes
// orders on payment confirmation.
package checkout

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xenking/shopfront/internal/domain/membership"
	"github.com/xenking/shopfront/internal/domain/order"
	"github.com/xenking/shopfront/internal/token"
)

var (
	// ErrEmptyCart rejects checkout for carts with no lines.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrPendingNotFound is returned when a confirmed payment intent has no
	// pending order. Recoverable: logged for manual reconciliation.
	ErrPendingNotFound = errors.New("pending order not found")
	// ErrIntentInUse is returned when a payment intent already has a pending
	// order.
	ErrIntentInUse = errors.New("payment intent already pending")
	// ErrAlreadyConsumed signals a second confirmation for the same intent.
	// Confirmation treats it as a no-op.
	ErrAlreadyConsumed = errors.New("pending order already consumed")
)

// PendingOrder bridges a cart snapshot and an in-flight payment attempt.
// OrderID stays empty until the payment is confirmed.
type PendingOrder struct {
	PaymentIntent string
	CartToken     string
	UserID        string
	OrderID       string
	CreatedAt     time.Time
}

// PendingRepository persists pending orders. Consume must be a conditional
// update (set order id where unset) so exactly one confirmation wins.
type PendingRepository interface {
	Create(ctx context.Context, p *PendingOrder) error
	Consume(ctx context.Context, paymentIntent, orderID string) (*PendingOrder, error)
}

// TokenInvalidator revokes superseded token ids.
type TokenInvalidator interface {
	Invalidate(ctx context.Context, id string, ttl time.Duration) error
}

// Notifier delivers fire-and-forget order notifications. Finalization never
// waits on it.
type Notifier interface {
	OrderConfirmed(ctx context.Context, o *order.Order) error
}

// Orchestrator sequences checkout initiation and payment confirmation.
type Orchestrator struct {
	pending PendingRepository
	orders  order.Repository
	members membership.Repository
	signer  *token.Signer
	tokens  TokenInvalidator
	notify  Notifier
	lg      *zap.Logger
	now     func() time.Time
}

// NewOrchestrator creates an Orchestrator with the required collaborators.
func NewOrchestrator(
	pending PendingRepository,
	orders order.Repository,
	members membership.Repository,
	signer *token.Signer,
	tokens TokenInvalidator,
	notify Notifier,
	lg *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		pending: pending,
		orders:  orders,
		members: members,
		signer:  signer,
		tokens:  tokens,
		notify:  notify,
		lg:      lg,
		now:     time.Now,
	}
}

// WithNow overrides the clock. Test hook.
func (o *Orchestrator) WithNow(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// Initiate reserves the payment intent for the given snapshot: a pending
// order is persisted and the snapshot's token becomes terminal. A fresh
// token for the same cart value is returned so the client can keep browsing.
func (o *Orchestrator) Initiate(ctx context.Context, snap *token.Snapshot, rawToken, paymentIntent string) (*PendingOrder, string, error) {
	if snap.Cart.IsEmpty() {
		return nil, "", ErrEmptyCart
	}

	p := &PendingOrder{
		PaymentIntent: paymentIntent,
		CartToken:     rawToken,
		UserID:        snap.UserID,
		CreatedAt:     o.now(),
	}
	if err := o.pending.Create(ctx, p); err != nil {
		return nil, "", errors.Wrap(err, "create pending order")
	}

	if err := o.tokens.Invalidate(ctx, snap.ID, o.signer.TTL()); err != nil {
		return nil, "", errors.Wrap(err, "invalidate checkout token")
	}

	fresh, _, err := o.signer.Issue(snap.Cart, snap.UserID)
	if err != nil {
		return nil, "", errors.Wrap(err, "issue token")
	}

	return p, fresh, nil
}

// ConfirmPayment finalizes the order for a confirmed payment intent.
// Exactly one order is created per intent: the conditional consume decides
// the winner, so a second confirmation returns (nil, nil). A missing pending
// order is reported as ErrPendingNotFound for manual reconciliation.
func (o *Orchestrator) ConfirmPayment(ctx context.Context, paymentIntent string) (*order.Order, error) {
	orderID := uuid.New().String()

	p, err := o.pending.Consume(ctx, paymentIntent, orderID)
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyConsumed):
			o.lg.Info("Duplicate payment confirmation ignored",
				zap.String("payment_intent", paymentIntent))
			return nil, nil
		case errors.Is(err, ErrPendingNotFound):
			o.lg.Warn("No pending order for confirmed payment, needs reconciliation",
				zap.String("payment_intent", paymentIntent))
			return nil, ErrPendingNotFound
		default:
			return nil, errors.Wrap(err, "consume pending order")
		}
	}

	snap, err := o.signer.Decode(p.CartToken)
	if err != nil {
		return nil, errors.Wrap(err, "decode pending cart token")
	}

	ord := &order.Order{
		ID:          orderID,
		UserID:      p.UserID,
		Status:      order.StatusPending,
		Cart:        snap.Cart,
		GiftMessage: snap.Cart.GiftMessage,
		PromoCode:   snap.Cart.PromoCode,
		Total:       snap.Cart.Total,
		Discount:    snap.Cart.Discount,
		CreatedAt:   o.now(),
	}
	if err := o.orders.Create(ctx, ord); err != nil {
		// The pending order is already consumed; surface the failure for
		// reconciliation rather than retrying into a duplicate.
		return nil, errors.Wrapf(err, "create order %s for intent %s", orderID, paymentIntent)
	}

	if p.UserID != "" {
		consumed, err := o.members.ConsumeDelivery(ctx, p.UserID)
		if err != nil {
			o.lg.Error("Consume membership delivery failed",
				zap.String("user", p.UserID), zap.Error(err))
		} else if consumed {
			o.lg.Info("Membership delivery consumed", zap.String("user", p.UserID))
		}
	}

	// Fire-and-forget: notification failures are logged, never surfaced.
	go func() {
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := o.notify.OrderConfirmed(nctx, ord); err != nil {
			o.lg.Error("Order notification failed",
				zap.String("order", ord.ID), zap.Error(err))
		}
	}()

	return ord, nil
}
