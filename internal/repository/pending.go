package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/shopfront/internal/domain/checkout"
)

const (
	createPendingSQL = `INSERT INTO pending_orders (payment_intent, cart_token, user_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (payment_intent) DO NOTHING`

	// Conditional consume: only the first confirmation for an intent sets
	// the order id. Losers see zero rows and fall through to the probe.
	consumePendingSQL = `UPDATE pending_orders SET order_id = $2
		WHERE payment_intent = $1 AND order_id IS NULL
		RETURNING cart_token, user_id, created_at`

	probePendingSQL = `SELECT 1 FROM pending_orders WHERE payment_intent = $1`
)

var _ checkout.PendingRepository = (*PendingOrderRepository)(nil)

// PendingOrderRepository implements checkout.PendingRepository backed by
// PostgreSQL.
type PendingOrderRepository struct {
	pool *pgxpool.Pool
}

// NewPendingOrderRepository returns a PendingOrderRepository that uses the
// given pool.
func NewPendingOrderRepository(pool *pgxpool.Pool) *PendingOrderRepository {
	return &PendingOrderRepository{pool: pool}
}

// Create persists a pending order. One pending order exists per payment
// intent; a duplicate intent returns checkout.ErrIntentInUse.
func (r *PendingOrderRepository) Create(ctx context.Context, p *checkout.PendingOrder) error {
	tag, err := r.pool.Exec(ctx, createPendingSQL,
		p.PaymentIntent, p.CartToken, p.UserID, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating pending order for intent %q: %w", p.PaymentIntent, err)
	}
	if tag.RowsAffected() == 0 {
		return checkout.ErrIntentInUse
	}
	return nil
}

// Consume marks the pending order for an intent as finalized with the given
// order id. Exactly one caller wins; later calls get ErrAlreadyConsumed, and
// unknown intents get ErrPendingNotFound.
func (r *PendingOrderRepository) Consume(ctx context.Context, paymentIntent, orderID string) (*checkout.PendingOrder, error) {
	p := &checkout.PendingOrder{
		PaymentIntent: paymentIntent,
		OrderID:       orderID,
	}

	err := r.pool.QueryRow(ctx, consumePendingSQL, paymentIntent, orderID).Scan(
		&p.CartToken, &p.UserID, &p.CreatedAt,
	)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("consuming pending order for intent %q: %w", paymentIntent, err)
	}

	// Zero rows: either already consumed or never created.
	var probe int
	err = r.pool.QueryRow(ctx, probePendingSQL, paymentIntent).Scan(&probe)
	switch {
	case err == nil:
		return nil, checkout.ErrAlreadyConsumed
	case errors.Is(err, pgx.ErrNoRows):
		return nil, checkout.ErrPendingNotFound
	default:
		return nil, fmt.Errorf("probing pending order for intent %q: %w", paymentIntent, err)
	}
}
