package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/shopfront/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders
		(id, user_id, status, cart, shipping_address, gift_message, promo_code, total, discount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	getOrderByIDSQL = `SELECT id, user_id, status, cart, shipping_address, tracking_numbers,
		gift_message, promo_code, total, discount, created_at
		FROM orders WHERE id = $1`

	updateOrderStatusSQL = `UPDATE orders SET status = $2 WHERE id = $1`

	appendTrackingSQL = `UPDATE orders
		SET tracking_numbers = array_append(tracking_numbers, $2) WHERE id = $1`

	listOrdersByPromoSQL = `SELECT id, user_id, status, cart, shipping_address, tracking_numbers,
		gift_message, promo_code, total, discount, created_at
		FROM orders WHERE promo_code = $1 ORDER BY created_at`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
// The frozen cart snapshot is serialized to a JSONB column.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	cartJSON, err := json.Marshal(o.Cart)
	if err != nil {
		return fmt.Errorf("marshaling order cart: %w", err)
	}

	_, err = r.pool.Exec(ctx, createOrderSQL,
		o.ID, o.UserID, string(o.Status), cartJSON, o.ShippingAddress,
		o.GiftMessage, o.PromoCode, o.Total, o.Discount, o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

// GetByID returns an order by its identifier.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return &o, nil
}

// UpdateStatus transitions an order's fulfillment status.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status order.Status) error {
	tag, err := r.pool.Exec(ctx, updateOrderStatusSQL, id, string(status))
	if err != nil {
		return fmt.Errorf("updating status for order %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// AppendTracking adds a tracking number to an order.
func (r *OrderRepository) AppendTracking(ctx context.Context, id, trackingNumber string) error {
	tag, err := r.pool.Exec(ctx, appendTrackingSQL, id, trackingNumber)
	if err != nil {
		return fmt.Errorf("appending tracking for order %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// ListByPromoCode returns all orders that referenced the given promo code.
func (r *OrderRepository) ListByPromoCode(ctx context.Context, code string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersByPromoSQL, code)
	if err != nil {
		return nil, fmt.Errorf("listing orders for promo %q: %w", code, err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o        order.Order
		status   string
		cartJSON []byte
	)
	err := row.Scan(
		&o.ID, &o.UserID, &status, &cartJSON, &o.ShippingAddress, &o.TrackingNumbers,
		&o.GiftMessage, &o.PromoCode, &o.Total, &o.Discount, &o.CreatedAt,
	)
	if err != nil {
		return o, err
	}

	o.Status = order.Status(status)
	if err := json.Unmarshal(cartJSON, &o.Cart); err != nil {
		return o, fmt.Errorf("unmarshaling cart for order %q: %w", o.ID, err)
	}
	return o, nil
}
