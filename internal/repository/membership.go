package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/shopfront/internal/domain/membership"
)

const (
	getMembershipSQL = `SELECT user_id, tier, expires_at, deliveries_left
		FROM memberships WHERE user_id = $1`

	// Conditional decrement: the guard keeps concurrent checkouts from
	// driving the counter negative.
	consumeDeliverySQL = `UPDATE memberships SET deliveries_left = deliveries_left - 1
		WHERE user_id = $1 AND deliveries_left > 0`
)

var _ membership.Repository = (*MembershipRepository)(nil)

// MembershipRepository implements membership.Repository backed by PostgreSQL.
type MembershipRepository struct {
	pool *pgxpool.Pool
}

// NewMembershipRepository returns a MembershipRepository that uses the given pool.
func NewMembershipRepository(pool *pgxpool.Pool) *MembershipRepository {
	return &MembershipRepository{pool: pool}
}

// FindByUser returns the membership record for a user.
// Returns membership.ErrNotFound when the user has none.
func (r *MembershipRepository) FindByUser(ctx context.Context, userID string) (*membership.Record, error) {
	var (
		rec       membership.Record
		tier      string
		expiresAt *time.Time
	)
	err := r.pool.QueryRow(ctx, getMembershipSQL, userID).Scan(
		&rec.UserID, &tier, &expiresAt, &rec.DeliveriesLeft,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, membership.ErrNotFound
		}
		return nil, fmt.Errorf("finding membership for %q: %w", userID, err)
	}

	rec.Tier = membership.ParseTier(tier)
	rec.ExpiresAt = expiresAt
	return &rec, nil
}

// ConsumeDelivery decrements the user's remaining deliveries when any are
// left. Reports whether a delivery was consumed.
func (r *MembershipRepository) ConsumeDelivery(ctx context.Context, userID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, consumeDeliverySQL, userID)
	if err != nil {
		return false, fmt.Errorf("consuming delivery for %q: %w", userID, err)
	}
	return tag.RowsAffected() > 0, nil
}
