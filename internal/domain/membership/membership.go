package membership

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when no membership record exists for a user.
var ErrNotFound = errors.New("membership not found")

// Tier is a membership level granting a price discount.
type Tier string

const (
	TierNonMember Tier = "non_member"
	TierGold      Tier = "gold"
	TierPlatinum  Tier = "platinum"
	TierDiamond   Tier = "diamond"
)

var multipliers = map[Tier]decimal.Decimal{
	TierNonMember: decimal.Zero,
	TierGold:      decimal.NewFromFloat(0.05),
	TierPlatinum:  decimal.NewFromFloat(0.10),
	TierDiamond:   decimal.NewFromFloat(0.15),
}

// DiscountMultiplier returns the fraction taken off unit prices for the tier.
// Unknown tiers get no discount.
func (t Tier) DiscountMultiplier() decimal.Decimal {
	if m, ok := multipliers[t]; ok {
		return m
	}
	return decimal.Zero
}

// ParseTier converts a stored tier value into a Tier. Unknown values map to
// TierNonMember rather than failing: a corrupt tier must never grant a discount.
func ParseTier(s string) Tier {
	switch Tier(s) {
	case TierGold, TierPlatinum, TierDiamond:
		return Tier(s)
	default:
		return TierNonMember
	}
}

// Effective resolves the tier that pricing should use. An expired membership
// is treated as NonMember even when the stored tier has not been reset. This
// is the single expiration check shared by pricing and membership-gated
// handlers.
func Effective(tier Tier, expiresAt *time.Time, now time.Time) Tier {
	if expiresAt != nil && expiresAt.Before(now) {
		return TierNonMember
	}
	return tier
}

// Record is a user's stored membership.
type Record struct {
	UserID         string
	Tier           Tier
	ExpiresAt      *time.Time
	DeliveriesLeft int
}

// EffectiveTier resolves the record's tier for pricing at the given time.
func (r *Record) EffectiveTier(now time.Time) Tier {
	return Effective(r.Tier, r.ExpiresAt, now)
}

// Repository provides membership lookup and delivery consumption.
type Repository interface {
	FindByUser(ctx context.Context, userID string) (*Record, error)

	// ConsumeDelivery decrements deliveries_left by one if any remain.
	// The decrement must be a conditional update so concurrent consumers
	// cannot drive the counter negative. It reports whether a delivery
	// was consumed.
	ConsumeDelivery(ctx context.Context, userID string) (bool, error)
}
