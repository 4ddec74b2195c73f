package promo

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when a promo code does not exist.
	ErrNotFound = errors.New("promo code not found")
	// ErrExpired is returned when a code's expiry date has passed.
	ErrExpired = errors.New("promo code expired")
	// ErrDisabled is returned when a code has been administratively disabled.
	ErrDisabled = errors.New("promo code disabled")
	// ErrOutOfUses is returned when a code has exhausted its usage cap.
	ErrOutOfUses = errors.New("promo code usage limit reached")
)

// Rule defines a promo code's benefit and eligibility constraints.
// Codes are case-sensitive.
type Rule struct {
	Code        string
	Perk        Perk
	ExpiresAt   *time.Time
	MaxUses     int // 0 = unlimited
	Uses        int
	CreatedBy   string
	Description string
	Disabled    bool
}

// Eligible checks the rule's own state against the given time. Each rejection
// condition is independent: disabled and expired codes are never applicable
// regardless of remaining uses.
func (r *Rule) Eligible(now time.Time) error {
	if r.Disabled {
		return ErrDisabled
	}
	if r.ExpiresAt != nil && r.ExpiresAt.Before(now) {
		return ErrExpired
	}
	if r.MaxUses > 0 && r.Uses >= r.MaxUses {
		return ErrOutOfUses
	}
	return nil
}

// Repository provides lookup and usage accounting for promo codes.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Rule, error)

	// ConsumeUse atomically increments the usage counter, guarded by the
	// usage cap: the increment must be a conditional update so two
	// concurrent attaches cannot push uses past max_uses. Returns
	// ErrOutOfUses when the cap is already reached.
	ConsumeUse(ctx context.Context, code string) error
}
