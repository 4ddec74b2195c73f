package promo

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Validator checks a promo code's eligibility and, on success, consumes one
// use. Usage is consumed at attach time, not at order finalization: a cart
// abandoned after attaching a promo permanently spends one use. That matches
// the observed behavior of the original system.
type Validator interface {
	Validate(ctx context.Context, code string) (*Rule, error)
}

// Ledger implements Validator on top of a Repository.
type Ledger struct {
	repo Repository
	now  func() time.Time
}

// NewLedger creates a Ledger backed by the given Repository.
func NewLedger(repo Repository) *Ledger {
	return &Ledger{repo: repo, now: time.Now}
}

// WithNow overrides the clock. Test hook.
func (l *Ledger) WithNow(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// Validate looks up the rule for the given code, checks disabled/expired/
// usage state, and consumes one use. The consume is a conditional increment
// at the storage layer, so a concurrent attach racing past the eligibility
// check still cannot exceed the cap.
func (l *Ledger) Validate(ctx context.Context, code string) (*Rule, error) {
	rule, err := l.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "lookup promo code")
	}

	if err := rule.Eligible(l.now()); err != nil {
		return nil, err
	}

	if err := l.repo.ConsumeUse(ctx, code); err != nil {
		if errors.Is(err, ErrOutOfUses) {
			return nil, ErrOutOfUses
		}
		return nil, errors.Wrap(err, "consume promo use")
	}

	return rule, nil
}
