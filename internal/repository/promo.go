package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/shopfront/internal/domain/promo"
)

const (
	// Codes are case-sensitive: no UPPER() normalization.
	getPromoByCodeSQL = `SELECT code, perk, expires_at, max_uses, uses, created_by, description, disabled
		FROM promo_codes WHERE code = $1`

	// Compare-and-increment: the WHERE guard keeps concurrent attaches from
	// pushing uses past the cap.
	consumePromoUseSQL = `UPDATE promo_codes SET uses = uses + 1
		WHERE code = $1 AND NOT disabled AND (max_uses = 0 OR uses < max_uses)`
)

var _ promo.Repository = (*PromoRepository)(nil)

// PromoRepository implements promo.Repository backed by PostgreSQL.
type PromoRepository struct {
	pool *pgxpool.Pool
}

// NewPromoRepository returns a PromoRepository that uses the given pool.
func NewPromoRepository(pool *pgxpool.Pool) *PromoRepository {
	return &PromoRepository{pool: pool}
}

// FindByCode looks up a promo rule by its exact code.
// Returns promo.ErrNotFound when no such code exists.
func (r *PromoRepository) FindByCode(ctx context.Context, code string) (*promo.Rule, error) {
	rows, err := r.pool.Query(ctx, getPromoByCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding promo code %q: %w", code, err)
	}

	rule, err := pgx.CollectExactlyOneRow(rows, scanPromoRule)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, promo.ErrNotFound
		}
		return nil, fmt.Errorf("finding promo code %q: %w", code, err)
	}
	return &rule, nil
}

// ConsumeUse atomically increments the usage counter for the given code.
// Zero affected rows means the cap was reached (or the code disappeared);
// both map to ErrOutOfUses since the eligibility check already ran.
func (r *PromoRepository) ConsumeUse(ctx context.Context, code string) error {
	tag, err := r.pool.Exec(ctx, consumePromoUseSQL, code)
	if err != nil {
		return fmt.Errorf("consuming use for promo %q: %w", code, err)
	}
	if tag.RowsAffected() == 0 {
		return promo.ErrOutOfUses
	}
	return nil
}

func scanPromoRule(row pgx.CollectableRow) (promo.Rule, error) {
	var (
		rule      promo.Rule
		perkStr   string
		expiresAt *time.Time
		maxUses   int32
		uses      int32
	)
	err := row.Scan(
		&rule.Code, &perkStr, &expiresAt, &maxUses, &uses,
		&rule.CreatedBy, &rule.Description, &rule.Disabled,
	)
	if err != nil {
		return rule, err
	}

	perk, err := promo.ParsePerk(perkStr)
	if err != nil {
		return rule, fmt.Errorf("promo %q: %w", rule.Code, err)
	}

	rule.Perk = perk
	rule.ExpiresAt = expiresAt
	rule.MaxUses = int(maxUses)
	rule.Uses = int(uses)
	return rule, nil
}
