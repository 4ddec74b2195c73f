package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/shopfront/internal/domain/catalog"
	"github.com/xenking/shopfront/internal/domain/membership"
	"github.com/xenking/shopfront/internal/domain/promo"
)

var (
	// ErrInvalidQuantity is returned when a line quantity is negative.
	ErrInvalidQuantity = errors.New("quantity must be a non-negative integer")
	// ErrEmptyShipDate is returned for a zero ship date.
	ErrEmptyShipDate = errors.New("ship date required")
	// ErrEmptyGiftMessage is returned for an empty gift message.
	ErrEmptyGiftMessage = errors.New("gift message required")
)

var one = decimal.NewFromInt(1)

// Service implements cart mutations. Every operation takes a cart value and
// returns a new value; nothing is persisted here. A failed catalog or promo
// lookup aborts the whole operation, and the caller only re-issues a token on
// full success.
type Service struct {
	catalog catalog.Repository
	promos  promo.Validator
	taxRate decimal.Decimal
}

// NewService creates a cart Service. taxRate is a fraction of the subtotal
// (0 disables tax).
func NewService(catalogRepo catalog.Repository, promos promo.Validator, taxRate decimal.Decimal) *Service {
	return &Service{
		catalog: catalogRepo,
		promos:  promos,
		taxRate: taxRate,
	}
}

// tierUnitPrice applies the membership multiplier to a base catalog price.
func tierUnitPrice(base decimal.Decimal, tier membership.Tier) decimal.Decimal {
	return base.Mul(one.Sub(tier.DiscountMultiplier()))
}

// UpsertLine sets the quantity for (itemID, selection). Quantities replace
// rather than add; zero removes the line. New lines are priced at the given
// tier. When the item is not sold in the requested packaging the cart is
// returned unchanged.
func (s *Service) UpsertLine(ctx context.Context, c Cart, tier membership.Tier, itemID string, sel catalog.Selection, quantity int) (Cart, error) {
	if quantity < 0 {
		return c, ErrInvalidQuantity
	}

	item, err := s.catalog.GetByID(ctx, itemID)
	if err != nil {
		return c, errors.Wrap(err, "resolve item")
	}

	base, err := item.PriceFor(sel)
	if err != nil {
		if errors.Is(err, catalog.ErrSelectionNotApplicable) {
			return c, nil
		}
		return c, err
	}

	c.Lines = c.cloneLines()

	idx := c.findLine(itemID, sel)
	switch {
	case quantity == 0:
		if idx >= 0 {
			c.Lines = append(c.Lines[:idx], c.Lines[idx+1:]...)
		}
	case idx >= 0:
		c.Lines[idx].Quantity = quantity
	default:
		c.Lines = append(c.Lines, Line{
			ItemID:      itemID,
			Selection:   sel,
			DisplayName: item.DisplayName(sel),
			Quantity:    quantity,
			UnitPrice:   tierUnitPrice(base, tier),
		})
	}

	return c.recompute(s.taxRate), nil
}

// ApplyMembershipPricing re-prices every line at the given tier. The catalog
// is re-quoted per line rather than cached, so applying the same tier twice
// is idempotent. Any line whose item has vanished from the catalog aborts the
// operation.
func (s *Service) ApplyMembershipPricing(ctx context.Context, c Cart, tier membership.Tier) (Cart, error) {
	lines := c.cloneLines()
	for i, l := range lines {
		item, err := s.catalog.GetByID(ctx, l.ItemID)
		if err != nil {
			return c, errors.Wrapf(err, "re-price line %s", l.ItemID)
		}
		base, err := item.PriceFor(l.Selection)
		if err != nil {
			return c, errors.Wrapf(err, "re-price line %s", l.ItemID)
		}
		lines[i].UnitPrice = tierUnitPrice(base, tier)
	}
	c.Lines = lines

	return c.recompute(s.taxRate), nil
}

// ApplyPromo validates the code, consumes one use, and attaches it to the
// cart, replacing any previously attached code. The replaced code's consumed
// use is not refunded; usage is spent at attach time.
func (s *Service) ApplyPromo(ctx context.Context, c Cart, code string) (Cart, error) {
	rule, err := s.promos.Validate(ctx, code)
	if err != nil {
		return c, err
	}

	c.PromoCode = rule.Code
	c.PromoPerk = rule.Perk
	_, c.FreeShipping = rule.Perk.(promo.FreeShipping)

	return c.recompute(s.taxRate), nil
}

// RemovePromo detaches the current promo code. The consumed use is not
// refunded. Lines and subtotal are untouched; only discount and total change.
func (s *Service) RemovePromo(c Cart) Cart {
	c.PromoCode = ""
	c.PromoPerk = nil
	c.FreeShipping = false

	return c.recompute(s.taxRate)
}

// SetShipDate sets the desired ship date. A zero date is rejected.
func (s *Service) SetShipDate(c Cart, date time.Time) (Cart, error) {
	if date.IsZero() {
		return c, ErrEmptyShipDate
	}
	c.ShipDate = date
	return c, nil
}

// SetGiftMessage sets the gift message. An empty message is rejected.
func (s *Service) SetGiftMessage(c Cart, msg string) (Cart, error) {
	if msg == "" {
		return c, ErrEmptyGiftMessage
	}
	c.GiftMessage = msg
	return c, nil
}
