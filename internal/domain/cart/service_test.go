package cart

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/shopfront/internal/domain/catalog"
	"github.com/xenking/shopfront/internal/domain/membership"
	"github.com/xenking/shopfront/internal/domain/promo"
)

type mockCatalog struct {
	items map[string]*catalog.Item
}

func (m *mockCatalog) List(_ context.Context) ([]catalog.Item, error) {
	out := make([]catalog.Item, 0, len(m.items))
	for _, it := range m.items {
		out = append(out, *it)
	}
	return out, nil
}

func (m *mockCatalog) GetByID(_ context.Context, id string) (*catalog.Item, error) {
	it, ok := m.items[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return it, nil
}

type mockValidator struct {
	rules map[string]*promo.Rule
	err   error
	calls []string
}

func (m *mockValidator) Validate(_ context.Context, code string) (*promo.Rule, error) {
	m.calls = append(m.calls, code)
	if m.err != nil {
		return nil, m.err
	}
	rule, ok := m.rules[code]
	if !ok {
		return nil, promo.ErrNotFound
	}
	return rule, nil
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	w := mustDecimal(t, want)
	assert.True(t, w.Equal(got), "want %s, got %s", want, got)
}

func testCatalog(t *testing.T) *mockCatalog {
	t.Helper()
	return &mockCatalog{items: map[string]*catalog.Item{
		"roses": {
			ID:       "roses",
			Name:     "Red Roses",
			Category: "flowers",
			Prices: map[catalog.Selection]decimal.Decimal{
				catalog.SelectionSixPack: mustDecimal(t, "24.95"),
				catalog.SelectionDozen:   mustDecimal(t, "44.95"),
			},
		},
		"coffee": {
			ID:       "coffee",
			Name:     "House Blend",
			Category: "pantry",
			Prices: map[catalog.Selection]decimal.Decimal{
				catalog.SelectionOnePound: mustDecimal(t, "14.50"),
			},
		},
	}}
}

func TestService_UpsertLine(t *testing.T) {
	ctx := context.Background()
	svc := NewService(testCatalog(t), &mockValidator{}, decimal.Zero)

	t.Run("adds a priced line", func(t *testing.T) {
		c, err := svc.UpsertLine(ctx, Empty(), membership.TierNonMember, "roses", catalog.SelectionDozen, 2)
		require.NoError(t, err)

		require.Len(t, c.Lines, 1)
		assert.Equal(t, "Red Roses (dozen)", c.Lines[0].DisplayName)
		assert.Equal(t, 2, c.Lines[0].Quantity)
		assertDecimal(t, "44.95", c.Lines[0].UnitPrice)
		assertDecimal(t, "89.90", c.Subtotal)
		assertDecimal(t, "89.90", c.Total)
		assert.Equal(t, 2, c.TotalQuantity)
	})

	t.Run("quantity replaces rather than adds", func(t *testing.T) {
		c, err := svc.UpsertLine(ctx, Empty(), membership.TierNonMember, "roses", catalog.SelectionDozen, 2)
		require.NoError(t, err)
		c, err = svc.UpsertLine(ctx, c, membership.TierNonMember, "roses", catalog.SelectionDozen, 3)
		require.NoError(t, err)

		require.Len(t, c.Lines, 1)
		assert.Equal(t, 3, c.Lines[0].Quantity)
		assertDecimal(t, "134.85", c.Subtotal)
	})

	t.Run("same item in two selections is two lines", func(t *testing.T) {
		c, err := svc.UpsertLine(ctx, Empty(), membership.TierNonMember, "roses", catalog.SelectionDozen, 1)
		require.NoError(t, err)
		c, err = svc.UpsertLine(ctx, c, membership.TierNonMember, "roses", catalog.SelectionSixPack, 1)
		require.NoError(t, err)

		assert.Len(t, c.Lines, 2)
		assertDecimal(t, "69.90", c.Subtotal)
	})

	t.Run("zero quantity removes the line", func(t *testing.T) {
		c, err := svc.UpsertLine(ctx, Empty(), membership.TierNonMember, "roses", catalog.SelectionDozen, 2)
		require.NoError(t, err)
		c, err = svc.UpsertLine(ctx, c, membership.TierNonMember, "roses", catalog.SelectionDozen, 0)
		require.NoError(t, err)

		assert.True(t, c.IsEmpty())
		assertDecimal(t, "0", c.Subtotal)
		assertDecimal(t, "0", c.Total)
		assert.Zero(t, c.TotalQuantity)
	})

	t.Run("zero quantity for an absent line is a no-op", func(t *testing.T) {
		c, err := svc.UpsertLine(ctx, Empty(), membership.TierNonMember, "roses", catalog.SelectionDozen, 0)
		require.NoError(t, err)
		assert.True(t, c.IsEmpty())
	})

	t.Run("negative quantity is rejected", func(t *testing.T) {
		orig, err := svc.UpsertLine(ctx, Empty(), membership.TierNonMember, "roses", catalog.SelectionDozen, 2)
		require.NoError(t, err)

		c, err := svc.UpsertLine(ctx, orig, membership.TierNonMember, "roses", catalog.SelectionDozen, -1)
		require.ErrorIs(t, err, ErrInvalidQuantity)
		assert.Equal(t, orig.Subtotal, c.Subtotal)
	})

	t.Run("selection the item does not sell leaves cart unchanged", func(t *testing.T) {
		orig, err := svc.UpsertLine(ctx, Empty(), membership.TierNonMember, "roses", catalog.SelectionDozen, 1)
		require.NoError(t, err)

		c, err := svc.UpsertLine(ctx, orig, membership.TierNonMember, "coffee", catalog.SelectionDozen, 1)
		require.NoError(t, err)
		assert.Len(t, c.Lines, 1)
		assert.Equal(t, orig.Subtotal, c.Subtotal)
	})

	t.Run("unknown item aborts", func(t *testing.T) {
		_, err := svc.UpsertLine(ctx, Empty(), membership.TierNonMember, "ghost", catalog.SelectionDozen, 1)
		require.ErrorIs(t, err, catalog.ErrNotFound)
	})

	t.Run("gold tier prices new lines at a discount", func(t *testing.T) {
		c, err := svc.UpsertLine(ctx, Empty(), membership.TierGold, "roses", catalog.SelectionDozen, 1)
		require.NoError(t, err)
		assertDecimal(t, "42.7025", c.Lines[0].UnitPrice)
	})

	t.Run("mutation does not alias the previous snapshot", func(t *testing.T) {
		before, err := svc.UpsertLine(ctx, Empty(), membership.TierNonMember, "roses", catalog.SelectionDozen, 2)
		require.NoError(t, err)

		after, err := svc.UpsertLine(ctx, before, membership.TierNonMember, "roses", catalog.SelectionDozen, 5)
		require.NoError(t, err)

		assert.Equal(t, 2, before.Lines[0].Quantity)
		assert.Equal(t, 5, after.Lines[0].Quantity)
	})
}

func TestService_ApplyMembershipPricing(t *testing.T) {
	ctx := context.Background()
	svc := NewService(testCatalog(t), &mockValidator{}, decimal.Zero)

	t.Run("re-prices every line at the tier", func(t *testing.T) {
		c, err := svc.UpsertLine(ctx, Empty(), membership.TierNonMember, "roses", catalog.SelectionDozen, 1)
		require.NoError(t, err)
		c, err = svc.UpsertLine(ctx, c, membership.TierNonMember, "coffee", catalog.SelectionOnePound, 2)
		require.NoError(t, err)

		c, err = svc.ApplyMembershipPricing(ctx, c, membership.TierDiamond)
		require.NoError(t, err)

		assertDecimal(t, "38.2075", c.Lines[0].UnitPrice)
		assertDecimal(t, "12.325", c.Lines[1].UnitPrice)
		assertDecimal(t, "62.8575", c.Subtotal)
	})

	t.Run("idempotent for the same tier", func(t *testing.T) {
		c, err := svc.UpsertLine(ctx, Empty(), membership.TierNonMember, "roses", catalog.SelectionDozen, 1)
		require.NoError(t, err)

		once, err := svc.ApplyMembershipPricing(ctx, c, membership.TierGold)
		require.NoError(t, err)
		twice, err := svc.ApplyMembershipPricing(ctx, once, membership.TierGold)
		require.NoError(t, err)

		assert.True(t, once.Subtotal.Equal(twice.Subtotal))
		assert.True(t, once.Lines[0].UnitPrice.Equal(twice.Lines[0].UnitPrice))
	})

	t.Run("downgrade restores base prices", func(t *testing.T) {
		c, err := svc.UpsertLine(ctx, Empty(), membership.TierDiamond, "roses", catalog.SelectionDozen, 1)
		require.NoError(t, err)

		c, err = svc.ApplyMembershipPricing(ctx, c, membership.TierNonMember)
		require.NoError(t, err)
		assertDecimal(t, "44.95", c.Lines[0].UnitPrice)
	})

	t.Run("vanished item aborts and leaves cart unchanged", func(t *testing.T) {
		cat := testCatalog(t)
		svc := NewService(cat, &mockValidator{}, decimal.Zero)

		orig, err := svc.UpsertLine(ctx, Empty(), membership.TierNonMember, "roses", catalog.SelectionDozen, 1)
		require.NoError(t, err)

		delete(cat.items, "roses")

		c, err := svc.ApplyMembershipPricing(ctx, orig, membership.TierGold)
		require.Error(t, err)
		assertDecimal(t, "44.95", c.Lines[0].UnitPrice)
	})

	t.Run("recomputes an attached promo discount", func(t *testing.T) {
		promos := &mockValidator{rules: map[string]*promo.Rule{
			"WELCOME25": {Code: "WELCOME25", Perk: promo.PercentOff{Percent: decimal.NewFromInt(25)}},
		}}
		svc := NewService(testCatalog(t), promos, decimal.Zero)

		c, err := svc.UpsertLine(ctx, Empty(), membership.TierNonMember, "roses", catalog.SelectionDozen, 2)
		require.NoError(t, err)
		c, err = svc.ApplyPromo(ctx, c, "WELCOME25")
		require.NoError(t, err)

		c, err = svc.ApplyMembershipPricing(ctx, c, membership.TierDiamond)
		require.NoError(t, err)

		assertDecimal(t, "76.415", c.Subtotal)
		assertDecimal(t, "19.10375", c.Discount)
		assertDecimal(t, "57.31125", c.Total)
	})
}

func TestService_ApplyPromo(t *testing.T) {
	ctx := context.Background()

	t.Run("percent promo on a plain cart", func(t *testing.T) {
		promos := &mockValidator{rules: map[string]*promo.Rule{
			"WELCOME25": {Code: "WELCOME25", Perk: promo.PercentOff{Percent: decimal.NewFromInt(25)}},
		}}
		svc := NewService(testCatalog(t), promos, decimal.Zero)

		c, err := svc.UpsertLine(ctx, Empty(), membership.TierNonMember, "roses", catalog.SelectionDozen, 2)
		require.NoError(t, err)
		c, err = svc.ApplyPromo(ctx, c, "WELCOME25")
		require.NoError(t, err)

		assertDecimal(t, "89.90", c.Subtotal)
		assertDecimal(t, "22.475", c.Discount)
		assertDecimal(t, "67.425", c.Total)
		assert.Equal(t, "WELCOME25", c.PromoCode)
		assert.False(t, c.FreeShipping)
	})

	t.Run("percent promo stacks on membership pricing", func(t *testing.T) {
		promos := &mockValidator{rules: map[string]*promo.Rule{
			"FIFTEEN": {Code: "FIFTEEN", Perk: promo.PercentOff{Percent: decimal.NewFromInt(15)}},
		}}
		svc := NewService(testCatalog(t), promos, decimal.Zero)

		c, err := svc.UpsertLine(ctx, Empty(), membership.TierDiamond, "roses", catalog.SelectionDozen, 1)
		require.NoError(t, err)
		assertDecimal(t, "38.2075", c.Subtotal)

		c, err = svc.ApplyPromo(ctx, c, "FIFTEEN")
		require.NoError(t, err)

		assertDecimal(t, "5.731125", c.Discount)
		assertDecimal(t, "32.476375", c.Total)
	})

	t.Run("free shipping sets the flag without touching totals", func(t *testing.T) {
		promos := &mockValidator{rules: map[string]*promo.Rule{
			"SHIPFREE": {Code: "SHIPFREE", Perk: promo.FreeShipping{}},
		}}
		svc := NewService(testCatalog(t), promos, decimal.Zero)

		c, err := svc.UpsertLine(ctx, Empty(), membership.TierNonMember, "roses", catalog.SelectionDozen, 2)
		require.NoError(t, err)
		c, err = svc.ApplyPromo(ctx, c, "SHIPFREE")
		require.NoError(t, err)

		assert.True(t, c.FreeShipping)
		assertDecimal(t, "0", c.Discount)
		assertDecimal(t, "89.90", c.Total)
	})

	t.Run("replacing a promo recomputes without refunding the old use", func(t *testing.T) {
		promos := &mockValidator{rules: map[string]*promo.Rule{
			"WELCOME25": {Code: "WELCOME25", Perk: promo.PercentOff{Percent: decimal.NewFromInt(25)}},
			"NINEOFF":   {Code: "NINEOFF", Perk: promo.FlatOff{Amount: decimal.NewFromInt(9)}},
		}}
		svc := NewService(testCatalog(t), promos, decimal.Zero)

		c, err := svc.UpsertLine(ctx, Empty(), membership.TierNonMember, "roses", catalog.SelectionDozen, 2)
		require.NoError(t, err)
		c, err = svc.ApplyPromo(ctx, c, "WELCOME25")
		require.NoError(t, err)
		c, err = svc.ApplyPromo(ctx, c, "NINEOFF")
		require.NoError(t, err)

		assert.Equal(t, "NINEOFF", c.PromoCode)
		assertDecimal(t, "9", c.Discount)
		assertDecimal(t, "80.90", c.Total)
		// Both validations consumed a use; nothing is given back.
		assert.Equal(t, []string{"WELCOME25", "NINEOFF"}, promos.calls)
	})

	t.Run("rejected code leaves the cart unchanged", func(t *testing.T) {
		promos := &mockValidator{err: promo.ErrExpired}
		svc := NewService(testCatalog(t), promos, decimal.Zero)

		orig, err := NewService(testCatalog(t), &mockValidator{}, decimal.Zero).
			UpsertLine(ctx, Empty(), membership.TierNonMember, "roses", catalog.SelectionDozen, 2)
		require.NoError(t, err)

		c, err := svc.ApplyPromo(ctx, orig, "OLD25")
		require.ErrorIs(t, err, promo.ErrExpired)
		assert.Empty(t, c.PromoCode)
		assertDecimal(t, "89.90", c.Total)
	})
}

func TestService_RemovePromo(t *testing.T) {
	ctx := context.Background()
	promos := &mockValidator{rules: map[string]*promo.Rule{
		"WELCOME25": {Code: "WELCOME25", Perk: promo.PercentOff{Percent: decimal.NewFromInt(25)}},
	}}
	svc := NewService(testCatalog(t), promos, decimal.Zero)

	c, err := svc.UpsertLine(ctx, Empty(), membership.TierNonMember, "roses", catalog.SelectionDozen, 2)
	require.NoError(t, err)
	c, err = svc.ApplyPromo(ctx, c, "WELCOME25")
	require.NoError(t, err)

	c = svc.RemovePromo(c)

	assert.Empty(t, c.PromoCode)
	assert.Nil(t, c.PromoPerk)
	assert.False(t, c.FreeShipping)
	assertDecimal(t, "89.90", c.Subtotal)
	assertDecimal(t, "0", c.Discount)
	assertDecimal(t, "89.90", c.Total)
}

func TestService_ShipDateAndGiftMessage(t *testing.T) {
	svc := NewService(testCatalog(t), &mockValidator{}, decimal.Zero)

	t.Run("ship date set", func(t *testing.T) {
		date := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
		c, err := svc.SetShipDate(Empty(), date)
		require.NoError(t, err)
		assert.Equal(t, date, c.ShipDate)
	})

	t.Run("zero ship date rejected", func(t *testing.T) {
		_, err := svc.SetShipDate(Empty(), time.Time{})
		require.ErrorIs(t, err, ErrEmptyShipDate)
	})

	t.Run("gift message set", func(t *testing.T) {
		c, err := svc.SetGiftMessage(Empty(), "Happy birthday!")
		require.NoError(t, err)
		assert.Equal(t, "Happy birthday!", c.GiftMessage)
	})

	t.Run("empty gift message rejected", func(t *testing.T) {
		_, err := svc.SetGiftMessage(Empty(), "")
		require.ErrorIs(t, err, ErrEmptyGiftMessage)
	})
}

func TestService_TaxRate(t *testing.T) {
	ctx := context.Background()
	svc := NewService(testCatalog(t), &mockValidator{}, mustDecimal(t, "0.1"))

	c, err := svc.UpsertLine(ctx, Empty(), membership.TierNonMember, "coffee", catalog.SelectionOnePound, 2)
	require.NoError(t, err)

	assertDecimal(t, "29.00", c.Subtotal)
	assertDecimal(t, "2.900", c.Tax)
	assertDecimal(t, "31.90", c.Total)
}

func TestFlatPromoNeverDrivesTotalNegative(t *testing.T) {
	ctx := context.Background()
	promos := &mockValidator{rules: map[string]*promo.Rule{
		"BIGOFF": {Code: "BIGOFF", Perk: promo.FlatOff{Amount: decimal.NewFromInt(500)}},
	}}
	svc := NewService(testCatalog(t), promos, decimal.Zero)

	c, err := svc.UpsertLine(ctx, Empty(), membership.TierNonMember, "coffee", catalog.SelectionOnePound, 1)
	require.NoError(t, err)
	c, err = svc.ApplyPromo(ctx, c, "BIGOFF")
	require.NoError(t, err)

	assertDecimal(t, "14.50", c.Discount)
	assertDecimal(t, "0", c.Total)
}
