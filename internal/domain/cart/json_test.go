package cart

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/shopfront/internal/domain/catalog"
	"github.com/xenking/shopfront/internal/domain/membership"
	"github.com/xenking/shopfront/internal/domain/promo"
)

func TestCart_JSONRoundTrip(t *testing.T) {
	ctx := context.Background()
	promos := &mockValidator{rules: map[string]*promo.Rule{
		"WELCOME25": {Code: "WELCOME25", Perk: promo.PercentOff{Percent: decimal.NewFromInt(25)}},
	}}
	svc := NewService(testCatalog(t), promos, decimal.Zero)

	c, err := svc.UpsertLine(ctx, Empty(), membership.TierGold, "roses", catalog.SelectionDozen, 2)
	require.NoError(t, err)
	c, err = svc.ApplyPromo(ctx, c, "WELCOME25")
	require.NoError(t, err)
	c, err = svc.SetShipDate(c, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	c, err = svc.SetGiftMessage(c, "Congrats!")
	require.NoError(t, err)

	data, err := json.Marshal(c)
	require.NoError(t, err)

	var got Cart
	require.NoError(t, json.Unmarshal(data, &got))

	require.Len(t, got.Lines, 1)
	assert.Equal(t, c.Lines[0].ItemID, got.Lines[0].ItemID)
	assert.Equal(t, c.Lines[0].Selection, got.Lines[0].Selection)
	assert.True(t, c.Lines[0].UnitPrice.Equal(got.Lines[0].UnitPrice))
	assert.True(t, c.Subtotal.Equal(got.Subtotal))
	assert.True(t, c.Discount.Equal(got.Discount))
	assert.True(t, c.Total.Equal(got.Total))
	assert.Equal(t, c.PromoCode, got.PromoCode)
	assert.Equal(t, c.PromoPerk, got.PromoPerk)
	assert.True(t, c.ShipDate.Equal(got.ShipDate))
	assert.Equal(t, c.GiftMessage, got.GiftMessage)

	// The restored perk still drives discount math.
	assert.True(t, got.Discount.Equal(promo.Discount(got.PromoPerk, got.Subtotal)))
}

func TestCart_UnmarshalRejectsUnknownPerk(t *testing.T) {
	var c Cart
	err := json.Unmarshal([]byte(`{"subtotal":"10","promo_perk":"TWO_FOR_ONE"}`), &c)
	require.ErrorIs(t, err, promo.ErrUnknownPerk)
}

func TestCart_EmptyMarshalOmitsOptionalFields(t *testing.T) {
	data, err := json.Marshal(Empty())
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))

	assert.NotContains(t, raw, "lines")
	assert.NotContains(t, raw, "promo_code")
	assert.NotContains(t, raw, "promo_perk")
	assert.NotContains(t, raw, "ship_date")
	assert.Contains(t, raw, "subtotal")
}
