package promo

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscount(t *testing.T) {
	tests := []struct {
		name     string
		perk     Perk
		subtotal string
		want     string
	}{
		{
			name:     "percent off keeps full precision",
			perk:     PercentOff{Percent: decimal.NewFromInt(25)},
			subtotal: "89.90",
			want:     "22.475",
		},
		{
			name:     "percent off on tier adjusted subtotal",
			perk:     PercentOff{Percent: decimal.NewFromInt(15)},
			subtotal: "38.2075",
			want:     "5.731125",
		},
		{
			name:     "flat off below subtotal",
			perk:     FlatOff{Amount: decimal.NewFromInt(9)},
			subtotal: "50.00",
			want:     "9",
		},
		{
			name:     "flat off capped at subtotal",
			perk:     FlatOff{Amount: decimal.NewFromInt(9)},
			subtotal: "4.25",
			want:     "4.25",
		},
		{
			name:     "flat off on empty subtotal",
			perk:     FlatOff{Amount: decimal.NewFromInt(9)},
			subtotal: "0",
			want:     "0",
		},
		{
			name:     "free shipping leaves subtotal untouched",
			perk:     FreeShipping{},
			subtotal: "100.00",
			want:     "0",
		},
		{
			name:     "hundred percent clears subtotal exactly",
			perk:     PercentOff{Percent: decimal.NewFromInt(100)},
			subtotal: "33.33",
			want:     "33.33",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subtotal, err := decimal.NewFromString(tt.subtotal)
			require.NoError(t, err)
			want, err := decimal.NewFromString(tt.want)
			require.NoError(t, err)

			got := Discount(tt.perk, subtotal)
			assert.True(t, want.Equal(got), "want %s, got %s", want, got)
		})
	}
}

func TestDiscount_NeverNegative(t *testing.T) {
	got := Discount(PercentOff{Percent: decimal.NewFromInt(25)}, decimal.NewFromInt(-10))
	assert.True(t, got.Equal(decimal.Zero) || !got.IsNegative())
	assert.False(t, got.IsNegative())
}
