package promo

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Discount computes the dollar amount the perk takes off the given subtotal.
// The subtotal is the membership-priced cart subtotal before the promo is
// applied. The result is never negative and never exceeds the subtotal, and
// is kept at full precision: rounding to cents happens only at display
// boundaries.
func Discount(perk Perk, subtotal decimal.Decimal) decimal.Decimal {
	switch p := perk.(type) {
	case PercentOff:
		return floorAtZero(subtotal.Mul(p.Percent).Div(hundred))
	case FlatOff:
		return floorAtZero(decimal.Min(p.Amount, subtotal))
	case FreeShipping:
		// Waives delivery, leaves the subtotal untouched.
		return decimal.Zero
	default:
		return decimal.Zero
	}
}

func floorAtZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
