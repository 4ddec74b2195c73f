package promo

import (
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrUnknownPerk is returned when a stored perk string cannot be parsed.
var ErrUnknownPerk = errors.New("unknown perk")

// Perk is the closed set of benefits a promo code can grant. The legacy
// system drove discount math off raw strings like "25_PERCENT_OFF"; here the
// variants are a sealed interface so handling stays exhaustive, and the
// string form survives only at the storage boundary.
type Perk interface {
	fmt.Stringer
	isPerk()
}

// PercentOff takes a percentage off the cart subtotal.
type PercentOff struct {
	Percent decimal.Decimal
}

func (PercentOff) isPerk() {}

func (p PercentOff) String() string {
	return p.Percent.String() + "_PERCENT_OFF"
}

// FlatOff takes a fixed dollar amount off, capped at the subtotal.
type FlatOff struct {
	Amount decimal.Decimal
}

func (FlatOff) isPerk() {}

func (f FlatOff) String() string {
	return "$" + f.Amount.String() + "_OFF"
}

// FreeShipping waives the delivery charge. It does not reduce the subtotal.
type FreeShipping struct{}

func (FreeShipping) isPerk() {}

func (FreeShipping) String() string {
	return "FREE_SHIPPING"
}

// ParsePerk converts a stored perk string ("25_PERCENT_OFF", "$9_OFF",
// "FREE_SHIPPING") into its Perk variant.
func ParsePerk(s string) (Perk, error) {
	switch {
	case s == "FREE_SHIPPING":
		return FreeShipping{}, nil

	case strings.HasSuffix(s, "_PERCENT_OFF"):
		raw := strings.TrimSuffix(s, "_PERCENT_OFF")
		pct, err := decimal.NewFromString(raw)
		if err != nil || pct.IsNegative() {
			return nil, errors.Wrapf(ErrUnknownPerk, "%q", s)
		}
		return PercentOff{Percent: pct}, nil

	case strings.HasPrefix(s, "$") && strings.HasSuffix(s, "_OFF"):
		raw := strings.TrimSuffix(strings.TrimPrefix(s, "$"), "_OFF")
		amount, err := decimal.NewFromString(raw)
		if err != nil || amount.IsNegative() {
			return nil, errors.Wrapf(ErrUnknownPerk, "%q", s)
		}
		return FlatOff{Amount: amount}, nil

	default:
		return nil, errors.Wrapf(ErrUnknownPerk, "%q", s)
	}
}
