package cart

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/shopfront/internal/domain/catalog"
	"github.com/xenking/shopfront/internal/domain/promo"
)

// Line is a single cart entry. Quantity is always positive: zero-quantity
// lines are removed, never stored. UnitPrice is the tier-adjusted price
// captured when the line was (re)built.
type Line struct {
	ItemID      string
	Selection   catalog.Selection
	DisplayName string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// Subtotal returns UnitPrice * Quantity at full precision.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is an immutable snapshot of an in-progress order. It is never held
// server-side: every mutation takes a value and returns a new value, which
// the handler layer signs into a fresh token. Monetary fields carry full
// precision; rounding to cents happens only at display boundaries.
type Cart struct {
	Lines         []Line
	Subtotal      decimal.Decimal
	Tax           decimal.Decimal
	Discount      decimal.Decimal
	Total         decimal.Decimal
	TotalQuantity int

	// PromoCode and PromoPerk describe the attached promo, if any.
	// The perk rides along in the snapshot so the discount can be
	// recomputed against a changed subtotal without another lookup.
	PromoCode    string
	PromoPerk    promo.Perk
	FreeShipping bool

	ShipDate    time.Time
	GiftMessage string
}

// Empty returns a cart with no lines and all monetary fields zero.
func Empty() Cart {
	return Cart{
		Subtotal: decimal.Zero,
		Tax:      decimal.Zero,
		Discount: decimal.Zero,
		Total:    decimal.Zero,
	}
}

// IsEmpty reports whether the cart has no lines.
func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// findLine returns the index of the line matching item and selection, or -1.
func (c Cart) findLine(itemID string, sel catalog.Selection) int {
	for i, l := range c.Lines {
		if l.ItemID == itemID && l.Selection == sel {
			return i
		}
	}
	return -1
}

// recompute rebuilds every derived field from the lines and the attached
// promo. Total = max(0, subtotal + tax - discount).
func (c Cart) recompute(taxRate decimal.Decimal) Cart {
	subtotal := decimal.Zero
	qty := 0
	for _, l := range c.Lines {
		subtotal = subtotal.Add(l.Subtotal())
		qty += l.Quantity
	}

	c.Subtotal = subtotal
	c.TotalQuantity = qty
	c.Tax = subtotal.Mul(taxRate)

	if c.PromoPerk != nil {
		c.Discount = promo.Discount(c.PromoPerk, subtotal)
	} else {
		c.Discount = decimal.Zero
	}

	total := subtotal.Add(c.Tax).Sub(c.Discount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	c.Total = total

	return c
}

// cloneLines copies the line slice so mutations never alias an older snapshot.
func (c Cart) cloneLines() []Line {
	if len(c.Lines) == 0 {
		return nil
	}
	lines := make([]Line, len(c.Lines))
	copy(lines, c.Lines)
	return lines
}
