package cart

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/shopfront/internal/domain/catalog"
	"github.com/xenking/shopfront/internal/domain/promo"
)

// lineJSON mirrors Line for serialization.
type lineJSON struct {
	ItemID      string          `json:"item_id"`
	Selection   string          `json:"selection"`
	DisplayName string          `json:"display_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// cartJSON mirrors Cart for serialization. The promo perk is stored in its
// string form and parsed back into its tagged variant on load.
type cartJSON struct {
	Lines         []lineJSON      `json:"lines,omitempty"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Tax           decimal.Decimal `json:"tax"`
	Discount      decimal.Decimal `json:"discount"`
	Total         decimal.Decimal `json:"total"`
	TotalQuantity int             `json:"total_quantity"`
	PromoCode     string          `json:"promo_code,omitempty"`
	PromoPerk     string          `json:"promo_perk,omitempty"`
	FreeShipping  bool            `json:"free_shipping,omitempty"`
	ShipDate      *time.Time      `json:"ship_date,omitempty"`
	GiftMessage   string          `json:"gift_message,omitempty"`
}

// MarshalJSON serializes the cart, flattening the perk to its string form.
func (c Cart) MarshalJSON() ([]byte, error) {
	out := cartJSON{
		Subtotal:      c.Subtotal,
		Tax:           c.Tax,
		Discount:      c.Discount,
		Total:         c.Total,
		TotalQuantity: c.TotalQuantity,
		PromoCode:     c.PromoCode,
		FreeShipping:  c.FreeShipping,
		GiftMessage:   c.GiftMessage,
	}
	if c.PromoPerk != nil {
		out.PromoPerk = c.PromoPerk.String()
	}
	if !c.ShipDate.IsZero() {
		d := c.ShipDate
		out.ShipDate = &d
	}
	for _, l := range c.Lines {
		out.Lines = append(out.Lines, lineJSON{
			ItemID:      l.ItemID,
			Selection:   string(l.Selection),
			DisplayName: l.DisplayName,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
		})
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores a cart, parsing the perk string back into its
// variant.
func (c *Cart) UnmarshalJSON(data []byte) error {
	var in cartJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	*c = Cart{
		Subtotal:      in.Subtotal,
		Tax:           in.Tax,
		Discount:      in.Discount,
		Total:         in.Total,
		TotalQuantity: in.TotalQuantity,
		PromoCode:     in.PromoCode,
		FreeShipping:  in.FreeShipping,
		GiftMessage:   in.GiftMessage,
	}
	if in.ShipDate != nil {
		c.ShipDate = *in.ShipDate
	}
	if in.PromoPerk != "" {
		perk, err := promo.ParsePerk(in.PromoPerk)
		if err != nil {
			return err
		}
		c.PromoPerk = perk
	}
	for _, l := range in.Lines {
		c.Lines = append(c.Lines, Line{
			ItemID:      l.ItemID,
			Selection:   catalog.Selection(l.Selection),
			DisplayName: l.DisplayName,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
		})
	}
	return nil
}
