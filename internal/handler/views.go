package handler

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/xenking/shopfront/internal/domain/cart"
)

// lineView is the wire form of a cart line. Monetary values render as
// decimal strings at full precision.
type lineView struct {
	ItemID      string          `json:"item_id"`
	Selection   string          `json:"selection"`
	DisplayName string          `json:"display_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// cartView is the wire form of a cart snapshot.
type cartView struct {
	Lines         []lineView      `json:"lines"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Tax           decimal.Decimal `json:"tax"`
	Discount      decimal.Decimal `json:"discount"`
	Total         decimal.Decimal `json:"total"`
	TotalQuantity int             `json:"total_quantity"`
	PromoCode     string          `json:"promo_code,omitempty"`
	FreeShipping  bool            `json:"free_shipping,omitempty"`
	ShipDate      string          `json:"ship_date,omitempty"`
	GiftMessage   string          `json:"gift_message,omitempty"`
}

// cartResponse pairs the updated cart with its fresh token.
type cartResponse struct {
	Cart  cartView `json:"cart"`
	Token string   `json:"token"`
}

func newCartView(c cart.Cart) cartView {
	v := cartView{
		Lines:         make([]lineView, 0, len(c.Lines)),
		Subtotal:      c.Subtotal,
		Tax:           c.Tax,
		Discount:      c.Discount,
		Total:         c.Total,
		TotalQuantity: c.TotalQuantity,
		PromoCode:     c.PromoCode,
		FreeShipping:  c.FreeShipping,
		GiftMessage:   c.GiftMessage,
	}
	if !c.ShipDate.IsZero() {
		v.ShipDate = c.ShipDate.Format("2006-01-02")
	}
	for _, l := range c.Lines {
		v.Lines = append(v.Lines, lineView{
			ItemID:      l.ItemID,
			Selection:   string(l.Selection),
			DisplayName: l.DisplayName,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
		})
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
