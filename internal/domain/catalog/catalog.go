package catalog

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a requested item does not exist.
	ErrNotFound = errors.New("item not found")
	// ErrSelectionNotApplicable is returned when an item carries no price for
	// the requested packaging. Cart operations treat this as a no-op, not a
	// failure: the cart is left unchanged.
	ErrSelectionNotApplicable = errors.New("selection not applicable")
	// ErrUnknownSelection is returned for packaging values outside the
	// supported set.
	ErrUnknownSelection = errors.New("unknown selection")
)

// Selection identifies the packaging unit an item is priced by.
type Selection string

const (
	SelectionSixPack  Selection = "six_pack"
	SelectionDozen    Selection = "dozen"
	SelectionOnePound Selection = "one_pound"
)

// ParseSelection converts a wire value into a Selection.
func ParseSelection(s string) (Selection, error) {
	switch Selection(s) {
	case SelectionSixPack, SelectionDozen, SelectionOnePound:
		return Selection(s), nil
	default:
		return "", errors.Wrapf(ErrUnknownSelection, "%q", s)
	}
}

// Label returns the human-readable form used in display names.
func (s Selection) Label() string {
	switch s {
	case SelectionSixPack:
		return "six-pack"
	case SelectionDozen:
		return "dozen"
	case SelectionOnePound:
		return "one pound"
	default:
		return string(s)
	}
}

// Item represents a catalog product. Prices holds one entry per packaging the
// item is sold in; a missing entry means that packaging is not applicable.
type Item struct {
	ID       string
	Name     string
	Category string
	Prices   map[Selection]decimal.Decimal
}

// PriceFor resolves the base unit price for the given packaging.
func (i *Item) PriceFor(sel Selection) (decimal.Decimal, error) {
	p, ok := i.Prices[sel]
	if !ok {
		return decimal.Decimal{}, ErrSelectionNotApplicable
	}
	return p, nil
}

// DisplayName renders the name shown on a cart line, e.g. "Honeycrisp (dozen)".
func (i *Item) DisplayName(sel Selection) string {
	return fmt.Sprintf("%s (%s)", i.Name, sel.Label())
}

// Repository defines read operations for the item catalog.
type Repository interface {
	List(ctx context.Context) ([]Item, error)
	GetByID(ctx context.Context, id string) (*Item, error)
}
