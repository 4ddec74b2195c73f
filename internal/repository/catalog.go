package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/shopfront/internal/domain/catalog"
)

const (
	listItemsSQL = `SELECT id, name, category, price_six_pack, price_dozen, price_one_pound
		FROM items ORDER BY id`

	getItemByIDSQL = `SELECT id, name, category, price_six_pack, price_dozen, price_one_pound
		FROM items WHERE id = $1`
)

var _ catalog.Repository = (*CatalogRepository)(nil)

// CatalogRepository implements catalog.Repository backed by PostgreSQL.
// Packaging prices live in nullable columns; NULL means the item is not sold
// in that packaging.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository returns a CatalogRepository that uses the given pool.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// List returns all catalog items ordered by ID.
func (r *CatalogRepository) List(ctx context.Context) ([]catalog.Item, error) {
	rows, err := r.pool.Query(ctx, listItemsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	return pgx.CollectRows(rows, scanItem)
}

// GetByID returns a single item by its identifier.
func (r *CatalogRepository) GetByID(ctx context.Context, id string) (*catalog.Item, error) {
	rows, err := r.pool.Query(ctx, getItemByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting item %q: %w", id, err)
	}

	item, err := pgx.CollectExactlyOneRow(rows, scanItem)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("getting item %q: %w", id, err)
	}
	return &item, nil
}

func scanItem(row pgx.CollectableRow) (catalog.Item, error) {
	var (
		item     catalog.Item
		sixPack  *decimal.Decimal
		dozen    *decimal.Decimal
		onePound *decimal.Decimal
	)
	err := row.Scan(&item.ID, &item.Name, &item.Category, &sixPack, &dozen, &onePound)
	if err != nil {
		return item, err
	}

	item.Prices = make(map[catalog.Selection]decimal.Decimal, 3)
	if sixPack != nil {
		item.Prices[catalog.SelectionSixPack] = *sixPack
	}
	if dozen != nil {
		item.Prices[catalog.SelectionDozen] = *dozen
	}
	if onePound != nil {
		item.Prices[catalog.SelectionOnePound] = *onePound
	}
	return item, nil
}
