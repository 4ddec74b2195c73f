// Command seed-db loads demo catalog items, promo codes, memberships, and an
// API key into the database.
package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/shopfront/internal/repository"
)

type seedItem struct {
	id       string
	name     string
	category string
	sixPack  string // empty = not sold in that packaging
	dozen    string
	onePound string
}

var items = []seedItem{
	{id: "honeycrisp", name: "Honeycrisp Apples", category: "fruit", sixPack: "8.50", dozen: "15.95", onePound: "3.25"},
	{id: "choc-chip", name: "Chocolate Chip Cookies", category: "bakery", sixPack: "12.00", dozen: "22.50"},
	{id: "glazed-donut", name: "Glazed Donuts", category: "bakery", sixPack: "9.95", dozen: "44.95"},
	{id: "coffee-beans", name: "House Blend Coffee", category: "pantry", onePound: "14.75"},
	{id: "wildflower-honey", name: "Wildflower Honey", category: "pantry", onePound: "11.20"},
}

type seedPromo struct {
	code        string
	perk        string
	maxUses     int
	description string
	expiresIn   time.Duration // 0 = never expires
}

var promos = []seedPromo{
	{code: "WELCOME25", perk: "25_PERCENT_OFF", description: "25% off your first order", expiresIn: 90 * 24 * time.Hour},
	{code: "SAVE15", perk: "15_PERCENT_OFF", description: "15% off", maxUses: 500},
	{code: "NINEOFF", perk: "$9_OFF", description: "$9 off your order", maxUses: 100},
	{code: "SHIPFREE", perk: "FREE_SHIPPING", description: "Free shipping"},
}

type seedMembership struct {
	userID     string
	tier       string
	deliveries int
}

var memberships = []seedMembership{
	{userID: "demo-gold", tier: "gold", deliveries: 2},
	{userID: "demo-platinum", tier: "platinum", deliveries: 5},
	{userID: "demo-diamond", tier: "diamond", deliveries: 12},
}

func main() {
	var (
		databaseURL  string
		apiKey       string
		apiKeyUser   string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&apiKey, "api-key", "", "API key to seed (or SHOP_SEED_API_KEY env)")
	flag.StringVar(&apiKeyUser, "api-key-user", "demo-diamond", "user id the seeded API key resolves to")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or SHOP_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("SHOP_SEED_API_KEY")
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("SHOP_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, apiKey, apiKeyUser, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, apiKey, apiKeyUser, pepper string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedItems(ctx, pool); err != nil {
		return errors.Wrap(err, "seed items")
	}
	if err := seedPromos(ctx, pool); err != nil {
		return errors.Wrap(err, "seed promo codes")
	}
	if err := seedMemberships(ctx, pool); err != nil {
		return errors.Wrap(err, "seed memberships")
	}
	if apiKey != "" {
		if err := seedAPIKey(ctx, pool, apiKey, apiKeyUser, pepper); err != nil {
			return errors.Wrap(err, "seed api key")
		}
	}

	return nil
}

func seedItems(ctx context.Context, pool *pgxpool.Pool) error {
	const sql = `INSERT INTO items (id, name, category, price_six_pack, price_dozen, price_one_pound)
		VALUES ($1, $2, $3, NULLIF($4, '')::numeric, NULLIF($5, '')::numeric, NULLIF($6, '')::numeric)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			category = EXCLUDED.category,
			price_six_pack = EXCLUDED.price_six_pack,
			price_dozen = EXCLUDED.price_dozen,
			price_one_pound = EXCLUDED.price_one_pound`

	for _, it := range items {
		if _, err := pool.Exec(ctx, sql, it.id, it.name, it.category, it.sixPack, it.dozen, it.onePound); err != nil {
			return errors.Wrapf(err, "item %s", it.id)
		}
	}

	slog.Info("items seeded", slog.Int("count", len(items)))
	return nil
}

func seedPromos(ctx context.Context, pool *pgxpool.Pool) error {
	const sql = `INSERT INTO promo_codes (code, perk, expires_at, max_uses, created_by, description)
		VALUES ($1, $2, $3, $4, 'seed', $5)
		ON CONFLICT (code) DO NOTHING`

	for _, p := range promos {
		var expiresAt *time.Time
		if p.expiresIn > 0 {
			t := time.Now().Add(p.expiresIn)
			expiresAt = &t
		}
		if _, err := pool.Exec(ctx, sql, p.code, p.perk, expiresAt, p.maxUses, p.description); err != nil {
			return errors.Wrapf(err, "promo %s", p.code)
		}
	}

	slog.Info("promo codes seeded", slog.Int("count", len(promos)))
	return nil
}

func seedMemberships(ctx context.Context, pool *pgxpool.Pool) error {
	const sql = `INSERT INTO memberships (user_id, tier, expires_at, deliveries_left)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			tier = EXCLUDED.tier,
			expires_at = EXCLUDED.expires_at,
			deliveries_left = EXCLUDED.deliveries_left`

	expiresAt := time.Now().Add(365 * 24 * time.Hour)
	for _, m := range memberships {
		if _, err := pool.Exec(ctx, sql, m.userID, m.tier, expiresAt, m.deliveries); err != nil {
			return errors.Wrapf(err, "membership %s", m.userID)
		}
	}

	slog.Info("memberships seeded", slog.Int("count", len(memberships)))
	return nil
}

func seedAPIKey(ctx context.Context, pool *pgxpool.Pool, apiKey, userID, pepper string) error {
	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(apiKey))
	hash := hex.EncodeToString(mac.Sum(nil))

	const sql = `INSERT INTO api_keys (id, key_hash, user_id, name)
		VALUES ($1, $2, $3, 'seed key')
		ON CONFLICT (key_hash) DO NOTHING`

	if _, err := pool.Exec(ctx, sql, uuid.New().String(), hash, userID); err != nil {
		return errors.Wrap(err, "insert api key")
	}

	slog.Info("api key seeded", slog.String("user", userID))
	return nil
}
