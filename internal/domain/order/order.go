package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/shopfront/internal/domain/cart"
)

// ErrNotFound is returned when a requested order does not exist.
var ErrNotFound = errors.New("order not found")

// Status tracks an order through fulfillment. Only status and tracking
// numbers change after creation; the cart snapshot is frozen.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
)

// Order is a finalized purchase: the cart exactly as it stood when payment
// was confirmed, plus fulfillment state.
type Order struct {
	ID              string
	UserID          string
	Status          Status
	Cart            cart.Cart
	ShippingAddress string
	TrackingNumbers []string
	GiftMessage     string
	PromoCode       string
	Total           decimal.Decimal
	Discount        decimal.Decimal
	CreatedAt       time.Time
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
	AppendTracking(ctx context.Context, id string, trackingNumber string) error
	ListByPromoCode(ctx context.Context, code string) ([]Order, error)
}

// AttributedSales sums the final prices of orders that referenced a promo
// code. Format with StringFixed(2) at the display boundary.
func AttributedSales(orders []Order) decimal.Decimal {
	sum := decimal.Zero
	for _, o := range orders {
		sum = sum.Add(o.Total)
	}
	return sum
}
