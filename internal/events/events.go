// Package events carries the Kafka plumbing: payment confirmations in,
// order notifications out.
package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// Topic names. Partition key is the payment intent (inbound) or order id
// (outbound) so events for one entity stay ordered.
const (
	TopicPaymentsConfirmed  = "payments.confirmed"
	TopicOrderNotifications = "orders.notifications"
)

// PaymentConfirmed is the payment gateway's confirmation signal.
type PaymentConfirmed struct {
	PaymentIntent string          `json:"payment_intent"`
	Amount        decimal.Decimal `json:"amount"`
	ConfirmedAt   time.Time       `json:"confirmed_at"`
}

// OrderNotification is the fire-and-forget message the notification service
// turns into a customer email.
type OrderNotification struct {
	OrderID   string          `json:"order_id"`
	UserID    string          `json:"user_id,omitempty"`
	Total     decimal.Decimal `json:"total"`
	PromoCode string          `json:"promo_code,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
