package events

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/segmentio/kafka-go"

	"github.com/xenking/shopfront/internal/domain/order"
)

// Notifier publishes order notifications to Kafka. It satisfies
// checkout.Notifier; the orchestrator already treats delivery as
// fire-and-forget, so writes here are synchronous and acked.
type Notifier struct {
	w *kafka.Writer
}

// NewNotifier creates a Notifier writing to the given brokers and topic.
func NewNotifier(brokers []string, topic string) *Notifier {
	return &Notifier{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

// OrderConfirmed publishes a notification for a finalized order.
func (n *Notifier) OrderConfirmed(ctx context.Context, o *order.Order) error {
	payload, err := json.Marshal(OrderNotification{
		OrderID:   o.ID,
		UserID:    o.UserID,
		Total:     o.Total,
		PromoCode: o.PromoCode,
		CreatedAt: o.CreatedAt,
	})
	if err != nil {
		return errors.Wrap(err, "marshal notification")
	}

	err = n.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(o.ID),
		Value: payload,
	})
	if err != nil {
		return errors.Wrap(err, "write notification")
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (n *Notifier) Close() error {
	return n.w.Close()
}
