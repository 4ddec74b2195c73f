package events

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/xenking/shopfront/internal/domain/checkout"
)

// PaymentConsumer reads payment confirmations and hands them to the checkout
// orchestrator. Offsets are committed only after the confirmation was
// processed; duplicate deliveries are harmless because confirmation is
// idempotent by intent id.
type PaymentConsumer struct {
	r  *kafka.Reader
	oc *checkout.Orchestrator
	lg *zap.Logger
}

// NewPaymentConsumer creates a PaymentConsumer on the given brokers/topic.
func NewPaymentConsumer(brokers []string, groupID, topic string, oc *checkout.Orchestrator, lg *zap.Logger) *PaymentConsumer {
	return &PaymentConsumer{
		r: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			GroupID:  groupID,
			Topic:    topic,
			MinBytes: 1,
			MaxBytes: 10e6,
		}),
		oc: oc,
		lg: lg,
	}
}

// Run consumes until ctx is cancelled. Malformed messages and unmatched
// intents are logged and committed since they would never succeed on redelivery.
func (c *PaymentConsumer) Run(ctx context.Context) error {
	defer c.r.Close()

	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "fetch payment event")
		}

		var ev PaymentConfirmed
		if err := json.Unmarshal(m.Value, &ev); err != nil {
			c.lg.Error("Malformed payment event", zap.Error(err))
		} else if _, err := c.oc.ConfirmPayment(ctx, ev.PaymentIntent); err != nil {
			if errors.Is(err, checkout.ErrPendingNotFound) {
				// Recoverable: logged by the orchestrator for reconciliation.
			} else {
				c.lg.Error("Payment confirmation failed",
					zap.String("payment_intent", ev.PaymentIntent), zap.Error(err))
				// Leave the offset uncommitted so the event is retried.
				continue
			}
		}

		if err := c.r.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "commit payment event")
		}
	}
}
