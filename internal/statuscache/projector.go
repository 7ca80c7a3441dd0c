package statuscache

import (
	"context"
	"fmt"

	kafkax "github.com/epitome-ke/storefront-checkout/internal/kafka"
	"github.com/epitome-ke/storefront-checkout/internal/orders"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Projector consumes order lifecycle events and writes the carried state
// into the cache.
type Projector struct {
	Cache Writer
	Log   *zap.Logger
}

func (p *Projector) Handle(ctx context.Context, m kafka.Message) error {
	env, err := kafkax.DecodeEnvelope(m.Value)
	if err != nil {
		// poison message: log and let the offset move on
		p.Log.Error("drop undecodable event", zap.String("topic", m.Topic), zap.Int64("offset", m.Offset), zap.Error(err))
		return nil
	}

	switch env.EventType {
	case orders.EventTypeOrderPlaced, orders.EventTypePaymentRequested,
		orders.EventTypePaymentConfirmed, orders.EventTypePaymentFailed:
	default:
		p.Log.Debug("skip event", zap.String("event_type", env.EventType))
		return nil
	}

	st, err := kafkax.UnwrapPayload[orders.OrderState](env.Payload)
	if err != nil {
		p.Log.Error("drop event with bad payload", zap.String("event_id", env.EventID), zap.Error(err))
		return nil
	}
	if st.OrderID == "" {
		return nil
	}

	if err := p.Cache.Set(ctx, st); err != nil {
		return fmt.Errorf("cache %s: %w", st.OrderID, err)
	}
	p.Log.Debug("status projected",
		zap.String("order_id", st.OrderID),
		zap.String("status", string(st.Status)),
		zap.String("payment_status", string(st.PaymentStatus)))
	return nil
}
