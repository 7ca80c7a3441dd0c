package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeOrderPlaced      = "OrderPlaced"
	EventTypePaymentRequested = "PaymentRequested"
	EventTypePaymentConfirmed = "PaymentConfirmed"
	EventTypePaymentFailed    = "PaymentFailed"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

func NewEnvelope(eventType, producer, traceID, orderID string, payload any) (Envelope, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		TraceID:       traceID,
		CorrelationID: orderID,
		Payload:       b,
	}, nil
}

// OrderState is carried by every payload so consumers can project the
// latest status without querying the store.
type OrderState struct {
	OrderID       string        `json:"order_id"`
	OrderNumber   string        `json:"order_number"`
	Status        Status        `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

func StateOf(o Order) OrderState {
	return OrderState{
		OrderID:       o.ID,
		OrderNumber:   o.Number,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		UpdatedAt:     o.UpdatedAt,
	}
}

type ItemQty struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id,omitempty"`
	Qty       int    `json:"qty"`
}

type OrderPlacedPayload struct {
	OrderState
	Items      []ItemQty `json:"items"`
	TotalCents int64     `json:"total_cents"`
	Email      string    `json:"email"`
}

type PaymentRequestedPayload struct {
	OrderState
	CheckoutRequestID string `json:"checkout_request_id"`
	AmountCents       int64  `json:"amount_cents"`
}

type PaymentConfirmedPayload struct {
	OrderState
	Receipt     string `json:"receipt"`
	AmountCents int64  `json:"amount_cents"`
}

type PaymentFailedPayload struct {
	OrderState
	ResultCode int    `json:"result_code"`
	Reason     string `json:"reason"`
}

// Publisher delivers lifecycle events. Delivery is best effort: callers log
// failures and carry on, the database stays the source of truth.
type Publisher interface {
	Publish(ctx context.Context, topic string, env Envelope) error
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, Envelope) error { return nil }
