package statuscache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/epitome-ke/storefront-checkout/internal/orders"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeWriter struct {
	set []orders.OrderState
	err error
}

func (f *fakeWriter) Set(_ context.Context, s orders.OrderState) error {
	if f.err != nil {
		return f.err
	}
	f.set = append(f.set, s)
	return nil
}

func message(t *testing.T, eventType string, payload any) kafka.Message {
	t.Helper()
	env, err := orders.NewEnvelope(eventType, "test", "", "o-1", payload)
	require.NoError(t, err)
	b, err := json.Marshal(env)
	require.NoError(t, err)
	return kafka.Message{Topic: "t", Value: b}
}

func TestProjector_Handle(t *testing.T) {
	state := orders.OrderState{OrderID: "o-1", OrderNumber: "EE000001AAAA", Status: orders.StatusProcessing, PaymentStatus: orders.PaymentPaid}

	testCases := []struct {
		name    string
		msg     func(t *testing.T) kafka.Message
		wantSet int
	}{
		{
			name: "confirmed",
			msg: func(t *testing.T) kafka.Message {
				return message(t, orders.EventTypePaymentConfirmed, orders.PaymentConfirmedPayload{OrderState: state, Receipt: "R1"})
			},
			wantSet: 1,
		},
		{
			name: "unknown type",
			msg: func(t *testing.T) kafka.Message {
				return message(t, "Something", state)
			},
		},
		{
			name: "garbage",
			msg: func(t *testing.T) kafka.Message {
				return kafka.Message{Value: []byte("{nope")}
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := &fakeWriter{}
			p := &Projector{Cache: w, Log: zaptest.NewLogger(t)}
			require.NoError(t, p.Handle(context.Background(), tc.msg(t)))
			require.Len(t, w.set, tc.wantSet)
			if tc.wantSet > 0 {
				assert.Equal(t, state.OrderNumber, w.set[0].OrderNumber)
				assert.Equal(t, orders.PaymentPaid, w.set[0].PaymentStatus)
			}
		})
	}
}

func TestProjector_CacheErrorRetries(t *testing.T) {
	w := &fakeWriter{err: errors.New("redis down")}
	p := &Projector{Cache: w, Log: zaptest.NewLogger(t)}
	msg := message(t, orders.EventTypeOrderPlaced, orders.OrderPlacedPayload{OrderState: orders.OrderState{OrderID: "o-1"}})
	assert.Error(t, p.Handle(context.Background(), msg))
}

// latestWriter keeps one snapshot per order and applies the same
// replacement rule as Cache.
type latestWriter struct{ m map[string]orders.OrderState }

func (w *latestWriter) Set(_ context.Context, s orders.OrderState) error {
	if cur, ok := w.m[s.OrderID]; ok && !Supersedes(cur, s) {
		return nil
	}
	w.m[s.OrderID] = s
	return nil
}

func TestProjector_OutOfOrderDelivery(t *testing.T) {
	requestedAt := time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)
	requested := orders.OrderState{OrderID: "o-1", OrderNumber: "EE000001AAAA", Status: orders.StatusProcessing, PaymentStatus: orders.PaymentPending, UpdatedAt: requestedAt}
	confirmed := requested
	confirmed.PaymentStatus = orders.PaymentPaid
	confirmed.UpdatedAt = requestedAt.Add(20 * time.Second)

	w := &latestWriter{m: map[string]orders.OrderState{}}
	p := &Projector{Cache: w, Log: zaptest.NewLogger(t)}

	// confirmation overtakes the request: they travel on different topics
	require.NoError(t, p.Handle(context.Background(), message(t, orders.EventTypePaymentConfirmed, orders.PaymentConfirmedPayload{OrderState: confirmed, Receipt: "NLJ7RT61SV"})))
	require.NoError(t, p.Handle(context.Background(), message(t, orders.EventTypePaymentRequested, orders.PaymentRequestedPayload{OrderState: requested, CheckoutRequestID: "ws_CO_1"})))

	assert.Equal(t, orders.PaymentPaid, w.m["o-1"].PaymentStatus)
	assert.Equal(t, confirmed.UpdatedAt, w.m["o-1"].UpdatedAt)
}

func TestSupersedes(t *testing.T) {
	t0 := time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)
	state := func(ps orders.PaymentStatus, at time.Time) orders.OrderState {
		return orders.OrderState{OrderID: "o-1", PaymentStatus: ps, UpdatedAt: at}
	}

	testCases := []struct {
		name string
		cur  orders.OrderState
		next orders.OrderState
		want bool
	}{
		{name: "newer pending", cur: state(orders.PaymentPending, t0), next: state(orders.PaymentPending, t0.Add(time.Second)), want: true},
		{name: "same instant", cur: state(orders.PaymentPending, t0), next: state(orders.PaymentPending, t0), want: true},
		{name: "older pending", cur: state(orders.PaymentPending, t0.Add(time.Second)), next: state(orders.PaymentPending, t0), want: false},
		{name: "paid over pending", cur: state(orders.PaymentPending, t0), next: state(orders.PaymentPaid, t0.Add(time.Second)), want: true},
		{name: "paid over pending despite skewed clock", cur: state(orders.PaymentPending, t0.Add(time.Minute)), next: state(orders.PaymentPaid, t0), want: true},
		{name: "pending never replaces paid", cur: state(orders.PaymentPaid, t0), next: state(orders.PaymentPending, t0.Add(time.Hour)), want: false},
		{name: "pending never replaces failed", cur: state(orders.PaymentFailed, t0), next: state(orders.PaymentPending, t0.Add(time.Hour)), want: false},
		{name: "older terminal", cur: state(orders.PaymentPaid, t0.Add(time.Second)), next: state(orders.PaymentPaid, t0), want: false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Supersedes(tc.cur, tc.next))
		})
	}
}
