//go:build integration

package statuscache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/epitome-ke/storefront-checkout/internal/orders"
	"github.com/epitome-ke/storefront-checkout/internal/redisx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"go.uber.org/zap/zaptest"
)

func newCache(t *testing.T) *Cache {
	t.Helper()
	ctx := context.Background()
	c, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	uri, err := c.ConnectionString(ctx)
	require.NoError(t, err)
	rdb := redisx.New(strings.TrimPrefix(uri, "redis://"))
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, redisx.Ping(ctx, rdb))
	return New(rdb)
}

func TestCache_KeepsPaidAgainstLateEvents(t *testing.T) {
	ctx := context.Background()
	cache := newCache(t)
	p := &Projector{Cache: cache, Log: zaptest.NewLogger(t)}

	at := time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)
	placed := orders.OrderState{OrderID: "o-1", OrderNumber: "EE000001AAAA", Status: orders.StatusPending, PaymentStatus: orders.PaymentPending, UpdatedAt: at}
	requested := placed
	requested.Status = orders.StatusProcessing
	requested.UpdatedAt = at.Add(5 * time.Second)
	confirmed := requested
	confirmed.PaymentStatus = orders.PaymentPaid
	confirmed.UpdatedAt = at.Add(30 * time.Second)

	require.NoError(t, p.Handle(ctx, message(t, orders.EventTypePaymentConfirmed, orders.PaymentConfirmedPayload{OrderState: confirmed})))
	require.NoError(t, p.Handle(ctx, message(t, orders.EventTypePaymentRequested, orders.PaymentRequestedPayload{OrderState: requested})))
	require.NoError(t, p.Handle(ctx, message(t, orders.EventTypeOrderPlaced, orders.OrderPlacedPayload{OrderState: placed})))

	for _, ref := range []string{"o-1", "EE000001AAAA"} {
		got, ok, err := cache.Get(ctx, ref)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, orders.PaymentPaid, got.PaymentStatus, ref)
		assert.True(t, confirmed.UpdatedAt.Equal(got.UpdatedAt), ref)
	}
}

func TestCache_NewerSnapshotReplaces(t *testing.T) {
	ctx := context.Background()
	cache := newCache(t)

	at := time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)
	s := orders.OrderState{OrderID: "o-2", OrderNumber: "EE000002BBBB", Status: orders.StatusPending, PaymentStatus: orders.PaymentPending, UpdatedAt: at}
	require.NoError(t, cache.Set(ctx, s))

	s.Status = orders.StatusProcessing
	s.UpdatedAt = at.Add(time.Second)
	require.NoError(t, cache.Set(ctx, s))

	got, ok, err := cache.Get(ctx, "EE000002BBBB")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, orders.StatusProcessing, got.Status)
}
