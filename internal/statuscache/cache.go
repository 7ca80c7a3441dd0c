// Package statuscache keeps a short-lived Redis copy of each order's status
// so payment-status polling does not hit Postgres.
package statuscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/epitome-ke/storefront-checkout/internal/orders"
	"github.com/epitome-ke/storefront-checkout/internal/redisx"
	"github.com/redis/go-redis/v9"
)

// Writer never moves a cached snapshot backwards; see Supersedes.
type Writer interface {
	Set(ctx context.Context, s orders.OrderState) error
}

type Reader interface {
	Get(ctx context.Context, ref string) (orders.OrderState, bool, error)
}

var errDecode = errors.New("decode status snapshot")

// maxSetAttempts bounds optimistic retries when another writer touches the
// same order between WATCH and EXEC.
const maxSetAttempts = 5

// Cache stores each snapshot under both the order id and the order number.
type Cache struct{ rdb *redis.Client }

func New(rdb *redis.Client) *Cache { return &Cache{rdb: rdb} }

func keys(s orders.OrderState) []string {
	out := []string{fmt.Sprintf(redisx.KeyOrderStatus, s.OrderID)}
	if s.OrderNumber != "" {
		out = append(out, fmt.Sprintf(redisx.KeyOrderStatus, s.OrderNumber))
	}
	return out
}

// Supersedes reports whether next may replace cur. A recorded payment
// outcome is never replaced by a pending snapshot, and an older snapshot
// never replaces a newer one. Arrival order carries no meaning.
func Supersedes(cur, next orders.OrderState) bool {
	switch {
	case cur.PaymentStatus.Terminal() && !next.PaymentStatus.Terminal():
		return false
	case next.PaymentStatus.Terminal() && !cur.PaymentStatus.Terminal():
		return true
	}
	return !next.UpdatedAt.Before(cur.UpdatedAt)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func load(ctx context.Context, g getter, key string) (orders.OrderState, bool, error) {
	b, err := g.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return orders.OrderState{}, false, nil
	}
	if err != nil {
		return orders.OrderState{}, false, err
	}
	var s orders.OrderState
	if err := json.Unmarshal(b, &s); err != nil {
		return orders.OrderState{}, false, fmt.Errorf("%w: %v", errDecode, err)
	}
	return s, true, nil
}

func (c *Cache) Get(ctx context.Context, ref string) (orders.OrderState, bool, error) {
	return load(ctx, c.rdb, fmt.Sprintf(redisx.KeyOrderStatus, ref))
}

// Set writes s only when it supersedes the cached snapshot. The check and
// the write run in one WATCH/MULTI transaction.
func (c *Cache) Set(ctx context.Context, s orders.OrderState) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	ks := keys(s)
	write := func(tx *redis.Tx) error {
		cur, ok, err := load(ctx, tx, ks[0])
		if err != nil && !errors.Is(err, errDecode) {
			return err
		}
		if ok && !Supersedes(cur, s) {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, k := range ks {
				pipe.Set(ctx, k, b, redisx.TTLStatusCache)
			}
			return nil
		})
		return err
	}

	for i := 0; i < maxSetAttempts; i++ {
		err = c.rdb.Watch(ctx, write, ks...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return err
}
