package redisx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deduper remembers provider callbacks that were already applied. It is a
// fast path only: the database row lock stays authoritative.
type Deduper struct {
	rdb     *redis.Client
	service string
	ttl     time.Duration
}

func NewDeduper(rdb *redis.Client, service string) *Deduper {
	return &Deduper{rdb: rdb, service: service, ttl: TTLDedup}
}

func (d *Deduper) key(checkoutRequestID string, resultCode int) string {
	return fmt.Sprintf(KeyDedup, d.service, checkoutRequestID, resultCode)
}

func (d *Deduper) Seen(ctx context.Context, checkoutRequestID string, resultCode int) (bool, error) {
	n, err := d.rdb.Exists(ctx, d.key(checkoutRequestID, resultCode)).Result()
	return n > 0, err
}

// Mark records a processed callback. Call it only after the outcome committed.
func (d *Deduper) Mark(ctx context.Context, checkoutRequestID string, resultCode int) error {
	return d.rdb.SetNX(ctx, d.key(checkoutRequestID, resultCode), "1", d.ttl).Err()
}
