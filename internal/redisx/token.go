package redisx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenStore shares the provider bearer token across API replicas.
type TokenStore struct {
	rdb *redis.Client
	key string
}

func NewTokenStore(rdb *redis.Client, shortCode string) *TokenStore {
	return &TokenStore{rdb: rdb, key: fmt.Sprintf(KeyMPesaToken, shortCode)}
}

func (s *TokenStore) Get(ctx context.Context) (string, bool, error) {
	tok, err := s.rdb.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return tok, true, nil
}

func (s *TokenStore) Set(ctx context.Context, token string, ttl time.Duration) error {
	return s.rdb.Set(ctx, s.key, token, ttl).Err()
}
