package sale

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"mintgate/pkg/platform/sentinel"
)

// refTTL keeps idempotency keys from accumulating forever. A reference older
// than this may be replayed; clients retrying a payment after a day are
// treated as new payments.
const refTTL = 24 * time.Hour

// RedisIdempotencyStore fences payment references across replicas with SETNX.
type RedisIdempotencyStore struct {
	client *redis.Client
	prefix string
}

func NewRedisIdempotencyStore(client *redis.Client) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client, prefix: "mintgate:payment-ref:"}
}

func (s *RedisIdempotencyStore) Reserve(ctx context.Context, ref string) error {
	ok, err := s.client.SetNX(ctx, s.prefix+ref, 1, refTTL).Result()
	if err != nil {
		return fmt.Errorf("reserve payment ref: %w", err)
	}
	if !ok {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *RedisIdempotencyStore) Release(ctx context.Context, ref string) error {
	if err := s.client.Del(ctx, s.prefix+ref).Err(); err != nil {
		return fmt.Errorf("release payment ref: %w", err)
	}
	return nil
}
