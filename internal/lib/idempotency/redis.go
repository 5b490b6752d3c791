package idempotency

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "idempotency:ref:"

// RedisStore implements Store on Redis SET NX, giving atomic
// insert-if-absent across all instances sharing the Redis deployment.
// Records are kept without expiry: a reference that was ever applied must
// never be re-applied, no matter how late the gateway retries.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) PutIfAbsent(ctx context.Context, externalRef string, state State) (bool, error) {
	inserted, err := s.client.SetNX(ctx, redisKeyPrefix+externalRef, string(state), 0).Result()
	if err != nil {
		return false, errors.Wrap(err, "idempotency setnx")
	}
	return inserted, nil
}

func (s *RedisStore) Get(ctx context.Context, externalRef string) (State, bool, error) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+externalRef).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "idempotency get")
	}
	return State(raw), true, nil
}

func (s *RedisStore) Delete(ctx context.Context, externalRef string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+externalRef).Err(); err != nil {
		return errors.Wrap(err, "idempotency del")
	}
	return nil
}
