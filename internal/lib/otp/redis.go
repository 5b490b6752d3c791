package otp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// redisKeyPrefix namespaces challenge keys in the shared Redis instance.
const redisKeyPrefix = "otp:challenge:"

// redisGrace keeps an expired challenge readable for a while past its TTL
// so verification can classify it as expired (and remove it) instead of
// reporting no challenge. Redis eventually cleans up abandoned entries.
const redisGrace = time.Hour

// RedisStore persists challenges in Redis so they survive process restarts
// and are shared across instances.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing Redis client; the client's lifecycle
// belongs to the server container.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, subjectID string) (*Challenge, error) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+subjectID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading otp challenge")
	}

	var challenge Challenge
	if err := json.Unmarshal(raw, &challenge); err != nil {
		return nil, errors.Wrap(err, "decoding otp challenge")
	}
	return &challenge, nil
}

func (s *RedisStore) Put(ctx context.Context, subjectID string, challenge Challenge) error {
	raw, err := json.Marshal(challenge)
	if err != nil {
		return errors.Wrap(err, "encoding otp challenge")
	}

	ttl := time.Until(challenge.ExpiresAt) + redisGrace
	if err := s.client.Set(ctx, redisKeyPrefix+subjectID, raw, ttl).Err(); err != nil {
		return errors.Wrap(err, "writing otp challenge")
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, subjectID string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+subjectID).Err(); err != nil {
		return errors.Wrap(err, "deleting otp challenge")
	}
	return nil
}
