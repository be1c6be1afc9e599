package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const idempotencyTTL = 24 * time.Hour

// pending marks a key whose task is still being created.
const pending = 0

// IdempotencyStore remembers which task an Idempotency-Key produced.
// Key format: idem:task:<owner_id>:<key>
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyStore creates an IdempotencyStore wrapping the given Redis client.
func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{client: client, ttl: idempotencyTTL}
}

// Reserve claims key for ownerID with SETNX. When the key is already held it
// returns the stored task id, which is 0 while the first request is in flight.
func (s *IdempotencyStore) Reserve(ctx context.Context, ownerID int64, key string) (int64, bool, error) {
	k := s.key(ownerID, key)
	// One retry covers a key that expired or was released between SETNX and GET.
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := s.client.SetNX(ctx, k, pending, s.ttl).Result()
		if err != nil {
			return 0, false, fmt.Errorf("idempotency reserve: %w", err)
		}
		if ok {
			return 0, true, nil
		}

		val, err := s.client.Get(ctx, k).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return 0, false, fmt.Errorf("idempotency reserve: %w", err)
		}
		id, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return 0, false, fmt.Errorf("idempotency reserve: corrupt value %q: %w", val, err)
		}
		return id, false, nil
	}
	return 0, false, fmt.Errorf("idempotency reserve: key %q kept disappearing", key)
}

// Complete stores the created task id under a reserved key.
func (s *IdempotencyStore) Complete(ctx context.Context, ownerID int64, key string, taskID int64) error {
	if err := s.client.Set(ctx, s.key(ownerID, key), taskID, s.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency complete: %w", err)
	}
	return nil
}

// Release drops a reservation so the key can be retried.
func (s *IdempotencyStore) Release(ctx context.Context, ownerID int64, key string) error {
	if err := s.client.Del(ctx, s.key(ownerID, key)).Err(); err != nil {
		return fmt.Errorf("idempotency release: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) key(ownerID int64, key string) string {
	return fmt.Sprintf("idem:task:%d:%s", ownerID, key)
}
