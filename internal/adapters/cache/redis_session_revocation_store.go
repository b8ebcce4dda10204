package cache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisSessionRevocationStore remembers logged-out sessions until their tokens lapse.
type RedisSessionRevocationStore struct {
	client *redis.Client
	nowFn  func() time.Time
}

func NewRedisSessionRevocationStore(client *redis.Client) *RedisSessionRevocationStore {
	return &RedisSessionRevocationStore{client: client, nowFn: time.Now}
}

func revokedKey(id uuid.UUID) string { return keyPrefix + "revoked:" + id.String() }

// MarkRevoked is a no-op for tokens that have already expired.
func (s *RedisSessionRevocationStore) MarkRevoked(ctx context.Context, sessionID uuid.UUID, expiresAt time.Time) error {
	now := s.nowFn()
	if !expiresAt.After(now) {
		return nil
	}
	return s.client.SetArgs(ctx, revokedKey(sessionID), now.UTC().Format(time.RFC3339), redis.SetArgs{
		ExpireAt: expiresAt,
	}).Err()
}

func (s *RedisSessionRevocationStore) IsRevoked(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	err := s.client.Get(ctx, revokedKey(sessionID)).Err()
	switch {
	case errors.Is(err, redis.Nil):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}
