package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/nischalstumbeti/contestzen/internal/ports"
	"github.com/redis/go-redis/v9"
)

// recordFailureScript increments the failure count and arms the lock in one round trip.
// KEYS[1] lockout hash, ARGV[1] threshold, ARGV[2] locked-until unix seconds, ARGV[3] window ms.
var recordFailureScript = redis.NewScript(`
local n = redis.call('HINCRBY', KEYS[1], 'failed_count', 1)
if n >= tonumber(ARGV[1]) then
  redis.call('HSET', KEYS[1], 'locked_until', ARGV[2])
  redis.call('PEXPIRE', KEYS[1], ARGV[3])
elseif n == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[3])
end
return n
`)

// RedisLockoutStore tracks failed admin logins. The hash expires with the failure window,
// so an idle key resets itself.
type RedisLockoutStore struct {
	client *redis.Client
}

func NewRedisLockoutStore(client *redis.Client) *RedisLockoutStore {
	return &RedisLockoutStore{client: client}
}

func lockoutKey(key string) string { return keyPrefix + "lockout:" + key }

func (s *RedisLockoutStore) Get(ctx context.Context, key string) (ports.LockoutState, error) {
	fields, err := s.client.HMGet(ctx, lockoutKey(key), "failed_count", "locked_until").Result()
	if err != nil {
		return ports.LockoutState{}, err
	}
	var state ports.LockoutState
	if raw, ok := fields[0].(string); ok {
		state.FailedCount, _ = strconv.Atoi(raw)
	}
	if raw, ok := fields[1].(string); ok {
		if unix, convErr := strconv.ParseInt(raw, 10, 64); convErr == nil && unix > 0 {
			until := time.Unix(unix, 0).UTC()
			state.LockedUntil = &until
		}
	}
	return state, nil
}

func (s *RedisLockoutStore) RecordFailure(ctx context.Context, key string, now time.Time, threshold int, lockoutWindow time.Duration) (ports.LockoutState, error) {
	lockedUntil := now.Add(lockoutWindow).UTC()
	count, err := recordFailureScript.Run(ctx, s.client,
		[]string{lockoutKey(key)},
		threshold, lockedUntil.Unix(), lockoutWindow.Milliseconds(),
	).Int()
	if err != nil {
		return ports.LockoutState{}, err
	}
	state := ports.LockoutState{FailedCount: count}
	if count >= threshold {
		state.LockedUntil = &lockedUntil
	}
	return state, nil
}

func (s *RedisLockoutStore) Clear(ctx context.Context, key string) error {
	return s.client.Del(ctx, lockoutKey(key)).Err()
}
