package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/nischalstumbeti/contestzen/internal/ports"
	"github.com/redis/go-redis/v9"
)

type RedisMagicLinkStore struct {
	client *redis.Client
}

func NewRedisMagicLinkStore(client *redis.Client) *RedisMagicLinkStore {
	return &RedisMagicLinkStore{client: client}
}

func magicLinkKey(tokenHash string) string { return keyPrefix + "magic:" + tokenHash }

func (s *RedisMagicLinkStore) Put(ctx context.Context, tokenHash string, link ports.MagicLink, ttl time.Duration) error {
	raw, err := json.Marshal(link)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, magicLinkKey(tokenHash), raw, ttl).Err()
}

// Take reads and deletes the link atomically, so a token can only be redeemed once.
func (s *RedisMagicLinkStore) Take(ctx context.Context, tokenHash string) (*ports.MagicLink, error) {
	raw, err := s.client.GetDel(ctx, magicLinkKey(tokenHash)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var out ports.MagicLink
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
