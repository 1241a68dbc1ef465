// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package card

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is where the card bridge exposes the inserted card.
const DefaultRedisKey = "card:tally"

// RedisCard reads and writes the card through a card-reader bridge that
// mirrors the card contents in a redis key.
type RedisCard struct {
	client redis.UniversalClient
	key    string
}

func NewRedisCard(client redis.UniversalClient, key string) *RedisCard {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisCard{client: client, key: key}
}

func (r *RedisCard) Write(ctx context.Context, data []byte) error {
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", r.key, err)
	}
	return nil
}

func (r *RedisCard) Read(ctx context.Context) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCardEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", r.key, err)
	}
	return data, nil
}

// Ping checks the bridge is reachable.
func (r *RedisCard) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
