package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisSlots struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisSlotRepository keeps slots as plain string keys. A zero ttl keeps
// them until they are deleted.
func NewRedisSlotRepository(client *redis.Client, prefix string, ttl time.Duration) SlotRepository {
	return &redisSlots{client: client, prefix: prefix, ttl: ttl}
}

func (r *redisSlots) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSlotNotFound
		}
		return nil, fmt.Errorf("get slot %s: %w", key, err)
	}
	return data, nil
}

func (r *redisSlots) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, r.prefix+key, value, r.ttl).Err(); err != nil {
		return fmt.Errorf("set slot %s: %w", key, err)
	}
	return nil
}

func (r *redisSlots) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.prefix + k
	}
	if err := r.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("delete slots: %w", err)
	}
	return nil
}

func (r *redisSlots) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
