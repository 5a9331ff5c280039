package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Cmetankaaa/shop-next/internal/port"
)

const cartKeyPrefix = "cart:"

// RedisAdapter keeps one cart value per session under cart:<session>.
// SET replaces the whole value, so a reader never sees a partial write.
type RedisAdapter struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisAdapter returns an adapter whose keys expire after ttl; zero keeps them forever.
func NewRedisAdapter(client *redis.Client, ttl time.Duration) *RedisAdapter {
	return &RedisAdapter{client: client, ttl: ttl}
}

func (r *RedisAdapter) Load(ctx context.Context, sessionID string) ([]byte, error) {
	data, err := r.client.Get(ctx, cartKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (r *RedisAdapter) Save(ctx context.Context, sessionID string, data []byte) error {
	return r.client.Set(ctx, cartKeyPrefix+sessionID, data, r.ttl).Err()
}

func (r *RedisAdapter) Delete(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, cartKeyPrefix+sessionID).Err()
}
