package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "bloodbank:rl:"

// RedisWindow is a redis-backed fixed-window counter, for deployments where
// several instances must share one admission budget per client. INCR plus a
// create-time EXPIRE keeps check and increment atomic on the server.
type RedisWindow struct {
	client *redis.Client
	limit  int
	window time.Duration
}

// NewRedisWindow creates a redis-backed limiter.
func NewRedisWindow(client *redis.Client, limit int, window time.Duration) *RedisWindow {
	return &RedisWindow{client: client, limit: limit, window: window}
}

func (r *RedisWindow) Admit(ctx context.Context, clientID string) (Result, error) {
	key := redisKeyPrefix + clientID

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, r.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("redis rate limit: %w", err)
	}

	count := int(incr.Val())
	if count > r.limit {
		retryAfter := r.window
		if ttl, err := r.client.TTL(ctx, key).Result(); err == nil && ttl > 0 {
			retryAfter = ttl
		}
		return Result{
			Allowed:    false,
			Limit:      r.limit,
			Remaining:  0,
			ResetAt:    time.Now().Add(retryAfter),
			RetryAfter: retryAfter,
		}, nil
	}

	return Result{
		Allowed:   true,
		Limit:     r.limit,
		Remaining: r.limit - count,
	}, nil
}
