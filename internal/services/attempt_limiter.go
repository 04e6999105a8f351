package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// AttemptLimiter counts failed attempts per key inside a window.
type AttemptLimiter interface {
	Blocked(ctx context.Context, key string) (bool, error)
	Fail(ctx context.Context, key string) (int64, error)
	Reset(ctx context.Context, key string) error
}

type RedisAttemptLimiter struct {
	client      *redis.Client
	maxAttempts int64
	window      time.Duration
	prefix      string
}

func NewRedisAttemptLimiter(client *redis.Client, maxAttempts int, window time.Duration) *RedisAttemptLimiter {
	return &RedisAttemptLimiter{
		client:      client,
		maxAttempts: int64(maxAttempts),
		window:      window,
		prefix:      "ledger:verify:fail:",
	}
}

func (l *RedisAttemptLimiter) Blocked(ctx context.Context, key string) (bool, error) {
	const op = "services.RedisAttemptLimiter.Blocked"

	n, err := l.client.Get(ctx, l.prefix+key).Int64()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n >= l.maxAttempts, nil
}

// Fail records one failure and restarts the window.
func (l *RedisAttemptLimiter) Fail(ctx context.Context, key string) (int64, error) {
	const op = "services.RedisAttemptLimiter.Fail"

	k := l.prefix + key
	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return incr.Val(), nil
}

func (l *RedisAttemptLimiter) Reset(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.prefix+key).Err(); err != nil {
		return fmt.Errorf("services.RedisAttemptLimiter.Reset: %w", err)
	}
	return nil
}

// NoopAttemptLimiter is used when REDIS_ADDR is empty.
type NoopAttemptLimiter struct{}

func (NoopAttemptLimiter) Blocked(context.Context, string) (bool, error) { return false, nil }
func (NoopAttemptLimiter) Fail(context.Context, string) (int64, error)   { return 0, nil }
func (NoopAttemptLimiter) Reset(context.Context, string) error           { return nil }
