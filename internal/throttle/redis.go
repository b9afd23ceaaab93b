package throttle

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisLimiter is the shared-deployment Limiter. Windows live in Redis
// sorted sets scored by timestamp, so every instance sees the same counts.
// Redis errors fail open: a degraded cache must not take the site down.
type RedisLimiter struct {
	client *redis.Client
	limits Limits
	logger *slog.Logger
	now    func() time.Time
}

// NewRedisLimiter creates a RedisLimiter with the given thresholds.
func NewRedisLimiter(client *redis.Client, limits Limits, logger *slog.Logger) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		limits: limits,
		logger: logger,
		now:    time.Now,
	}
}

func limiterKey(addr string, class Class) string {
	return "rate:" + class.String() + ":" + addr
}

// Admit appends the current time to the address's shared window, prunes
// entries older than the class window, and reports whether the count is
// within the class threshold.
func (l *RedisLimiter) Admit(addr string, class Class) bool {
	limit := l.limits.forClass(class)
	now := l.now()
	key := limiterKey(addr, class)
	cutoff := now.Add(-limit.Window).UnixNano()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	pipe := l.client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: uuid.New().String(),
	})
	pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(cutoff, 10))
	count := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, limit.Window)

	if _, err := pipe.Exec(ctx); err != nil {
		l.logger.Error("redis limiter unavailable, admitting request",
			slog.String("class", class.String()),
			slog.Any("error", err))
		return true
	}

	return int(count.Val()) <= limit.Max
}

// RedisLoginTracker is the shared-deployment LoginTracker.
type RedisLoginTracker struct {
	client *redis.Client
	config LockoutConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewRedisLoginTracker creates a RedisLoginTracker with the given config.
func NewRedisLoginTracker(client *redis.Client, config LockoutConfig, logger *slog.Logger) *RedisLoginTracker {
	return &RedisLoginTracker{
		client: client,
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

func lockoutKey(addr string) string {
	return "lockout:" + addr
}

// RecordFailure appends a failed-login timestamp for the address.
func (t *RedisLoginTracker) RecordFailure(addr string) {
	now := t.now()
	key := lockoutKey(addr)
	cutoff := now.Add(-t.config.Retention).UnixNano()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	pipe := t.client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: uuid.New().String(),
	})
	pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(cutoff, 10))
	pipe.Expire(ctx, key, t.config.Retention)

	if _, err := pipe.Exec(ctx); err != nil {
		t.logger.Error("redis lockout tracker unavailable, failure not recorded",
			slog.Any("error", err))
	}
}

// Blocked reports whether the address has accumulated at least the threshold
// number of failures within the trailing lockout window.
func (t *RedisLoginTracker) Blocked(addr string) bool {
	now := t.now()
	cutoff := now.Add(-t.config.Window).UnixNano()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	count, err := t.client.ZCount(ctx, lockoutKey(addr),
		strconv.FormatInt(cutoff, 10), "+inf").Result()
	if err != nil {
		t.logger.Error("redis lockout tracker unavailable, not blocking",
			slog.Any("error", err))
		return false
	}

	return int(count) >= t.config.Threshold
}
