// Package ratelimiter implements the per-IP, per-bucket request limiting
// used to throttle login and registration attempts (C6).
package ratelimiter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ledgerpulse/ledgerpulse/internal/telemetry"
)

// BucketConfig describes a named bucket's capacity and refill window.
type BucketConfig struct {
	Capacity int
	Window   time.Duration
}

// Limiter is a Redis-backed fixed-window counter per (bucket, ip), with an
// in-memory fallback so a Redis outage degrades to per-process limiting
// instead of disabling rate limiting altogether.
type Limiter struct {
	redis    *redis.Client
	logger   *slog.Logger
	buckets  map[string]BucketConfig
	fallback *memoryLimiter
}

// NewLimiter creates a rate limiter with the given named bucket configs, e.g.
//
//	NewLimiter(rdb, logger, map[string]BucketConfig{
//	    "login":    {Capacity: 5, Window: time.Minute},
//	    "register": {Capacity: 3, Window: 10 * time.Minute},
//	})
func NewLimiter(rdb *redis.Client, logger *slog.Logger, buckets map[string]BucketConfig) *Limiter {
	return &Limiter{
		redis:    rdb,
		logger:   logger,
		buckets:  buckets,
		fallback: newMemoryLimiter(),
	}
}

// TryConsume reports whether ip is allowed to consume one unit of the named
// bucket. An unknown bucket name always allows (fail open on misconfiguration
// is preferable to rejecting every request).
func (l *Limiter) TryConsume(ctx context.Context, ip, bucket string) bool {
	cfg, ok := l.buckets[bucket]
	if !ok {
		return true
	}

	allowed, err := l.tryConsumeRedis(ctx, ip, bucket, cfg)
	if err != nil {
		l.logger.Warn("rate limiter redis unavailable, using in-memory fallback", "error", err, "bucket", bucket)
		allowed = l.fallback.tryConsume(ip, bucket, cfg)
	}

	if !allowed {
		telemetry.RateLimitRejectedTotal.WithLabelValues(bucket).Inc()
	}
	return allowed
}

func (l *Limiter) tryConsumeRedis(ctx context.Context, ip, bucket string, cfg BucketConfig) (bool, error) {
	key := fmt.Sprintf("ledgerpulse:ratelimit:%s:%s", bucket, ip)

	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("incrementing rate limit counter: %w", err)
	}

	if count == 1 {
		if err := l.redis.Expire(ctx, key, cfg.Window).Err(); err != nil {
			return false, fmt.Errorf("arming rate limit expiry: %w", err)
		}
	}

	return count <= int64(cfg.Capacity), nil
}

// Reset clears the named bucket's counter for ip (e.g. on successful login).
func (l *Limiter) Reset(ctx context.Context, ip, bucket string) {
	key := fmt.Sprintf("ledgerpulse:ratelimit:%s:%s", bucket, ip)
	if err := l.redis.Del(ctx, key).Err(); err != nil {
		l.logger.Warn("resetting rate limit counter", "error", err, "bucket", bucket)
	}
	l.fallback.reset(ip, bucket)
}

// memoryLimiter is an in-process fixed-window limiter used when Redis is
// unreachable. It does not survive process restarts or scale across
// replicas; that tradeoff is acceptable for a degraded-mode fallback.
type memoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
}

type window struct {
	count     int
	expiresAt time.Time
}

func newMemoryLimiter() *memoryLimiter {
	return &memoryLimiter{windows: make(map[string]*window)}
}

func (m *memoryLimiter) tryConsume(ip, bucket string, cfg BucketConfig) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := bucket + ":" + ip
	now := time.Now()

	w, ok := m.windows[key]
	if !ok || now.After(w.expiresAt) {
		w = &window{count: 0, expiresAt: now.Add(cfg.Window)}
		m.windows[key] = w
	}

	w.count++
	return w.count <= cfg.Capacity
}

func (m *memoryLimiter) reset(ip, bucket string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.windows, bucket+":"+ip)
}
