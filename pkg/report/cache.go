package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ledgerpulse/ledgerpulse/internal/telemetry"
)

const cacheKeyPrefix = "ledgerpulse:pnl:"
const cacheTTL = 10 * time.Minute

func cacheKey(companyID, periodKey string) string {
	return cacheKeyPrefix + companyID + ":" + periodKey
}

func scanPattern(companyID string) string {
	return cacheKeyPrefix + companyID + ":*"
}

// Cache is a Redis-backed read-through cache for computed reports, keyed by
// (company_id, period_key). A Redis error degrades every call to a cache
// miss/no-op rather than failing the request — the cache is always
// best-effort, matching alert.Deduplicator's Redis-hot-path-with-fallback
// posture.
type Cache struct {
	client *redis.Client
	logger *slog.Logger
}

// NewCache creates a report Cache.
func NewCache(client *redis.Client, logger *slog.Logger) *Cache {
	return &Cache{client: client, logger: logger}
}

// Get returns the cached report for (companyID, periodKey), if present.
func (c *Cache) Get(ctx context.Context, companyID, periodKey string) (*PnLReport, bool) {
	raw, err := c.client.Get(ctx, cacheKey(companyID, periodKey)).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("report cache lookup failed, treating as miss", "error", err)
		}
		telemetry.ReportCacheTotal.WithLabelValues("miss").Inc()
		return nil, false
	}

	var report PnLReport
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		c.logger.Warn("report cache entry corrupted, treating as miss", "error", err)
		telemetry.ReportCacheTotal.WithLabelValues("miss").Inc()
		return nil, false
	}

	telemetry.ReportCacheTotal.WithLabelValues("hit").Inc()
	return &report, true
}

// Set populates the cache entry for (companyID, periodKey).
func (c *Cache) Set(ctx context.Context, companyID, periodKey string, report *PnLReport) {
	body, err := json.Marshal(report)
	if err != nil {
		c.logger.Warn("marshaling report for cache, skipping", "error", err)
		return
	}
	if err := c.client.Set(ctx, cacheKey(companyID, periodKey), body, cacheTTL).Err(); err != nil {
		c.logger.Warn("failed to populate report cache", "error", err)
	}
}

// EvictCompany drops every cached period for companyID, in one wholesale
// sweep — any ledger write invalidates the entire per-tenant cache rather
// than just the affected period, since a single transaction can shift
// month, quarter, and year totals at once. Implements
// ledger.ReportCache.
func (c *Cache) EvictCompany(ctx context.Context, companyID string) error {
	pattern := scanPattern(companyID)
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("scanning report cache keys for eviction: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("deleting report cache keys: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return nil
}
