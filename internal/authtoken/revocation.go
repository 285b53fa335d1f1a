package authtoken

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationStore tracks revoked token ids (jti) until their natural expiry,
// so logout (C5) takes effect immediately instead of waiting out the TTL.
type RevocationStore interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

const revocationKeyPrefix = "ledgerpulse:revoked-token:"

// RedisRevocationStore stores revoked token ids as Redis keys with a TTL
// matching the token's remaining lifetime, so the set never grows unbounded.
type RedisRevocationStore struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisRevocationStore creates a Redis-backed revocation store.
func NewRedisRevocationStore(client *redis.Client, logger *slog.Logger) *RedisRevocationStore {
	return &RedisRevocationStore{client: client, logger: logger}
}

// Revoke marks jti as revoked until ttl elapses.
func (s *RedisRevocationStore) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, revocationKeyPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}
	return nil
}

// IsRevoked reports whether jti has been revoked. On Redis failure it
// fails open (returns false, logs the error) so a transient outage never
// locks every session out; an attacker still needs a valid signed token.
func (s *RedisRevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.client.Exists(ctx, revocationKeyPrefix+jti).Result()
	if err != nil {
		s.logger.Error("checking token revocation", "error", err, "jti", jti)
		return false, nil
	}
	return n > 0, nil
}

// NoopRevocationStore never revokes anything. Used when Redis is
// unavailable; tokens are then only invalidated by natural expiry.
type NoopRevocationStore struct{}

func (NoopRevocationStore) Revoke(context.Context, string, time.Duration) error { return nil }
func (NoopRevocationStore) IsRevoked(context.Context, string) (bool, error)     { return false, nil }
