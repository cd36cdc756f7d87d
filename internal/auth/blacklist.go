package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

func blacklistKey(jti string) string {
	return "blacklist:" + jti
}

// Revoke blacklists jti until expiresAt. A nil client or an already
// expired token is a no-op.
func Revoke(ctx context.Context, rdb *redis.Client, jti string, expiresAt time.Time) error {
	if rdb == nil || jti == "" {
		return nil
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return rdb.Set(ctx, blacklistKey(jti), "1", ttl).Err()
}

// IsRevoked reports whether jti was blacklisted. Redis errors count as not
// revoked so an outage does not sign everyone out.
func IsRevoked(ctx context.Context, rdb *redis.Client, jti string) bool {
	if rdb == nil || jti == "" {
		return false
	}
	n, err := rdb.Exists(ctx, blacklistKey(jti)).Result()
	return err == nil && n > 0
}
