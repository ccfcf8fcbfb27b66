package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedTokenPrefix = "revoked:jti:%s"

// RevokedTokenKey is the Redis key marking an access token id as revoked.
func RevokedTokenKey(jti string) string {
	return fmt.Sprintf(revokedTokenPrefix, jti)
}

// TokenRevocationList tracks access tokens that were logged out before their
// natural expiry. Entries expire together with the token they block.
type TokenRevocationList struct {
	rdb *redis.Client
}

// NewTokenRevocationList wraps rdb. A nil client yields a list that never
// reports revocations, which matches running without Redis.
func NewTokenRevocationList(rdb *redis.Client) *TokenRevocationList {
	return &TokenRevocationList{rdb: rdb}
}

// Enabled reports whether revocations are persisted.
func (l *TokenRevocationList) Enabled() bool {
	return l != nil && l.rdb != nil
}

// Revoke blocks jti until ttl elapses. Non-positive ttls are ignored because
// the token is already expired.
func (l *TokenRevocationList) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if !l.Enabled() || jti == "" || ttl <= 0 {
		return nil
	}
	return l.rdb.Set(ctx, RevokedTokenKey(jti), 1, ttl).Err()
}

// IsRevoked reports whether jti was revoked.
func (l *TokenRevocationList) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if !l.Enabled() || jti == "" {
		return false, nil
	}
	err := l.rdb.Get(ctx, RevokedTokenKey(jti)).Err()
	switch {
	case errors.Is(err, redis.Nil):
		return false, nil
	case err != nil:
		return false, err
	default:
		return true, nil
	}
}
