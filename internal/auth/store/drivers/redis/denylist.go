// Package redis keeps the revoked-token denylist in Redis. Entries expire
// with the token they revoke so the set never needs purging.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/synapse/pkg/cryptox"
	goredis "github.com/redis/go-redis/v9"
)

var ErrUnavailable = errors.New("redis denylist unavailable")

const defaultPrefix = "synapse:revoked:"

type Denylist struct {
	rdb    *goredis.Client
	prefix string
	now    func() time.Time
}

// NewDenylist wraps rdb. An empty prefix uses "synapse:revoked:".
func NewDenylist(rdb *goredis.Client, prefix string) *Denylist {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Denylist{rdb: rdb, prefix: prefix, now: time.Now}
}

// NewClient parses a redis:// URL and returns a connected client.
func NewClient(ctx context.Context, url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := goredis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return rdb, nil
}

func (d *Denylist) key(jti string) string {
	return d.prefix + cryptox.FingerprintToken(jti)
}

// Revoke stores jti until expiresAt. Tokens that already expired need no entry.
func (d *Denylist) Revoke(ctx context.Context, jti, userID string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(d.now())
	if ttl <= 0 {
		return nil
	}
	if err := d.rdb.Set(ctx, d.key(jti), userID, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

func (d *Denylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := d.rdb.Exists(ctx, d.key(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return n > 0, nil
}

func (d *Denylist) Ping(ctx context.Context) error {
	return d.rdb.Ping(ctx).Err()
}
