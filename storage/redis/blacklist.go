// Package redisstore keeps revoked access tokens in Redis until they expire.
package redisstore

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const revokedKeyTpl = "revoked:"

// Connect parses a redis:// URL and checks the server answers.
func Connect(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, errors.Wrap(err, "parsing redis URL")
	}
	client := redis.NewClient(opt)
	if err = client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "connecting to redis")
	}
	return client, nil
}

type TokenBlacklist struct {
	client *redis.Client
}

func NewTokenBlacklist(client *redis.Client) *TokenBlacklist {
	return &TokenBlacklist{client: client}
}

// Revoke blacklists the token ID jti for ttl; ttl should be the remaining lifetime of the token.
func (b *TokenBlacklist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := b.client.Set(ctx, revokedKeyTpl+jti, 1, ttl).Err(); err != nil {
		return errors.Wrap(err, "revoking token")
	}
	return nil
}

func (b *TokenBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := b.client.Exists(ctx, revokedKeyTpl+jti).Result()
	if err != nil {
		return false, errors.Wrap(err, "checking revoked token")
	}
	return n > 0, nil
}

func (b *TokenBlacklist) Close() error {
	return b.client.Close()
}
