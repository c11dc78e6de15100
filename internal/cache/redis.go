package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/flightreserve/config"
	"github.com/redis/go-redis/v9"
)

// RedisCache keeps short-lived session state: revoked token ids and
// failed-login counters.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(cfg config.RedisConfig) *RedisCache {
	return NewRedisCacheWithClient(redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}))
}

func NewRedisCacheWithClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// RevokeSession remembers a token id until the token would have expired anyway.
func (c *RedisCache) RevokeSession(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return c.client.Set(ctx, revokedSessionKey(tokenID), "1", ttl).Err()
}

func (c *RedisCache) IsSessionRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := c.client.Exists(ctx, revokedSessionKey(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RegisterLoginFailure bumps the failure counter; the window starts at the first failure.
// The counter is created with its expiry and incremented in one MULTI, so it
// can never outlive the window.
func (c *RedisCache) RegisterLoginFailure(ctx context.Context, username string, window time.Duration) (int64, error) {
	key := loginFailuresKey(username)
	var incr *redis.IntCmd
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, key, 0, window)
		incr = pipe.Incr(ctx, key)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (c *RedisCache) LoginFailures(ctx context.Context, username string) (int64, error) {
	count, err := c.client.Get(ctx, loginFailuresKey(username)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	return count, nil
}

func (c *RedisCache) ResetLoginFailures(ctx context.Context, username string) error {
	return c.client.Del(ctx, loginFailuresKey(username)).Err()
}

func revokedSessionKey(tokenID string) string {
	return "session:revoked:" + tokenID
}

func loginFailuresKey(username string) string {
	return fmt.Sprintf("login:failures:%s", username)
}
