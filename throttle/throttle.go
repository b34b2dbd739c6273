// Package throttle limits repeated failed logins per phone number.
package throttle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/exceptionzofficial/testing-backend-akshaya/config"

	"github.com/go-redis/redis/v8"
)

// ErrLocked is returned by Check while a phone is over its failure budget.
var ErrLocked = errors.New("too many failed login attempts")

const keyLoginFailures = "login:failures:%s"

// LoginGuard counts failed logins.
type LoginGuard interface {
	Check(ctx context.Context, phone string) error
	RecordFailure(ctx context.Context, phone string) error
	Reset(ctx context.Context, phone string) error
}

// RedisGuard keeps one expiring counter per phone. The window starts at the
// first failure and is not extended by later ones.
type RedisGuard struct {
	client      *redis.Client
	maxAttempts int
	window      time.Duration
}

// NewRedisClient connects and pings the configured Redis server.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func NewRedisGuard(client *redis.Client, cfg config.LoginConfig) *RedisGuard {
	return &RedisGuard{client: client, maxAttempts: cfg.MaxAttempts, window: cfg.Window}
}

func (g *RedisGuard) Check(ctx context.Context, phone string) error {
	n, err := g.client.Get(ctx, fmt.Sprintf(keyLoginFailures, phone)).Int()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read login failures: %w", err)
	}
	if n >= g.maxAttempts {
		return ErrLocked
	}
	return nil
}

func (g *RedisGuard) RecordFailure(ctx context.Context, phone string) error {
	key := fmt.Sprintf(keyLoginFailures, phone)
	n, err := g.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("count login failure: %w", err)
	}
	if n == 1 {
		if err := g.client.Expire(ctx, key, g.window).Err(); err != nil {
			return fmt.Errorf("set login failure window: %w", err)
		}
	}
	return nil
}

func (g *RedisGuard) Reset(ctx context.Context, phone string) error {
	if err := g.client.Del(ctx, fmt.Sprintf(keyLoginFailures, phone)).Err(); err != nil {
		return fmt.Errorf("reset login failures: %w", err)
	}
	return nil
}

// Noop never locks anyone out.
type Noop struct{}

func (Noop) Check(context.Context, string) error         { return nil }
func (Noop) RecordFailure(context.Context, string) error { return nil }
func (Noop) Reset(context.Context, string) error         { return nil }
