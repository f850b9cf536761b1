package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Enabled      bool
	Addr         string
	Password     string
	UsersHashKey string
}

// AuthCache is a login fast path: a redis hash mapping username to the
// sha256 password digest. A hit skips the users-table query on login; a miss
// always falls back to the database, so the cache is best effort only.
type AuthCache struct {
	client       *redis.Client
	usersHashKey string
}

func NewAuthCache(cfg Config) (*AuthCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           0,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &AuthCache{
		client:       rdb,
		usersHashKey: cfg.UsersHashKey,
	}, nil
}

// Lookup reports whether the cached digest for username matches passwordHash.
// A missing entry is a miss, not a failure.
func (c *AuthCache) Lookup(ctx context.Context, username, passwordHash string) (bool, error) {
	stored, err := c.client.HGet(ctx, c.usersHashKey, username).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read auth cache: %w", err)
	}
	return stored == passwordHash, nil
}

// Store records the digest for username after a successful database login.
func (c *AuthCache) Store(ctx context.Context, username, passwordHash string) error {
	if err := c.client.HSet(ctx, c.usersHashKey, username, passwordHash).Err(); err != nil {
		return fmt.Errorf("failed to write auth cache: %w", err)
	}
	return nil
}

// Clear drops every cached digest. Runs after a store reset so deleted
// users cannot keep logging in through the cache.
func (c *AuthCache) Clear(ctx context.Context) error {
	return c.client.Del(ctx, c.usersHashKey).Err()
}

func (c *AuthCache) Close() error {
	return c.client.Close()
}
