package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CodeCache reserves session codes in Redis so that several server
// instances never hand out the same code
type CodeCache interface {
	Reserve(ctx context.Context, code, owner string) (bool, error)
	Owner(ctx context.Context, code string) (string, error)
	Refresh(ctx context.Context, code string) error
	Release(ctx context.Context, code string) error
}

type codeCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCodeCache creates a code cache; reservations expire after ttl
func NewCodeCache(client *redis.Client, ttl time.Duration) CodeCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &codeCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *codeCache) key(code string) string {
	return fmt.Sprintf("session:%s:owner", code)
}

// Reserve claims code for owner and reports whether the claim won
func (c *codeCache) Reserve(ctx context.Context, code, owner string) (bool, error) {
	ok, err := c.client.SetNX(ctx, c.key(code), owner, c.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("reserve code %s: %w", code, err)
	}
	return ok, nil
}

// Owner returns the instance holding code, or "" when unreserved
func (c *codeCache) Owner(ctx context.Context, code string) (string, error) {
	owner, err := c.client.Get(ctx, c.key(code)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return owner, nil
}

func (c *codeCache) Refresh(ctx context.Context, code string) error {
	return c.client.Expire(ctx, c.key(code), c.ttl).Err()
}

func (c *codeCache) Release(ctx context.Context, code string) error {
	return c.client.Del(ctx, c.key(code)).Err()
}
