package redisx

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client wraps the raw connection with the operations the services use.
type Client struct {
	*redis.Client
}

func New(addr string) *Client {
	return &Client{Client: redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})}
}

// SetOnce sets key only if absent; reports whether this call won.
// Used for event dedup in the notifier.
func (c *Client) SetOnce(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return c.SetNX(ctx, key, "1", ttl).Result()
}

// Drop removes key; a missing key is not an error.
func (c *Client) Drop(ctx context.Context, key string) error {
	return c.Del(ctx, key).Err()
}
