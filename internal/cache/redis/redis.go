package redis

import (
	"context"
	"encoding"
	"errors"
	"time"

	"github.com/cuongbtq/swayam-be/internal/cache"
	"github.com/redis/go-redis/v9"
)

type Cache struct {
	client *redis.Client
	opts   cache.Options
}

func New(opts cache.Options) *Cache {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.RedisURL,
		Password: opts.RedisPassword,
		DB:       opts.RedisDB,
	})

	return &Cache{client: client, opts: opts}
}

// Ping checks the redis connection
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Cache) key(key string) (string, error) {
	if key == "" {
		return "", cache.ErrInvalidKey
	}
	return c.opts.KeyPrefix + key, nil
}

func (c *Cache) ttl(ttl time.Duration) time.Duration {
	if ttl == 0 {
		if c.opts.DefaultTTL > 0 {
			return c.opts.DefaultTTL
		}
		return cache.DefaultOptions().DefaultTTL
	}
	return ttl
}

func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	k, err := c.key(key)
	if err != nil {
		return err
	}

	switch value.(type) {
	case string, []byte, encoding.BinaryMarshaler:
	default:
		return cache.ErrInvalidValue
	}

	return c.client.Set(ctx, k, value, c.ttl(ttl)).Err()
}

func (c *Cache) Get(ctx context.Context, key string, value interface{}) error {
	k, err := c.key(key)
	if err != nil {
		return err
	}

	val, err := c.client.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		return cache.ErrNotFound
	}
	if err != nil {
		return err
	}

	switch v := value.(type) {
	case *string:
		*v = string(val)
	case encoding.BinaryUnmarshaler:
		return v.UnmarshalBinary(val)
	default:
		return cache.ErrInvalidValue
	}

	return nil
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	k, err := c.key(key)
	if err != nil {
		return err
	}
	return c.client.Del(ctx, k).Err()
}

func (c *Cache) Close() error {
	return c.client.Close()
}
