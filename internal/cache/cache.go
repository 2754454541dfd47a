package cache

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("key not found in cache")
	ErrInvalidValue = errors.New("invalid value for cache")
	ErrInvalidKey   = errors.New("invalid cache key")
)

// Cache stores values that implement encoding.BinaryMarshaler and reads
// them back into encoding.BinaryUnmarshaler targets
type Cache interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	Get(ctx context.Context, key string, value interface{}) error

	Delete(ctx context.Context, key string) error

	Close() error
}

type Options struct {
	DefaultTTL time.Duration

	RedisURL string

	RedisPassword string

	RedisDB int

	KeyPrefix string
}

func DefaultOptions() Options {
	return Options{
		DefaultTTL: time.Minute,
		KeyPrefix:  "swayam:",
	}
}

// Noop is a Cache that stores nothing. Every Get misses.
type Noop struct{}

func (Noop) Set(context.Context, string, interface{}, time.Duration) error { return nil }

func (Noop) Get(context.Context, string, interface{}) error { return ErrNotFound }

func (Noop) Delete(context.Context, string) error { return nil }

func (Noop) Close() error { return nil }
