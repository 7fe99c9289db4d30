// Package cache provides short-lived key/value storage used to
// deduplicate repeated gateway notifications before they reach the
// database. The transactional settlement guard remains authoritative.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("key not found")

type Provider interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

type Config struct {
	Provider              string
	RedisConnectionString string
}

func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "memory", "":
		return NewMemoryProvider()
	case "redis":
		return NewRedisProvider(cfg.RedisConnectionString)
	default:
		return nil, fmt.Errorf("unsupported cache provider: %s", cfg.Provider)
	}
}

// NotificationKey namespaces a provider notification identifier for
// deduplication, e.g. a Stripe event ID.
func NotificationKey(source, id string) string {
	return fmt.Sprintf("notification:%s:%s", source, id)
}
