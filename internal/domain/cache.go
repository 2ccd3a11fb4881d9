package domain

import (
	"context"
	"time"
)

// Cache memoizes composed dashboards. Entries are namespaced by dataset ID
// so two stores never share results. A miss is not an error.
type Cache interface {
	// Get retrieves a value from cache.
	// Returns nil, nil if key not found.
	Get(ctx context.Context, namespace string, key string) ([]byte, error)

	// Set stores a value in cache with expiration.
	Set(ctx context.Context, namespace string, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from cache.
	Delete(ctx context.Context, namespace string, key string) error

	// GetDashboard retrieves a cached dashboard for a selection key.
	GetDashboard(ctx context.Context, namespace string, key string) (*Dashboard, error)

	// SetDashboard caches a composed dashboard.
	SetDashboard(ctx context.Context, namespace string, key string, d *Dashboard, ttl time.Duration) error

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// CacheConfig holds configuration for cache initialization.
type CacheConfig struct {
	// Type is the cache type: "none", "memory" or "redis"
	Type string `envconfig:"TYPE" default:"memory"`

	// Local LRU cache settings
	LocalMaxSize int           `envconfig:"LOCAL_MAX_SIZE" default:"1000"`
	LocalTTL     time.Duration `envconfig:"LOCAL_TTL" default:"5m"`

	// Redis settings
	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB"`

	// Two-phase settings
	EnableTwoPhase bool `envconfig:"TWO_PHASE" default:"false"` // If true, check local first, then Redis
}
