// Package domain defines the core interfaces and types for Kestrel.
package domain

import (
	"context"
	"time"
)

// ObservationRepository persists scored datasets and screening expressions.
// A dataset is replaced as a whole; rows keep their original sequence.
type ObservationRepository interface {
	// Dataset operations
	SaveObservations(ctx context.Context, dataset string, obs []Observation) error
	ListObservations(ctx context.Context, dataset string) ([]Observation, error)
	ListDatasets(ctx context.Context) ([]DatasetInfo, error)

	// Screen configuration operations
	SaveScreen(ctx context.Context, screen *ScreenConfig) error
	GetScreen(ctx context.Context, screenID string) (*ScreenConfig, error)
	ListScreens(ctx context.Context) ([]*ScreenConfig, error)
	DeleteScreen(ctx context.Context, screenID string) error

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// DatasetInfo describes a stored dataset.
type DatasetInfo struct {
	Name       string    `json:"name"`
	Rows       int       `json:"rows"`
	ImportedAt time.Time `json:"importedAt"`
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	// Driver is the database driver: "sqlite" or "postgres". Empty disables it.
	Driver string `envconfig:"DRIVER"`

	// SQLite specific
	SQLitePath string `envconfig:"SQLITE_PATH" default:"./kestrel.db"`

	// PostgreSQL specific
	PostgresHost     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	PostgresPort     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	PostgresUser     string `envconfig:"POSTGRES_USER"`
	PostgresPassword string `envconfig:"POSTGRES_PASSWORD"`
	PostgresDB       string `envconfig:"POSTGRES_DB" default:"kestrel"`
	PostgresSSLMode  string `envconfig:"POSTGRES_SSLMODE"`

	// Connection pool settings
	MaxOpenConns    int           `envconfig:"MAX_OPEN_CONNS"`
	MaxIdleConns    int           `envconfig:"MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `envconfig:"CONN_MAX_LIFETIME"`
}
