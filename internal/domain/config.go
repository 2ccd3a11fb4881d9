package domain

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment variable read by LoadConfig.
const EnvPrefix = "KESTREL"

// Config holds the complete Kestrel configuration.
type Config struct {
	// Server settings
	Server ServerConfig `json:"server" envconfig:"SERVER"`

	// Source is the dataset read once at session start.
	Source SourceConfig `json:"source" envconfig:"SOURCE"`

	// Component configurations
	Repository RepositoryConfig `json:"repository" envconfig:"REPOSITORY"`
	Cache      CacheConfig      `json:"cache" envconfig:"CACHE"`
	Engine     EngineConfig     `json:"engine" envconfig:"ENGINE"`
	Warmup     WarmupConfig     `json:"warmup" envconfig:"WARMUP"`

	// Observability
	Logging LoggingConfig `json:"logging" envconfig:"LOGGING"`
	Tracing TracingConfig `json:"tracing" envconfig:"TRACING"`
	Metrics MetricsConfig `json:"metrics" envconfig:"METRICS"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string `json:"host" envconfig:"HOST" default:"0.0.0.0"`
	Port         int    `json:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout  int    `json:"readTimeout" envconfig:"READ_TIMEOUT" default:"30"`   // seconds
	WriteTimeout int    `json:"writeTimeout" envconfig:"WRITE_TIMEOUT" default:"30"` // seconds

	// SessionTTL expires sessions idle for longer. Zero keeps them forever.
	SessionTTL time.Duration `json:"sessionTtl" envconfig:"SESSION_TTL" default:"30m"`
}

// Source formats understood by the store loader.
const (
	FormatAuto = "auto"
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
	FormatSQL  = "sql" // read from the configured repository
)

// SourceConfig describes where the scored dataset lives.
type SourceConfig struct {
	// Path is the xlsx or csv file. Unused for the sql format.
	Path string `json:"path" envconfig:"PATH" default:"Benford_IsolationForest_Output.xlsx"`

	// Format is auto, xlsx, csv or sql. Auto picks by extension.
	Format string `json:"format" envconfig:"FORMAT" default:"auto"`

	// Sheet selects a worksheet; empty means the first sheet.
	Sheet string `json:"sheet" envconfig:"SHEET"`

	// Dataset names the stored dataset for the sql format.
	Dataset string `json:"dataset" envconfig:"DATASET" default:"default"`
}

// EngineConfig holds presentation-independent engine defaults.
type EngineConfig struct {
	TopN          int `json:"topN" envconfig:"TOP_N" default:"10"`
	HistogramBins int `json:"histogramBins" envconfig:"HISTOGRAM_BINS" default:"20"`
}

// WarmupConfig controls the startup cache warmer.
type WarmupConfig struct {
	Enabled bool `json:"enabled" envconfig:"ENABLED" default:"false"`
	Workers int  `json:"workers" envconfig:"WORKERS" default:"4"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `json:"level" envconfig:"LEVEL" default:"info"`   // debug, info, warn, error
	Format string `json:"format" envconfig:"FORMAT" default:"json"` // json, text
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled      bool   `json:"enabled" envconfig:"ENABLED" default:"false"`
	ServiceName  string `json:"serviceName" envconfig:"SERVICE_NAME" default:"kestrel"`
	ExporterType string `json:"exporterType" envconfig:"EXPORTER" default:"stdout"` // stdout, none
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `json:"enabled" envconfig:"ENABLED" default:"true"`
}

// DefaultConfig returns the configuration used when no environment is set.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30,
			WriteTimeout: 30,
			SessionTTL:   30 * time.Minute,
		},
		Source: SourceConfig{
			Path:    "Benford_IsolationForest_Output.xlsx",
			Format:  FormatAuto,
			Dataset: "default",
		},
		Repository: RepositoryConfig{
			SQLitePath:   "./kestrel.db",
			PostgresHost: "localhost",
			PostgresPort: 5432,
			PostgresDB:   "kestrel",
		},
		Cache: CacheConfig{
			Type:         "memory",
			LocalMaxSize: 1000,
			LocalTTL:     5 * time.Minute,
		},
		Engine: EngineConfig{
			TopN:          10,
			HistogramBins: 20,
		},
		Warmup: WarmupConfig{
			Workers: 4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			ServiceName:  "kestrel",
			ExporterType: "stdout",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// LoadConfig reads KESTREL_* environment variables over the defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate rejects unknown enum values and impossible sizes.
func (c *Config) Validate() error {
	switch c.Source.Format {
	case FormatAuto, FormatXLSX, FormatCSV, FormatSQL:
	default:
		return fmt.Errorf("unsupported source format: %s", c.Source.Format)
	}
	switch c.Cache.Type {
	case "none", "memory", "redis":
	default:
		return fmt.Errorf("unsupported cache type: %s", c.Cache.Type)
	}
	switch c.Repository.Driver {
	case "", "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported repository driver: %s", c.Repository.Driver)
	}
	if c.Source.Format == FormatSQL && c.Repository.Driver == "" {
		return fmt.Errorf("source format sql requires a repository driver")
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("unsupported log format: %s", c.Logging.Format)
	}
	switch c.Tracing.ExporterType {
	case "stdout", "none":
	default:
		return fmt.Errorf("unsupported trace exporter: %s", c.Tracing.ExporterType)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Engine.TopN < 0 {
		return fmt.Errorf("engine top_n must not be negative")
	}
	if c.Engine.HistogramBins <= 0 {
		return fmt.Errorf("engine histogram_bins must be positive")
	}
	return nil
}
