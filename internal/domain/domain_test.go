package domain

import (
	"errors"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		cfg, err := LoadConfig()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := DefaultConfig()
		if cfg.Server.Port != want.Server.Port {
			t.Errorf("expected port %d, got %d", want.Server.Port, cfg.Server.Port)
		}
		if cfg.Engine.TopN != 10 || cfg.Engine.HistogramBins != 20 {
			t.Errorf("unexpected engine defaults: %+v", cfg.Engine)
		}
		if cfg.Server.SessionTTL != 30*time.Minute {
			t.Errorf("expected 30m session ttl, got %v", cfg.Server.SessionTTL)
		}
	})

	t.Run("Environment", func(t *testing.T) {
		t.Setenv("KESTREL_SOURCE_PATH", "scores.csv")
		t.Setenv("KESTREL_SERVER_PORT", "9090")
		t.Setenv("KESTREL_CACHE_TYPE", "none")
		t.Setenv("KESTREL_ENGINE_TOP_N", "5")

		cfg, err := LoadConfig()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Source.Path != "scores.csv" {
			t.Errorf("expected source path scores.csv, got %s", cfg.Source.Path)
		}
		if cfg.Server.Port != 9090 {
			t.Errorf("expected port 9090, got %d", cfg.Server.Port)
		}
		if cfg.Cache.Type != "none" {
			t.Errorf("expected cache none, got %s", cfg.Cache.Type)
		}
		if cfg.Engine.TopN != 5 {
			t.Errorf("expected top n 5, got %d", cfg.Engine.TopN)
		}
	})

	t.Run("InvalidFormat", func(t *testing.T) {
		t.Setenv("KESTREL_SOURCE_FORMAT", "parquet")
		if _, err := LoadConfig(); err == nil {
			t.Error("expected error for unsupported format")
		}
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"CacheType", func(c *Config) { c.Cache.Type = "memcached" }},
		{"Driver", func(c *Config) { c.Repository.Driver = "mysql" }},
		{"SQLWithoutDriver", func(c *Config) { c.Source.Format = FormatSQL }},
		{"LogFormat", func(c *Config) { c.Logging.Format = "xml" }},
		{"Exporter", func(c *Config) { c.Tracing.ExporterType = "jaeger" }},
		{"Port", func(c *Config) { c.Server.Port = 0 }},
		{"TopN", func(c *Config) { c.Engine.TopN = -1 }},
		{"Bins", func(c *Config) { c.Engine.HistogramBins = 0 }},
	}

	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSelectionKey(t *testing.T) {
	a := Selection{Years: []int{2022, 2021, 2022}, StatementTypes: []string{"Income Statement", "Balance Sheet"}}
	b := Selection{Years: []int{2021, 2022}, StatementTypes: []string{"Balance Sheet", "Income Statement", "Balance Sheet"}}

	if a.Key() != b.Key() {
		t.Errorf("expected equal keys, got %q and %q", a.Key(), b.Key())
	}

	c := Selection{Years: []int{2021}, StatementTypes: []string{"Balance Sheet,Income Statement"}}
	if c.Key() == (Selection{Years: []int{2021}, StatementTypes: []string{"Balance Sheet", "Income Statement"}}).Key() {
		t.Error("expected comma inside a value to produce a distinct key")
	}

	if !(Selection{Years: []int{2021}}).IsEmpty() {
		t.Error("expected selection without statement types to be empty")
	}
}

func TestLoadError(t *testing.T) {
	err := error(&LoadError{Source: "out.xlsx", Row: 3, Column: ColumnMAD, Err: ErrMalformedValue})

	if !errors.Is(err, ErrMalformedValue) {
		t.Error("expected LoadError to unwrap to ErrMalformedValue")
	}
	if !IsLoadError(err) {
		t.Error("expected IsLoadError to match")
	}
	want := `load out.xlsx: row 3, column "MAD": malformed value`
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}

	if IsLoadError(ErrEmptyView) {
		t.Error("ErrEmptyView is not a LoadError")
	}
}

func TestFraudDistributionTotal(t *testing.T) {
	d := FraudDistribution{0: 3, 1: 2}
	if d.Total() != 5 {
		t.Errorf("expected 5, got %d", d.Total())
	}
}
