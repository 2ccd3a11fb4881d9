package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/opensource-finance/kestrel/internal/domain"
)

func newTestRepo(t *testing.T) *SQLRepository {
	t.Helper()

	cfg := domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "kestrel-test.db"),
	}

	repo, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func sampleObservations() []domain.Observation {
	return []domain.Observation{
		{Year: 2022, StatementType: "Balance Sheet", MAD: 0.0213, ChiSquare: 31.25, AvgZScore: 2.1, AnomalyScore: -0.0412, FraudFlag: 1},
		{Year: 2021, StatementType: "Income Statement", MAD: 0.0041, ChiSquare: 4.5, AvgZScore: 0.3, AnomalyScore: 0.1123456789, FraudFlag: 0},
		{Year: 2021, StatementType: "Balance Sheet", MAD: 0.0087, ChiSquare: 9.75, AvgZScore: 1.05, AnomalyScore: 0.0456, FraudFlag: 0},
	}
}

func TestSQLiteRepository(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	t.Run("Ping", func(t *testing.T) {
		if err := repo.Ping(ctx); err != nil {
			t.Errorf("Ping failed: %v", err)
		}
	})

	t.Run("SaveAndListObservations", func(t *testing.T) {
		obs := sampleObservations()
		if err := repo.SaveObservations(ctx, "fy2022", obs); err != nil {
			t.Fatalf("SaveObservations failed: %v", err)
		}

		retrieved, err := repo.ListObservations(ctx, "fy2022")
		if err != nil {
			t.Fatalf("ListObservations failed: %v", err)
		}

		if len(retrieved) != len(obs) {
			t.Fatalf("expected %d rows, got %d", len(obs), len(retrieved))
		}
		for i, o := range retrieved {
			want := obs[i]
			want.Seq = i
			if o != want {
				t.Errorf("row %d: expected %+v, got %+v", i, want, o)
			}
		}
	})

	t.Run("ReplaceDataset", func(t *testing.T) {
		replacement := sampleObservations()[:1]
		if err := repo.SaveObservations(ctx, "fy2022", replacement); err != nil {
			t.Fatalf("SaveObservations failed: %v", err)
		}

		retrieved, _ := repo.ListObservations(ctx, "fy2022")
		if len(retrieved) != 1 {
			t.Errorf("expected dataset replaced with 1 row, got %d", len(retrieved))
		}
	})

	t.Run("DatasetIsolation", func(t *testing.T) {
		_ = repo.SaveObservations(ctx, "archive", sampleObservations())

		current, _ := repo.ListObservations(ctx, "fy2022")
		archive, _ := repo.ListObservations(ctx, "archive")
		if len(current) != 1 || len(archive) != 3 {
			t.Errorf("expected 1 and 3 rows, got %d and %d", len(current), len(archive))
		}
	})

	t.Run("UnknownDataset", func(t *testing.T) {
		obs, err := repo.ListObservations(ctx, "nonexistent")
		if err != nil {
			t.Fatalf("ListObservations failed: %v", err)
		}
		if len(obs) != 0 {
			t.Errorf("expected no rows, got %d", len(obs))
		}
	})

	t.Run("ListDatasets", func(t *testing.T) {
		datasets, err := repo.ListDatasets(ctx)
		if err != nil {
			t.Fatalf("ListDatasets failed: %v", err)
		}
		if len(datasets) != 2 {
			t.Fatalf("expected 2 datasets, got %d", len(datasets))
		}
		if datasets[0].Name != "archive" || datasets[0].Rows != 3 {
			t.Errorf("unexpected first dataset: %+v", datasets[0])
		}
		if datasets[1].Name != "fy2022" || datasets[1].Rows != 1 {
			t.Errorf("unexpected second dataset: %+v", datasets[1])
		}
		if datasets[0].ImportedAt.IsZero() {
			t.Error("expected import time to be recorded")
		}
	})

	t.Run("RequiresDataset", func(t *testing.T) {
		err := repo.SaveObservations(ctx, "", sampleObservations())
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got: %v", err)
		}

		_, err = repo.ListObservations(ctx, "")
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got: %v", err)
		}
	})
}

func TestScreens(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	screen := &domain.ScreenConfig{
		ID:          "flagged-nonconforming",
		Name:        "Flagged nonconforming",
		Description: "Flagged rows with nonconforming MAD",
		Expression:  "fraud_flag == 1 && mad >= 0.015",
		Enabled:     true,
	}

	t.Run("SaveAndGet", func(t *testing.T) {
		if err := repo.SaveScreen(ctx, screen); err != nil {
			t.Fatalf("SaveScreen failed: %v", err)
		}

		retrieved, err := repo.GetScreen(ctx, screen.ID)
		if err != nil {
			t.Fatalf("GetScreen failed: %v", err)
		}
		if *retrieved != *screen {
			t.Errorf("expected %+v, got %+v", screen, retrieved)
		}
	})

	t.Run("Update", func(t *testing.T) {
		updated := *screen
		updated.Expression = "fraud_flag == 1"
		updated.Enabled = false
		if err := repo.SaveScreen(ctx, &updated); err != nil {
			t.Fatalf("SaveScreen failed: %v", err)
		}

		retrieved, _ := repo.GetScreen(ctx, screen.ID)
		if retrieved.Expression != "fraud_flag == 1" || retrieved.Enabled {
			t.Errorf("expected updated screen, got %+v", retrieved)
		}
	})

	t.Run("List", func(t *testing.T) {
		_ = repo.SaveScreen(ctx, &domain.ScreenConfig{ID: "a-low-score", Name: "Low score", Expression: "anomaly_score < 0.0", Enabled: true})

		screens, err := repo.ListScreens(ctx)
		if err != nil {
			t.Fatalf("ListScreens failed: %v", err)
		}
		if len(screens) != 2 {
			t.Fatalf("expected 2 screens, got %d", len(screens))
		}
		if screens[0].ID != "a-low-score" {
			t.Errorf("expected screens ordered by id, got %s first", screens[0].ID)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := repo.DeleteScreen(ctx, screen.ID); err != nil {
			t.Fatalf("DeleteScreen failed: %v", err)
		}
		if _, err := repo.GetScreen(ctx, screen.ID); err != ErrNotFound {
			t.Errorf("expected ErrNotFound after delete, got: %v", err)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		if err := repo.DeleteScreen(ctx, "nonexistent"); err != ErrNotFound {
			t.Errorf("expected ErrNotFound, got: %v", err)
		}
	})

	t.Run("RequiresID", func(t *testing.T) {
		if err := repo.SaveScreen(ctx, &domain.ScreenConfig{}); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got: %v", err)
		}
	})
}

func TestInMemorySQLite(t *testing.T) {
	repo, err := New(domain.RepositoryConfig{Driver: "sqlite", SQLitePath: ":memory:"})
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	defer repo.Close()

	ctx := context.Background()
	if err := repo.SaveObservations(ctx, "mem", sampleObservations()); err != nil {
		t.Fatalf("SaveObservations failed: %v", err)
	}
	obs, err := repo.ListObservations(ctx, "mem")
	if err != nil || len(obs) != 3 {
		t.Errorf("expected 3 rows, got %d (%v)", len(obs), err)
	}
}

func TestPostgresRepository(t *testing.T) {
	host := os.Getenv("POSTGRES_HOST")
	if host == "" {
		t.Skip("POSTGRES_HOST not set")
	}

	repo, err := New(domain.RepositoryConfig{
		Driver:           "postgres",
		PostgresHost:     host,
		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
	})
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	defer repo.Close()

	ctx := context.Background()
	if err := repo.SaveObservations(ctx, "pg-test", sampleObservations()); err != nil {
		t.Fatalf("SaveObservations failed: %v", err)
	}
	obs, err := repo.ListObservations(ctx, "pg-test")
	if err != nil {
		t.Fatalf("ListObservations failed: %v", err)
	}
	if len(obs) != 3 || obs[1].AnomalyScore != 0.1123456789 {
		t.Errorf("unexpected rows: %+v", obs)
	}
}

func TestUnsupportedDriver(t *testing.T) {
	cfg := domain.RepositoryConfig{
		Driver: "mysql",
	}

	_, err := New(cfg)
	if err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestRebind(t *testing.T) {
	repo := &SQLRepository{driver: "postgres"}

	tests := []struct {
		input    string
		expected string
	}{
		{"SELECT * FROM t WHERE id = ?", "SELECT * FROM t WHERE id = $1"},
		{"INSERT INTO t (a, b) VALUES (?, ?)", "INSERT INTO t (a, b) VALUES ($1, $2)"},
		{"SELECT * FROM t", "SELECT * FROM t"},
	}

	for _, tt := range tests {
		result := repo.rebind(tt.input)
		if result != tt.expected {
			t.Errorf("rebind(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestDSN(t *testing.T) {
	t.Run("PostgresQuoting", func(t *testing.T) {
		dsn := postgresDSN(domain.RepositoryConfig{PostgresUser: "o'brien", PostgresPassword: `a b\c`})
		if !strings.Contains(dsn, `user='o\'brien'`) || !strings.Contains(dsn, `password='a b\\c'`) {
			t.Errorf("unexpected dsn: %s", dsn)
		}
	})

	t.Run("SQLiteFile", func(t *testing.T) {
		dsn := sqliteDSN("/data/kestrel.db")
		if !strings.HasPrefix(dsn, "file:/data/kestrel.db?") || !strings.Contains(dsn, "journal_mode(WAL)") {
			t.Errorf("unexpected dsn: %s", dsn)
		}
	})

	t.Run("SQLiteMemory", func(t *testing.T) {
		if dsn := sqliteDSN(":memory:"); !strings.HasPrefix(dsn, "file::memory:") {
			t.Errorf("unexpected dsn: %s", dsn)
		}
	})

	t.Run("PostgresDefaults", func(t *testing.T) {
		dsn := postgresDSN(domain.RepositoryConfig{PostgresUser: "kestrel"})
		want := "host=localhost port=5432 user='kestrel' password='' dbname='kestrel' sslmode=disable application_name=kestrel"
		if dsn != want {
			t.Errorf("postgresDSN() = %q, want %q", dsn, want)
		}
	})
}
