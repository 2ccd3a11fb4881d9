// Kestrel - Benford and Isolation Forest forensic dashboard.
// Copyright (c) 2025 opensource.finance
// Licensed under the Apache License 2.0

// Import tool that copies a scored xlsx or csv dataset into a SQL
// repository, where the server can read it with KESTREL_SOURCE_FORMAT=sql.
//
// Usage:
//
//	go run ./cmd/kestrel-import -source Benford_IsolationForest_Output.xlsx -dataset fy2024 -driver sqlite
//
// This tool:
//  1. Reads and validates the dataset with the same rules the server uses
//  2. Replaces the named dataset in the repository in one transaction
//  3. Reads it back and prints a summary of what was stored
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/engine"
	"github.com/opensource-finance/kestrel/internal/present"
	"github.com/opensource-finance/kestrel/internal/repository"
	"github.com/opensource-finance/kestrel/internal/store"
)

func main() {
	// Parse flags
	source := flag.String("source", "", "Path to the scored xlsx or csv file")
	format := flag.String("format", domain.FormatAuto, "Source format: auto, xlsx or csv")
	sheet := flag.String("sheet", "", "Worksheet name (xlsx only, default first sheet)")
	dataset := flag.String("dataset", "default", "Dataset name to store under")
	driver := flag.String("driver", "sqlite", "Repository driver: sqlite or postgres")
	sqlitePath := flag.String("sqlite-path", "./kestrel.db", "SQLite database file")
	pgHost := flag.String("pg-host", "localhost", "PostgreSQL host")
	pgPort := flag.Int("pg-port", 5432, "PostgreSQL port")
	pgUser := flag.String("pg-user", "", "PostgreSQL user")
	pgPassword := flag.String("pg-password", os.Getenv("KESTREL_REPOSITORY_POSTGRES_PASSWORD"), "PostgreSQL password")
	pgDB := flag.String("pg-db", "kestrel", "PostgreSQL database")
	pgSSLMode := flag.String("pg-sslmode", "", "PostgreSQL sslmode")
	flag.Parse()

	if *source == "" {
		fmt.Println("Usage: kestrel-import -source /path/to/output.xlsx [-dataset default] [-driver sqlite]")
		fmt.Println("\nFlags:")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if *format == domain.FormatSQL {
		fmt.Println("ERROR: -format sql reads from a repository; import needs a file")
		os.Exit(1)
	}

	cfg := domain.RepositoryConfig{
		Driver:           *driver,
		SQLitePath:       *sqlitePath,
		PostgresHost:     *pgHost,
		PostgresPort:     *pgPort,
		PostgresUser:     *pgUser,
		PostgresPassword: *pgPassword,
		PostgresDB:       *pgDB,
		PostgresSSLMode:  *pgSSLMode,
	}
	src := store.Source{Path: *source, Format: *format, Sheet: *sheet}

	if err := run(context.Background(), src, *dataset, cfg); err != nil {
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, src store.Source, dataset string, cfg domain.RepositoryConfig) error {
	fmt.Printf("Source:      %s\n", src)
	fmt.Printf("Dataset:     %s\n", dataset)
	fmt.Printf("Repository:  %s\n", cfg.Driver)
	fmt.Println()

	start := time.Now()
	obs, err := store.Read(ctx, src, nil)
	if err != nil {
		return fmt.Errorf("dataset rejected, nothing imported: %w", err)
	}
	fmt.Printf("✓ Read %d rows in %v\n", len(obs), time.Since(start).Round(time.Millisecond))

	repo, err := repository.New(cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := repo.SaveObservations(ctx, dataset, obs); err != nil {
		return err
	}

	stored, err := repo.ListObservations(ctx, dataset)
	if err != nil {
		return fmt.Errorf("failed to read back dataset: %w", err)
	}
	if len(stored) != len(obs) {
		return fmt.Errorf("read back %d rows, wrote %d", len(stored), len(obs))
	}
	fmt.Printf("✓ Stored %d rows as %q\n", len(stored), dataset)

	printSummary(store.New(dataset, stored))
	return nil
}

func printSummary(st *store.Store) {
	view := engine.All(st)
	dist := engine.FraudDistribution(view)

	fmt.Println()
	fmt.Printf("Years:            %v\n", st.YearDomain())
	fmt.Printf("Statement Types:  %v\n", st.StatementTypeDomain())
	fmt.Printf("Fraud Flags:      %d flagged / %d not flagged\n", dist[1], dist[0])

	summary, err := engine.Summarize(view)
	if err != nil {
		fmt.Println("Dataset is empty.")
		return
	}
	for _, m := range present.Metrics(&summary) {
		fmt.Printf("%-17s %s\n", m.Label+":", m.Value)
	}
	fmt.Println()
}
