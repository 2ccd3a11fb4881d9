// Package repository provides data persistence implementations.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/opensource-finance/kestrel/internal/domain"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
)

// SQLRepository implements domain.ObservationRepository using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

// New creates a new repository based on configuration.
func New(cfg domain.RepositoryConfig) (*SQLRepository, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	repo := &SQLRepository{
		db:     db,
		driver: cfg.Driver,
	}

	// Run migrations
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

func (r *SQLRepository) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := r.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// SaveObservations replaces a dataset in a single transaction. Rows are
// stored with their position so ListObservations returns them in order.
func (r *SQLRepository) SaveObservations(ctx context.Context, dataset string, obs []domain.Observation) error {
	if dataset == "" {
		return fmt.Errorf("%w: dataset is required", ErrInvalidInput)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, r.rebind(`DELETE FROM observations WHERE dataset = ?`), dataset); err != nil {
		return fmt.Errorf("failed to clear dataset %s: %w", dataset, err)
	}

	stmt, err := tx.PrepareContext(ctx, r.rebind(`
		INSERT INTO observations (
			dataset, seq, year, statement_type, mad, chi_square,
			avg_z_score, anomaly_score, fraud_flag
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, o := range obs {
		if _, err := stmt.ExecContext(ctx,
			dataset, i, o.Year, o.StatementType,
			o.MAD, o.ChiSquare, o.AvgZScore, o.AnomalyScore, o.FraudFlag,
		); err != nil {
			return fmt.Errorf("failed to insert row %d: %w", i+1, err)
		}
	}

	query := `
		INSERT INTO datasets (name, row_count, imported_at)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			row_count = excluded.row_count,
			imported_at = excluded.imported_at
	`
	if _, err := tx.ExecContext(ctx, r.rebind(query), dataset, len(obs), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to record dataset %s: %w", dataset, err)
	}

	return tx.Commit()
}

// ListObservations returns a dataset's rows in their original order.
// An unknown dataset yields no rows and no error.
func (r *SQLRepository) ListObservations(ctx context.Context, dataset string) ([]domain.Observation, error) {
	if dataset == "" {
		return nil, fmt.Errorf("%w: dataset is required", ErrInvalidInput)
	}

	query := `
		SELECT seq, year, statement_type, mad, chi_square,
			   avg_z_score, anomaly_score, fraud_flag
		FROM observations
		WHERE dataset = ?
		ORDER BY seq
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), dataset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var obs []domain.Observation
	for rows.Next() {
		var o domain.Observation
		if err := rows.Scan(
			&o.Seq, &o.Year, &o.StatementType,
			&o.MAD, &o.ChiSquare, &o.AvgZScore, &o.AnomalyScore, &o.FraudFlag,
		); err != nil {
			return nil, err
		}
		obs = append(obs, o)
	}

	return obs, rows.Err()
}

// ListDatasets returns every stored dataset ordered by name.
func (r *SQLRepository) ListDatasets(ctx context.Context) ([]domain.DatasetInfo, error) {
	query := `
		SELECT name, row_count, imported_at
		FROM datasets
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var datasets []domain.DatasetInfo
	for rows.Next() {
		var d domain.DatasetInfo
		if err := rows.Scan(&d.Name, &d.Rows, &d.ImportedAt); err != nil {
			return nil, err
		}
		datasets = append(datasets, d)
	}

	return datasets, rows.Err()
}

// SaveScreen creates or updates a screening expression.
func (r *SQLRepository) SaveScreen(ctx context.Context, screen *domain.ScreenConfig) error {
	if screen == nil || screen.ID == "" {
		return fmt.Errorf("%w: screen id is required", ErrInvalidInput)
	}

	enabled := 0
	if screen.Enabled {
		enabled = 1
	}

	now := time.Now().UTC()

	query := `
		INSERT INTO screens (
			id, name, description, expression, enabled, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			expression = excluded.expression,
			enabled = excluded.enabled,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		screen.ID, screen.Name, screen.Description, screen.Expression, enabled,
		now, now,
	)
	return err
}

// GetScreen retrieves a screening expression by ID.
func (r *SQLRepository) GetScreen(ctx context.Context, screenID string) (*domain.ScreenConfig, error) {
	query := `
		SELECT id, name, description, expression, enabled
		FROM screens
		WHERE id = ?
	`

	var s domain.ScreenConfig
	var description sql.NullString
	var enabled int

	err := r.db.QueryRowContext(ctx, r.rebind(query), screenID).Scan(
		&s.ID, &s.Name, &description, &s.Expression, &enabled,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	s.Description = description.String
	s.Enabled = enabled == 1
	return &s, nil
}

// ListScreens returns every screening expression, enabled or not, by ID.
func (r *SQLRepository) ListScreens(ctx context.Context) ([]*domain.ScreenConfig, error) {
	query := `
		SELECT id, name, description, expression, enabled
		FROM screens
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var screens []*domain.ScreenConfig
	for rows.Next() {
		var s domain.ScreenConfig
		var description sql.NullString
		var enabled int

		if err := rows.Scan(&s.ID, &s.Name, &description, &s.Expression, &enabled); err != nil {
			return nil, err
		}

		s.Description = description.String
		s.Enabled = enabled == 1
		screens = append(screens, &s)
	}

	return screens, rows.Err()
}

// DeleteScreen removes a screening expression.
func (r *SQLRepository) DeleteScreen(ctx context.Context, screenID string) error {
	result, err := r.db.ExecContext(ctx, r.rebind(`DELETE FROM screens WHERE id = ?`), screenID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// Ping checks database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	var result []byte
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = strconv.AppendInt(result, int64(n), 10)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}
