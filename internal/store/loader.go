package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/opensource-finance/kestrel/internal/domain"
)

// Source identifies a tabular dataset.
type Source struct {
	Path    string
	Format  string // auto, xlsx, csv, sql
	Sheet   string
	Dataset string
}

// SourceFromConfig converts the configured source.
func SourceFromConfig(cfg domain.SourceConfig) Source {
	return Source{
		Path:    cfg.Path,
		Format:  cfg.Format,
		Sheet:   cfg.Sheet,
		Dataset: cfg.Dataset,
	}
}

func (s Source) key() string {
	return strings.Join([]string{s.resolvedFormat(), s.Path, s.Sheet, s.Dataset}, "\x00")
}

// String renders the source for logs and errors.
func (s Source) String() string {
	if s.resolvedFormat() == domain.FormatSQL {
		return "sql:" + s.Dataset
	}
	return s.Path
}

func (s Source) resolvedFormat() string {
	if s.Format != "" && s.Format != domain.FormatAuto {
		return s.Format
	}
	switch strings.ToLower(filepath.Ext(s.Path)) {
	case ".xlsx", ".xlsm":
		return domain.FormatXLSX
	case ".csv":
		return domain.FormatCSV
	default:
		return ""
	}
}

// Loader reads sources into stores and keeps each result for the rest of
// the session, so repeated loads of the same source never re-read it.
type Loader struct {
	mu     sync.Mutex
	repo   domain.ObservationRepository
	stores map[string]*Store
}

// NewLoader creates a loader. repo may be nil when no sql source is used.
func NewLoader(repo domain.ObservationRepository) *Loader {
	return &Loader{
		repo:   repo,
		stores: make(map[string]*Store),
	}
}

// Load returns the store for src, reading it on first use only.
// Failures are not cached; a later call retries the read.
func (l *Loader) Load(ctx context.Context, src Source) (*Store, error) {
	key := src.key()

	l.mu.Lock()
	defer l.mu.Unlock()

	if st, ok := l.stores[key]; ok {
		return st, nil
	}

	obs, err := Read(ctx, src, l.repo)
	if err != nil {
		return nil, err
	}

	st := New(src.String(), obs)
	l.stores[key] = st

	slog.Info("record store loaded",
		"source", src.String(),
		"dataset_id", st.ID(),
		"rows", st.Len(),
		"years", len(st.years),
		"statement_types", len(st.statementTypes),
	)
	return st, nil
}

// Read parses src into validated observations without caching.
func Read(ctx context.Context, src Source, repo domain.ObservationRepository) ([]domain.Observation, error) {
	format := src.resolvedFormat()

	if format == domain.FormatSQL {
		return readRepository(ctx, src, repo)
	}

	if src.Path == "" {
		return nil, &domain.LoadError{Source: src.String(), Err: fmt.Errorf("%w: empty path", domain.ErrSourceMissing)}
	}
	if _, err := os.Stat(src.Path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &domain.LoadError{Source: src.Path, Err: domain.ErrSourceMissing}
		}
		return nil, &domain.LoadError{Source: src.Path, Err: fmt.Errorf("%w: %v", domain.ErrSourceUnreadable, err)}
	}

	var table [][]string
	var err error
	switch format {
	case domain.FormatXLSX:
		table, err = readXLSX(src.Path, src.Sheet)
	case domain.FormatCSV:
		table, err = readCSV(src.Path)
	default:
		return nil, &domain.LoadError{Source: src.Path, Err: fmt.Errorf("%w: unknown format %q", domain.ErrSourceUnreadable, src.Format)}
	}
	if err != nil {
		return nil, err
	}

	return decodeTable(src.Path, table)
}

func readRepository(ctx context.Context, src Source, repo domain.ObservationRepository) ([]domain.Observation, error) {
	name := src.String()
	if repo == nil {
		return nil, &domain.LoadError{Source: name, Err: fmt.Errorf("%w: no repository configured", domain.ErrSourceUnreadable)}
	}

	obs, err := repo.ListObservations(ctx, src.Dataset)
	if err != nil {
		return nil, &domain.LoadError{Source: name, Err: fmt.Errorf("%w: %v", domain.ErrSourceUnreadable, err)}
	}
	if len(obs) == 0 {
		return nil, &domain.LoadError{Source: name, Err: fmt.Errorf("%w: dataset %q has no rows", domain.ErrSourceMissing, src.Dataset)}
	}

	for i, o := range obs {
		if col, err := validateObservation(o); err != nil {
			return nil, &domain.LoadError{Source: name, Row: i + 1, Column: col, Err: err}
		}
	}
	return obs, nil
}
