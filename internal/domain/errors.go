package domain

import (
	"errors"
	"fmt"
)

// Load failure causes. A *LoadError always unwraps to one of these.
var (
	ErrSourceMissing    = errors.New("source not found")
	ErrSourceUnreadable = errors.New("source unreadable")
	ErrEmptySource      = errors.New("source has no data rows")
	ErrMissingColumn    = errors.New("required column missing")
	ErrMalformedValue   = errors.New("malformed value")
)

// ErrEmptyView is returned by operations that need at least one record,
// such as computing the KPI summary of a Filtered View.
var ErrEmptyView = errors.New("no records match the current filters")

// LoadError reports why a source could not become a Record Store.
// No partial dataset is ever returned alongside it.
type LoadError struct {
	Source string
	Row    int    // sheet row for files (header is row 1), dataset position for SQL; 0 when not row-specific
	Column string // empty when not column-specific
	Err    error
}

func (e *LoadError) Error() string {
	switch {
	case e.Row > 0 && e.Column != "":
		return fmt.Sprintf("load %s: row %d, column %q: %v", e.Source, e.Row, e.Column, e.Err)
	case e.Column != "":
		return fmt.Sprintf("load %s: column %q: %v", e.Source, e.Column, e.Err)
	default:
		return fmt.Sprintf("load %s: %v", e.Source, e.Err)
	}
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// IsLoadError reports whether err is or wraps a *LoadError.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}
