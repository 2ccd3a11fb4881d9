// Package rules provides CEL screening expressions and MAD conformity bands
// applied to scored observations.
package rules

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/opensource-finance/kestrel/internal/domain"
)

// ErrScreenNotFound is returned when a screen ID is not loaded.
var ErrScreenNotFound = errors.New("screen not found")

// Predicate reports whether an observation passes a screen.
type Predicate func(domain.Observation) bool

// Engine holds compiled screening expressions.
type Engine struct {
	mu       sync.RWMutex
	env      *cel.Env
	compiled map[string]*CompiledScreen
}

// CompiledScreen holds a pre-compiled CEL program.
type CompiledScreen struct {
	Config  *domain.ScreenConfig
	Program cel.Program
}

// NewEngine creates a screening engine whose expressions may reference
// every observation column.
func NewEngine() (*Engine, error) {
	env, err := cel.NewEnv(
		cel.Variable("year", cel.IntType),
		cel.Variable("statement_type", cel.StringType),
		cel.Variable("mad", cel.DoubleType),
		cel.Variable("chi_square", cel.DoubleType),
		cel.Variable("avg_z_score", cel.DoubleType),
		cel.Variable("anomaly_score", cel.DoubleType),
		cel.Variable("fraud_flag", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Engine{
		env:      env,
		compiled: make(map[string]*CompiledScreen),
	}, nil
}

// ValidateScreen compiles a screen without loading it.
func (e *Engine) ValidateScreen(cfg *domain.ScreenConfig) error {
	if cfg == nil {
		return fmt.Errorf("screen config is required")
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	_, err := e.compile(cfg)
	return err
}

// LoadScreen compiles and loads a screen, replacing any with the same ID.
func (e *Engine) LoadScreen(cfg *domain.ScreenConfig) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	compiled, err := e.compile(cfg)
	if err != nil {
		return err
	}

	e.compiled[cfg.ID] = compiled
	return nil
}

// LoadScreens compiles and loads every enabled screen.
func (e *Engine) LoadScreens(configs []*domain.ScreenConfig) error {
	for _, cfg := range configs {
		if cfg.Enabled {
			if err := e.LoadScreen(cfg); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReloadScreens replaces the loaded set. On error the previous set is kept.
func (e *Engine) ReloadScreens(configs []*domain.ScreenConfig) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := make(map[string]*CompiledScreen)
	for _, cfg := range configs {
		if !cfg.Enabled {
			continue
		}
		compiled, err := e.compile(cfg)
		if err != nil {
			return err
		}
		next[cfg.ID] = compiled
	}

	e.compiled = next
	return nil
}

// RemoveScreen unloads a screen. Unknown IDs are ignored.
func (e *Engine) RemoveScreen(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.compiled, id)
}

// GetLoadedScreens returns the loaded screen configurations ordered by ID.
func (e *Engine) GetLoadedScreens() []*domain.ScreenConfig {
	e.mu.RLock()
	defer e.mu.RUnlock()

	screens := make([]*domain.ScreenConfig, 0, len(e.compiled))
	for _, c := range e.compiled {
		screens = append(screens, c.Config)
	}
	sort.Slice(screens, func(i, j int) bool { return screens[i].ID < screens[j].ID })
	return screens
}

// ScreensCount returns the number of loaded screens.
func (e *Engine) ScreensCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.compiled)
}

// Predicate returns the matcher for a loaded screen together with its
// expression, which callers use to key memoized results.
// An observation that fails to evaluate does not match.
func (e *Engine) Predicate(id string) (Predicate, string, error) {
	e.mu.RLock()
	screen, ok := e.compiled[id]
	e.mu.RUnlock()

	if !ok {
		return nil, "", fmt.Errorf("%w: %s", ErrScreenNotFound, id)
	}

	pred := func(o domain.Observation) bool {
		out, _, err := screen.Program.Eval(o.Fields())
		if err != nil {
			slog.Debug("screen evaluation failed",
				"screen_id", id,
				"seq", o.Seq,
				"error", err,
			)
			return false
		}
		b, ok := out.(types.Bool)
		return ok && bool(b)
	}
	return pred, screen.Config.Expression, nil
}

// Close unloads every screen.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.compiled = make(map[string]*CompiledScreen)
	return nil
}

func (e *Engine) compile(cfg *domain.ScreenConfig) (*CompiledScreen, error) {
	ast, issues := e.env.Compile(cfg.Expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile screen %s: %w", cfg.ID, issues.Err())
	}

	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("screen %s: expression must return bool, got %s", cfg.ID, ast.OutputType())
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create program for screen %s: %w", cfg.ID, err)
	}

	return &CompiledScreen{
		Config:  cfg,
		Program: program,
	}, nil
}
