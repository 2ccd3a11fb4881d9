// Package worker warms the dashboard cache in the background so the first
// requests for common selections are served from memory.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/engine"
	"github.com/opensource-finance/kestrel/internal/store"
)

// Composer is the part of engine.Service the warmer drives.
type Composer interface {
	Dashboard(ctx context.Context, st *store.Store, sel domain.Selection, screenID string) (*domain.Dashboard, error)
}

var _ Composer = (*engine.Service)(nil)

// Warmer composes dashboards for a fixed set of selections with a bounded
// pool of goroutines.
type Warmer struct {
	composer Composer
	store    *store.Store

	warmed atomic.Int64
	failed atomic.Int64
	queued atomic.Int64

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// Config holds warmer configuration.
type Config struct {
	// WorkerCount is the number of concurrent compositions.
	WorkerCount int
}

// NewWarmer creates a cache warmer for a store.
func NewWarmer(composer Composer, st *store.Store) *Warmer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Warmer{
		composer: composer,
		store:    st,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Selections returns what the warmer composes: the full selection, then
// each single Year across every Statement Type.
func Selections(st *store.Store) []domain.Selection {
	types := st.StatementTypeDomain()
	years := st.YearDomain()

	out := make([]domain.Selection, 0, len(years)+1)
	out = append(out, st.FullSelection())
	for _, y := range years {
		out = append(out, domain.Selection{Years: []int{y}, StatementTypes: types})
	}
	return out
}

// Start launches the workers and returns immediately. Call Wait or Stop to
// join them.
func (w *Warmer) Start(cfg Config) {
	workers := cfg.WorkerCount
	if workers <= 0 {
		workers = 1
	}

	selections := Selections(w.store)
	w.queued.Store(int64(len(selections)))

	work := make(chan domain.Selection)
	start := time.Now()

	for i := 0; i < workers; i++ {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			for sel := range work {
				w.warm(sel)
			}
		}()
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer close(work)
		for _, sel := range selections {
			select {
			case work <- sel:
			case <-w.ctx.Done():
				return
			}
		}
	}()

	go func() {
		w.wg.Wait()
		slog.Info("cache warmup finished",
			"dataset", w.store.ID(),
			"warmed", w.warmed.Load(),
			"failed", w.failed.Load(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}()

	slog.Info("cache warmup started",
		"dataset", w.store.ID(),
		"selections", len(selections),
		"workers", workers,
	)
}

func (w *Warmer) warm(sel domain.Selection) {
	if w.ctx.Err() != nil {
		return
	}
	if _, err := w.composer.Dashboard(w.ctx, w.store, sel, ""); err != nil {
		w.failed.Add(1)
		slog.Warn("cache warmup failed",
			"selection", sel.Key(),
			"error", err,
		)
		return
	}
	w.warmed.Add(1)
}

// Wait blocks until every queued selection is processed or the warmer is
// stopped.
func (w *Warmer) Wait() {
	w.wg.Wait()
}

// Stop cancels outstanding work and waits for the workers to exit.
func (w *Warmer) Stop() error {
	w.cancel()
	w.wg.Wait()
	return nil
}

// Stats reports warmer progress.
type Stats struct {
	Queued int64 `json:"queued"`
	Warmed int64 `json:"warmed"`
	Failed int64 `json:"failed"`
}

// GetStats returns current warmer statistics.
func (w *Warmer) GetStats() Stats {
	return Stats{
		Queued: w.queued.Load(),
		Warmed: w.warmed.Load(),
		Failed: w.failed.Load(),
	}
}
