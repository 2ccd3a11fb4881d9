package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/rules"
	"github.com/opensource-finance/kestrel/internal/store"
)

// Service composes dashboards, resolving screens through the rules engine
// and memoizing results in a cache when one is configured. Results are
// identical with and without the cache.
type Service struct {
	cache   domain.Cache
	screens *rules.Engine
	cfg     domain.EngineConfig
	ttl     time.Duration
}

// NewService creates a dashboard service. cache and screens may be nil.
func NewService(cache domain.Cache, screens *rules.Engine, cfg domain.EngineConfig, ttl time.Duration) *Service {
	return &Service{
		cache:   cache,
		screens: screens,
		cfg:     cfg,
		ttl:     ttl,
	}
}

// Config returns the engine settings used for composition.
func (s *Service) Config() domain.EngineConfig {
	return s.cfg
}

// View returns the filtered, optionally screened records for a selection.
func (s *Service) View(st *store.Store, sel domain.Selection, screenID string) (View, error) {
	pred, _, err := s.predicate(screenID)
	if err != nil {
		return View{}, err
	}
	return Where(Filter(st, sel), pred), nil
}

// TopRisk returns the n riskiest records for a selection. A negative n
// uses the configured default.
func (s *Service) TopRisk(st *store.Store, sel domain.Selection, screenID string, n int) ([]domain.Observation, error) {
	view, err := s.View(st, sel, screenID)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		n = s.topN()
	}
	return TopRisk(view, n), nil
}

// Dashboard returns the composed dashboard for a selection, from cache
// when possible.
func (s *Service) Dashboard(ctx context.Context, st *store.Store, sel domain.Selection, screenID string) (*domain.Dashboard, error) {
	pred, expr, err := s.predicate(screenID)
	if err != nil {
		return nil, err
	}

	key := s.cacheKey(sel, expr)
	if s.cache != nil {
		cached, err := s.cache.GetDashboard(ctx, st.ID(), key)
		if err != nil {
			slog.Warn("dashboard cache read failed", "dataset", st.ID(), "error", err)
		} else if cached != nil {
			// Equivalent requests share an entry; echo this request's own
			// selection and screen.
			cached.Selection = sel
			cached.Screen = screenID
			return cached, nil
		}
	}

	d := Compose(ctx, st, sel, Options{
		TopN:          s.topN(),
		HistogramBins: s.cfg.HistogramBins,
		Screen:        screenID,
		Predicate:     pred,
	})

	if s.cache != nil {
		if err := s.cache.SetDashboard(ctx, st.ID(), key, d, s.ttl); err != nil {
			slog.Warn("dashboard cache write failed", "dataset", st.ID(), "error", err)
		}
	}
	return d, nil
}

func (s *Service) topN() int {
	if s.cfg.TopN > 0 {
		return s.cfg.TopN
	}
	return DefaultTopN
}

func (s *Service) predicate(screenID string) (rules.Predicate, string, error) {
	if screenID == "" {
		return nil, "", nil
	}
	if s.screens == nil {
		return nil, "", fmt.Errorf("%w: %s", rules.ErrScreenNotFound, screenID)
	}
	return s.screens.Predicate(screenID)
}

// cacheKey covers everything that shapes the result, so a cached entry is
// only ever reused for an identical request. The screen is keyed by its
// expression so an edited screen never serves stale results.
func (s *Service) cacheKey(sel domain.Selection, expr string) string {
	return "dashboard:" + sel.Key() +
		";s=" + strconv.Quote(expr) +
		";n=" + strconv.Itoa(s.topN()) +
		";b=" + strconv.Itoa(s.cfg.HistogramBins)
}
