package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/engine"
	"github.com/opensource-finance/kestrel/internal/present"
	"github.com/opensource-finance/kestrel/internal/rules"
	"github.com/opensource-finance/kestrel/internal/session"
	"github.com/opensource-finance/kestrel/internal/store"
)

// Deps are the collaborators served over HTTP. Repo, Cache and Metrics may
// be nil.
type Deps struct {
	Store    *store.Store
	Service  *engine.Service
	Screens  *rules.Engine
	Sessions *session.Registry
	Repo     domain.ObservationRepository
	Cache    domain.Cache
	Metrics  *Metrics
	Version  string
}

// Handler holds dependencies for API handlers.
type Handler struct {
	store    *store.Store
	service  *engine.Service
	screens  *rules.Engine
	sessions *session.Registry
	repo     domain.ObservationRepository
	cache    domain.Cache
	metrics  *Metrics
	version  string
}

// NewHandler creates a new API handler.
func NewHandler(deps Deps) *Handler {
	return &Handler{
		store:    deps.Store,
		service:  deps.Service,
		screens:  deps.Screens,
		sessions: deps.Sessions,
		repo:     deps.Repo,
		cache:    deps.Cache,
		metrics:  deps.Metrics,
		version:  deps.Version,
	}
}

// FacetsResponse lists the values a selection can draw from.
type FacetsResponse struct {
	DatasetID string `json:"datasetId"`
	Source    string `json:"source"`
	Rows      int    `json:"rows"`
	present.Facets
}

// ObservationsResponse is a Filtered View.
type ObservationsResponse struct {
	Selection    domain.Selection     `json:"selection"`
	Screen       string               `json:"screen,omitempty"`
	Count        int                  `json:"count"`
	Observations []domain.Observation `json:"observations"`
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	if h.repo != nil {
		if err := h.repo.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"version": h.version,
	})
}

// Ready returns whether the server is ready to accept traffic.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ready":   true,
		"dataset": h.store.ID(),
		"rows":    h.store.Len(),
	})
}

// Facets returns the Year and Statement Type domains of the loaded dataset.
func (h *Handler) Facets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, FacetsResponse{
		DatasetID: h.store.ID(),
		Source:    h.store.Source(),
		Rows:      h.store.Len(),
		Facets: present.Facets{
			Years:          h.store.YearDomain(),
			StatementTypes: h.store.StatementTypeDomain(),
		},
	})
}

// Observations returns the Filtered View for the query selection, in
// original order, or sorted by anomaly score with ?sort=anomaly.
func (h *Handler) Observations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sel, err := parseSelection(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	screen := q.Get("screen")
	view, err := h.service.View(h.store, sel, screen)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}

	switch q.Get("sort") {
	case "":
	case "anomaly":
		view = engine.SortByAnomaly(view)
	default:
		writeError(w, http.StatusBadRequest, "sort must be empty or anomaly")
		return
	}

	writeJSON(w, http.StatusOK, ObservationsResponse{
		Selection:    sel,
		Screen:       screen,
		Count:        view.Len(),
		Observations: view.Observations(),
	})
}

// Dashboard returns every derived view for the query selection.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sel, err := parseSelection(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.serveDashboard(w, r, sel, q.Get("screen"), false)
}

// DashboardCharts returns the render-ready report for the query selection.
func (h *Handler) DashboardCharts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sel, err := parseSelection(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.serveDashboard(w, r, sel, q.Get("screen"), true)
}

// TopRisk returns the n records with the lowest anomaly scores.
func (h *Handler) TopRisk(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sel, err := parseSelection(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	n, err := parseLimit(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	top, err := h.service.TopRisk(h.store, sel, q.Get("screen"), n)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":        len(top),
		"observations": top,
	})
}

// ListDatasets returns the datasets stored in the repository.
func (h *Handler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		writeError(w, http.StatusServiceUnavailable, "repository not available")
		return
	}

	datasets, err := h.repo.ListDatasets(r.Context())
	if err != nil {
		slog.Error("failed to list datasets", "error", err, "trace_id", GetTraceID(r.Context()))
		writeError(w, http.StatusInternalServerError, "failed to list datasets")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"datasets": datasets,
		"count":    len(datasets),
	})
}

// serveDashboard composes the dashboard and writes either the raw
// aggregates or the presentation report.
func (h *Handler) serveDashboard(w http.ResponseWriter, r *http.Request, sel domain.Selection, screen string, report bool) {
	d, err := h.service.Dashboard(r.Context(), h.store, sel, screen)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}

	h.metrics.observeDashboard(d.Empty)
	if d.Empty {
		slog.Debug("empty view", "selection", sel.Key(), "screen", screen)
	}

	if report {
		writeJSON(w, http.StatusOK, present.Build(d))
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// writeEngineError maps engine failures. An unknown screen named in a query
// is a bad request.
func (h *Handler) writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, rules.ErrScreenNotFound):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrEmptyView):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		slog.Error("engine request failed", "error", err, "trace_id", GetTraceID(r.Context()))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
