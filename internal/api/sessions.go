package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/opensource-finance/kestrel/internal/rules"
	"github.com/opensource-finance/kestrel/internal/session"
)

// CreateSession starts a session. Without a selection in the body it
// covers every Year and Statement Type.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !h.screenKnown(req.Screen) {
		writeError(w, http.StatusBadRequest, rules.ErrScreenNotFound.Error()+": "+req.Screen)
		return
	}

	s := h.sessions.Create(req.Selection, req.Screen)
	noteSession(r, s.ID)
	writeJSON(w, http.StatusCreated, s)
}

// GetSession returns a session's current selection.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookupSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// UpdateSelection replaces a session's selection. An empty selection is
// accepted and yields the empty dashboard.
func (h *Handler) UpdateSelection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	noteSession(r, id)

	var req SelectionRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !h.screenKnown(req.Screen) {
		writeError(w, http.StatusBadRequest, rules.ErrScreenNotFound.Error()+": "+req.Screen)
		return
	}

	s, err := h.sessions.Update(id, req.Selection(), req.Screen)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// SessionDashboard composes the dashboard for a session's selection.
func (h *Handler) SessionDashboard(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookupSession(w, r)
	if !ok {
		return
	}
	h.serveDashboard(w, r, s.Selection, s.Screen, false)
}

// SessionCharts renders the report for a session's selection.
func (h *Handler) SessionCharts(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookupSession(w, r)
	if !ok {
		return
	}
	h.serveDashboard(w, r, s.Selection, s.Screen, true)
}

// DeleteSession ends a session.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	noteSession(r, id)

	if err := h.sessions.Delete(id); err != nil {
		writeSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) lookupSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := chi.URLParam(r, "id")
	noteSession(r, id)

	s, err := h.sessions.Get(id)
	if err != nil {
		writeSessionError(w, err)
		return nil, false
	}
	return s, true
}

func (h *Handler) screenKnown(id string) bool {
	if id == "" {
		return true
	}
	_, _, err := h.screens.Predicate(id)
	return err == nil
}

func writeSessionError(w http.ResponseWriter, err error) {
	if errors.Is(err, session.ErrNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
