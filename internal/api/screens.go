package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/repository"
)

// ListScreens returns the loaded screening expressions.
func (h *Handler) ListScreens(w http.ResponseWriter, r *http.Request) {
	loaded := h.screens.GetLoadedScreens()

	source := "memory"
	if h.repo != nil {
		source = "database"
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"screens": loaded,
		"count":   len(loaded),
		"source":  source,
	})
}

// GetScreen retrieves a loaded screen by ID.
func (h *Handler) GetScreen(w http.ResponseWriter, r *http.Request) {
	screenID := chi.URLParam(r, "id")

	for _, screen := range h.screens.GetLoadedScreens() {
		if screen.ID == screenID {
			writeJSON(w, http.StatusOK, screen)
			return
		}
	}

	writeError(w, http.StatusNotFound, "screen not found")
}

// CreateScreen compiles a screen, persists it when a repository is
// configured and loads it when enabled.
func (h *Handler) CreateScreen(w http.ResponseWriter, r *http.Request) {
	var req domain.ScreenConfig
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.saveScreen(w, r, &req, http.StatusCreated)
}

// UpdateScreen replaces a screen. The body ID, when set, must match the URL.
func (h *Handler) UpdateScreen(w http.ResponseWriter, r *http.Request) {
	screenID := chi.URLParam(r, "id")

	var req domain.ScreenConfig
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ID != screenID {
		writeError(w, http.StatusBadRequest, "screen id does not match URL")
		return
	}
	h.saveScreen(w, r, &req, http.StatusOK)
}

// DeleteScreen unloads a screen and removes it from the repository.
func (h *Handler) DeleteScreen(w http.ResponseWriter, r *http.Request) {
	screenID := chi.URLParam(r, "id")

	loaded := false
	for _, screen := range h.screens.GetLoadedScreens() {
		if screen.ID == screenID {
			loaded = true
			break
		}
	}

	if h.repo != nil {
		err := h.repo.DeleteScreen(r.Context(), screenID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			if !loaded {
				writeError(w, http.StatusNotFound, "screen not found")
				return
			}
		case err != nil:
			slog.Error("failed to delete screen", "id", screenID, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to delete screen")
			return
		}
	} else if !loaded {
		writeError(w, http.StatusNotFound, "screen not found")
		return
	}

	h.screens.RemoveScreen(screenID)
	slog.Info("screen deleted", "id", screenID)
	w.WriteHeader(http.StatusNoContent)
}

// ReloadScreens replaces the loaded screens with the enabled ones stored in
// the repository.
func (h *Handler) ReloadScreens(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		writeError(w, http.StatusServiceUnavailable, "repository not available")
		return
	}

	stored, err := h.repo.ListScreens(r.Context())
	if err != nil {
		slog.Error("failed to list screens from database", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load screens from database")
		return
	}

	if err := h.screens.ReloadScreens(stored); err != nil {
		slog.Error("failed to reload screens", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to reload screens: "+err.Error())
		return
	}

	slog.Info("screens reloaded from database", "count", h.screens.ScreensCount())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "screens reloaded successfully",
		"count":   h.screens.ScreensCount(),
	})
}

func (h *Handler) saveScreen(w http.ResponseWriter, r *http.Request, cfg *domain.ScreenConfig, status int) {
	if err := h.screens.ValidateScreen(cfg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid CEL expression: "+err.Error())
		return
	}

	if h.repo != nil {
		if err := h.repo.SaveScreen(r.Context(), cfg); err != nil {
			slog.Error("failed to save screen", "id", cfg.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to save screen")
			return
		}
	}

	if cfg.Enabled {
		if err := h.screens.LoadScreen(cfg); err != nil {
			writeError(w, http.StatusBadRequest, "invalid CEL expression: "+err.Error())
			return
		}
	} else {
		h.screens.RemoveScreen(cfg.ID)
	}

	slog.Info("screen saved", "id", cfg.ID, "name", cfg.Name, "enabled", cfg.Enabled)
	writeJSON(w, status, cfg)
}
