package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/santaswishlist/internal/auth"
	"github.com/dukerupert/santaswishlist/internal/model"
	"github.com/dukerupert/santaswishlist/internal/store"
)

type PreferenceHandler struct {
	prefs  *store.PreferenceStore
	logger *slog.Logger
}

func NewPreferenceHandler(ps *store.PreferenceStore, logger *slog.Logger) *PreferenceHandler {
	return &PreferenceHandler{prefs: ps, logger: logger}
}

// loadPreferences returns every known key, defaulting unset ones to "false".
func loadPreferences(r *http.Request, ps *store.PreferenceStore) (map[string]string, error) {
	stored, err := ps.GetAll(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		return nil, err
	}
	prefs := make(map[string]string, len(model.KnownPreferences))
	for key := range model.KnownPreferences {
		prefs[key] = "false"
	}
	for key, value := range stored {
		if model.KnownPreferences[key] {
			prefs[key] = value
		}
	}
	return prefs, nil
}

// List handles GET /api/preferences
func (h *PreferenceHandler) List(w http.ResponseWriter, r *http.Request) {
	prefs, err := loadPreferences(r, h.prefs)
	if err != nil {
		h.logger.Error("list preferences", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load preferences")
		return
	}
	writeData(w, http.StatusOK, prefs)
}

type setPreferenceRequest struct {
	Value string `json:"value"`
}

// Set handles PUT /api/preferences/{key}
func (h *PreferenceHandler) Set(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if !model.KnownPreferences[key] {
		writeError(w, http.StatusBadRequest, "unknown preference")
		return
	}

	var req setPreferenceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Value != "true" && req.Value != "false" {
		writeError(w, http.StatusBadRequest, `value must be "true" or "false"`)
		return
	}

	pref, err := h.prefs.Set(r.Context(), auth.UserID(r.Context()), key, req.Value)
	if err != nil {
		h.logger.Error("set preference", "key", key, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save preference")
		return
	}
	writeData(w, http.StatusOK, pref)
}
