package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"renameflow/api"
	"renameflow/internal/database"
	"renameflow/models"
)

// PreferencesHandler exposes per-owner rename preferences.
type PreferencesHandler struct {
	Repo *database.PreferencesRepository
}

func NewPreferencesHandler(repo *database.PreferencesRepository) *PreferencesHandler {
	return &PreferencesHandler{Repo: repo}
}

func (h *PreferencesHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.Repo.Get(api.GetOwnerID(r))
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no preferences set")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(prefs)
}

func (h *PreferencesHandler) PutPreferences(w http.ResponseWriter, r *http.Request) {
	var prefs models.UserPreferences
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		writeError(w, http.StatusBadRequest, "invalid preferences payload")
		return
	}
	prefs.OwnerID = api.GetOwnerID(r)

	if strings.TrimSpace(prefs.FormatTemplate) == "" {
		writeError(w, http.StatusBadRequest, "format template is required")
		return
	}
	if prefs.SendAs != "" && !prefs.SendAs.Valid() {
		writeError(w, http.StatusBadRequest, "unknown send-as kind")
		return
	}

	if err := h.Repo.Upsert(&prefs); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(prefs)
}

func (h *PreferencesHandler) DeletePreferences(w http.ResponseWriter, r *http.Request) {
	if err := h.Repo.Delete(api.GetOwnerID(r)); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
