package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/akbarov/facegate/internal/api"
	"github.com/akbarov/facegate/internal/config"
	"github.com/akbarov/facegate/internal/web/middleware"
)

// SettingsHandler proxies the service-side recognition settings.
type SettingsHandler struct {
	config         *config.Config
	sessionManager *middleware.SessionManager
}

func NewSettingsHandler(cfg *config.Config, sm *middleware.SessionManager) *SettingsHandler {
	return &SettingsHandler{
		config:         cfg,
		sessionManager: sm,
	}
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSessionFromContext(r.Context())
	client, err := upstreamClient(h.config, session)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Service misconfigured")
		return
	}

	settings, err := client.GetSettings(r.Context())
	if err != nil {
		respondUpstreamError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var settings api.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	session := middleware.GetSessionFromContext(r.Context())
	client, err := upstreamClient(h.config, session)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Service misconfigured")
		return
	}

	if err := client.UpdateSettings(r.Context(), settings); err != nil {
		respondUpstreamError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Settings updated successfully"})
}
