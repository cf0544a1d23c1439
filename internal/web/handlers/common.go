package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/akbarov/facegate/internal/api"
	"github.com/akbarov/facegate/internal/config"
	"github.com/akbarov/facegate/internal/web/middleware"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "Invalid request body"

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response in the attendance service's own
// error shape so the kiosk frontend handles both the same way.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"detail": message})
}

// respondUpstreamError maps a failed upstream call onto the kiosk
// response. Service rejections keep their status and detail; transport
// failures become 502.
func respondUpstreamError(w http.ResponseWriter, err error) {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		respondError(w, apiErr.Status, apiErr.Detail)
		return
	}
	respondError(w, http.StatusBadGateway, "Attendance service unavailable")
}

// upstreamClient builds an attendance service client acting as the kiosk
// session's user. A nil session yields an unauthenticated client.
func upstreamClient(cfg *config.Config, session *middleware.Session) (*api.Client, error) {
	if session != nil && session.Credential != "" {
		return api.NewFromCredential(cfg.Server.URL, session.Credential)
	}
	return api.New(cfg.Server.URL)
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
