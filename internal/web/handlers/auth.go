package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/akbarov/facegate/internal/api"
	"github.com/akbarov/facegate/internal/config"
	"github.com/akbarov/facegate/internal/web/middleware"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	config         *config.Config
	sessionManager *middleware.SessionManager
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(cfg *config.Config, sm *middleware.SessionManager) *AuthHandler {
	return &AuthHandler{
		config:         cfg,
		sessionManager: sm,
	}
}

// loginRequest represents a login request
type loginRequest struct {
	username string
	password string
}

func (l *loginRequest) UnmarshalJSON(data []byte) error {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshal login request: %w", err)
	}
	l.username = raw["username"]
	l.password = raw["password"]
	return nil
}

// LoginResponse represents a login response
type LoginResponse struct {
	Success  bool   `json:"success"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Login authenticates against the attendance service with username and
// password and opens a kiosk session on success.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	if req.username == "" || req.password == "" {
		respondError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	client, err := upstreamClient(h.config, nil)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Service misconfigured")
		return
	}

	auth, err := client.Login(r.Context(), req.username, req.password)
	if err != nil {
		if api.IsAuthError(err) {
			respondJSON(w, http.StatusUnauthorized, LoginResponse{
				Success: false,
				Error:   "Invalid credentials",
			})
			return
		}
		respondUpstreamError(w, err)
		return
	}

	h.openSession(w, auth)
}

// faceLoginRequest carries the captured frame as a base64 data URL.
type faceLoginRequest struct {
	FaceImage string `json:"face_image"`
}

// FaceLogin authenticates by face capture. An unrecognized face is an
// ordinary failed login, not a server error.
func (h *AuthHandler) FaceLogin(w http.ResponseWriter, r *http.Request) {
	var req faceLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.FaceImage == "" {
		respondError(w, http.StatusBadRequest, "Face image is required")
		return
	}

	client, err := upstreamClient(h.config, nil)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Service misconfigured")
		return
	}

	auth, err := client.FaceLogin(r.Context(), req.FaceImage)
	if err != nil {
		if api.IsAuthError(err) {
			respondJSON(w, http.StatusUnauthorized, LoginResponse{
				Success: false,
				Error:   api.Detail(err),
			})
			return
		}
		respondUpstreamError(w, err)
		return
	}

	h.openSession(w, auth)
}

func (h *AuthHandler) openSession(w http.ResponseWriter, auth *api.AuthResult) {
	session, err := h.sessionManager.CreateSession(auth.Credential, auth.User.Username, auth.User.Role)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	h.sessionManager.SetSessionCookie(w, session)
	log.Printf("kiosk session opened for %s", sanitizeForLog(auth.User.Username))

	respondJSON(w, http.StatusOK, LoginResponse{
		Success:  true,
		Username: auth.User.Username,
		Role:     auth.User.Role,
	})
}

// Logout closes the kiosk session. The upstream credential is simply
// discarded with it.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session := h.sessionManager.GetSessionFromRequest(r)
	if session != nil {
		h.sessionManager.DeleteSession(session.ID)
	}

	h.sessionManager.ClearSessionCookie(w)
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// StatusResponse represents the auth status response
type StatusResponse struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
	Role          string `json:"role,omitempty"`
}

// Status checks if the user is authenticated by validating the session.
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	session := h.sessionManager.GetSessionFromRequest(r)
	if session == nil {
		respondJSON(w, http.StatusOK, StatusResponse{Authenticated: false})
		return
	}
	respondJSON(w, http.StatusOK, StatusResponse{
		Authenticated: true,
		Username:      session.Username,
		Role:          session.Role,
	})
}

// Me proxies the current user's directory record from the service.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSessionFromContext(r.Context())
	client, err := upstreamClient(h.config, session)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Service misconfigured")
		return
	}

	identity, err := client.CurrentIdentity(r.Context())
	if err != nil {
		respondUpstreamError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, identity)
}
