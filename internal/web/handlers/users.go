package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/akbarov/facegate/internal/api"
	"github.com/akbarov/facegate/internal/config"
	"github.com/akbarov/facegate/internal/web/middleware"
)

// UsersHandler proxies directory management to the attendance service.
// All routes behind it are admin-gated.
type UsersHandler struct {
	config         *config.Config
	sessionManager *middleware.SessionManager
}

func NewUsersHandler(cfg *config.Config, sm *middleware.SessionManager) *UsersHandler {
	return &UsersHandler{
		config:         cfg,
		sessionManager: sm,
	}
}

// List returns all registered identities.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSessionFromContext(r.Context())
	client, err := upstreamClient(h.config, session)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Service misconfigured")
		return
	}

	users, err := client.Users(r.Context())
	if err != nil {
		respondUpstreamError(w, err)
		return
	}
	if users == nil {
		users = []api.Identity{}
	}
	respondJSON(w, http.StatusOK, users)
}

// Register creates a new user account.
func (h *UsersHandler) Register(w http.ResponseWriter, r *http.Request) {
	var user api.NewUser
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	session := middleware.GetSessionFromContext(r.Context())
	client, err := upstreamClient(h.config, session)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Service misconfigured")
		return
	}

	identity, err := client.Register(r.Context(), user)
	if err != nil {
		respondUpstreamError(w, err)
		return
	}
	log.Printf("registered user %s", sanitizeForLog(identity.Username))
	respondJSON(w, http.StatusOK, identity)
}

type registerFaceRequest struct {
	UserID    string `json:"user_id"`
	FaceImage string `json:"face_image"`
}

// RegisterFace enrolls a face sample for an existing account.
func (h *UsersHandler) RegisterFace(w http.ResponseWriter, r *http.Request) {
	var req registerFaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.UserID == "" || req.FaceImage == "" {
		respondError(w, http.StatusBadRequest, "User id and face image are required")
		return
	}

	session := middleware.GetSessionFromContext(r.Context())
	client, err := upstreamClient(h.config, session)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Service misconfigured")
		return
	}

	result, err := client.RegisterFace(r.Context(), req.UserID, req.FaceImage)
	if err != nil {
		respondUpstreamError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Delete removes a user account.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "User id is required")
		return
	}

	session := middleware.GetSessionFromContext(r.Context())
	client, err := upstreamClient(h.config, session)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Service misconfigured")
		return
	}

	if err := client.DeleteUser(r.Context(), id); err != nil {
		respondUpstreamError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}
