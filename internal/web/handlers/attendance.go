package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/akbarov/facegate/internal/api"
	"github.com/akbarov/facegate/internal/config"
	"github.com/akbarov/facegate/internal/report"
	"github.com/akbarov/facegate/internal/web/middleware"
)

// AttendanceHandler proxies marking and reporting to the attendance service.
type AttendanceHandler struct {
	config         *config.Config
	sessionManager *middleware.SessionManager
}

func NewAttendanceHandler(cfg *config.Config, sm *middleware.SessionManager) *AttendanceHandler {
	return &AttendanceHandler{
		config:         cfg,
		sessionManager: sm,
	}
}

type markRequest struct {
	FaceImage string `json:"face_image"`
}

// Mark submits a captured frame for attendance marking and returns the
// per-identity outcomes.
func (h *AttendanceHandler) Mark(w http.ResponseWriter, r *http.Request) {
	var req markRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.FaceImage == "" {
		respondError(w, http.StatusBadRequest, "Face image is required")
		return
	}

	session := middleware.GetSessionFromContext(r.Context())
	client, err := upstreamClient(h.config, session)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Service misconfigured")
		return
	}

	result, err := client.MarkAttendance(r.Context(), req.FaceImage)
	if err != nil {
		respondUpstreamError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// History proxies the attendance record listing. Query bounds go to the
// service exactly as received.
func (h *AttendanceHandler) History(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSessionFromContext(r.Context())
	client, err := upstreamClient(h.config, session)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Service misconfigured")
		return
	}

	q := r.URL.Query()
	filter := api.HistoryFilter{
		UserID: q.Get("user_id"),
		Start:  q.Get("start_date"),
		End:    q.Get("end_date"),
	}

	records, err := client.History(r.Context(), filter)
	if err != nil {
		respondUpstreamError(w, err)
		return
	}
	if records == nil {
		records = []api.AttendanceRecord{}
	}
	respondJSON(w, http.StatusOK, records)
}

// ExportCSV streams the filtered history as a CSV download.
func (h *AttendanceHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSessionFromContext(r.Context())
	client, err := upstreamClient(h.config, session)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Service misconfigured")
		return
	}

	q := r.URL.Query()
	filter := api.HistoryFilter{
		UserID: q.Get("user_id"),
		Start:  q.Get("start_date"),
		End:    q.Get("end_date"),
	}

	records, err := client.History(r.Context(), filter)
	if err != nil {
		respondUpstreamError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+report.ExportFilename(time.Now()))
	if err := report.ExportCSV(w, records); err != nil {
		// Headers are already out; nothing sensible left to send.
		return
	}
}

// Report proxies the current-day aggregate.
func (h *AttendanceHandler) Report(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSessionFromContext(r.Context())
	client, err := upstreamClient(h.config, session)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Service misconfigured")
		return
	}

	today, err := client.TodayReport(r.Context())
	if err != nil {
		respondUpstreamError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, today)
}

// Dashboard proxies the admin dashboard aggregate.
func (h *AttendanceHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSessionFromContext(r.Context())
	client, err := upstreamClient(h.config, session)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Service misconfigured")
		return
	}

	stats, err := client.Dashboard(r.Context())
	if err != nil {
		respondUpstreamError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}
