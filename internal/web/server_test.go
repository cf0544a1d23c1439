package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/akbarov/facegate/internal/config"
)

// newUpstream fakes the attendance service the kiosk proxies to.
func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")

		switch {
		case req.Username == "alisher" && req.Password == "secret123":
			w.Write([]byte(`{"access_token": "admin-token", "token_type": "bearer",
				"user": {"id": "u-1", "username": "alisher", "role": "admin", "full_name": "Alisher Navoiy"}}`))
		case req.Username == "gulnora" && req.Password == "secret123":
			w.Write([]byte(`{"access_token": "user-token", "token_type": "bearer",
				"user": {"id": "u-2", "username": "gulnora", "role": "user", "full_name": "Gulnora Karimova"}}`))
		default:
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail": "Invalid credentials"}`))
		}
	})

	mux.HandleFunc("POST /api/attendance/mark", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message": "Attendance marked for 1 user(s)",
			"users": [{"id": "u-2", "username": "gulnora", "status": "marked", "confidence": 0.91}]}`))
	})

	mux.HandleFunc("GET /api/attendance/history", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id": "r-1", "user_id": "u-2", "username": "gulnora", "full_name": "Gulnora Karimova",
			"timestamp": "2026-03-09T08:30:15Z", "status": "present", "confidence": 0.91}]`))
	})

	mux.HandleFunc("GET /api/users", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id": "u-1", "username": "alisher", "role": "admin", "face_embeddings": [[0.1], [0.2]]}]`))
	})

	upstream := httptest.NewServer(mux)
	t.Cleanup(upstream.Close)
	return upstream
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	upstream := newUpstream(t)
	cfg := &config.Config{}
	cfg.Server.URL = upstream.URL
	cfg.Kiosk.Secret = "test-secret"
	cfg.Kiosk.Title = "Attendance"
	return NewServer(cfg)
}

// login runs the kiosk login and returns the session cookie.
func login(t *testing.T, s *Server, username string) *http.Cookie {
	t.Helper()

	body := strings.NewReader(`{"username": "` + username + `", "password": "secret123"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", body)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("login failed with %d: %s", rec.Code, rec.Body.String())
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == "facegate_session" && c.Value != "" {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func TestLoginOpensSession(t *testing.T) {
	s := newTestServer(t)
	cookie := login(t, s, "alisher")

	req := httptest.NewRequest(http.MethodGet, "/api/auth/status", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	var status struct {
		Authenticated bool   `json:"authenticated"`
		Role          string `json:"role"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("could not parse status: %v", err)
	}
	if !status.Authenticated || status.Role != "admin" {
		t.Errorf("unexpected status: %+v", status)
	}
}

func TestLoginBadCredentials(t *testing.T) {
	s := newTestServer(t)

	body := strings.NewReader(`{"username": "alisher", "password": "wrong"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", body)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == "facegate_session" && c.Value != "" {
			t.Error("failed login must not set a session cookie")
		}
	}
}

func TestMarkIsPublic(t *testing.T) {
	s := newTestServer(t)

	body := strings.NewReader(`{"face_image": "data:image/jpeg;base64,abc"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/attendance/mark", body)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("marking without a session must work, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestMarkProxiesOutcomes(t *testing.T) {
	s := newTestServer(t)

	body := strings.NewReader(`{"face_image": "data:image/jpeg;base64,abc"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/attendance/mark", body)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("mark failed with %d: %s", rec.Code, rec.Body.String())
	}

	var result struct {
		Users []struct {
			Username string  `json:"username"`
			Status   string  `json:"status"`
			Conf     float64 `json:"confidence"`
		} `json:"users"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("could not parse mark result: %v", err)
	}
	if len(result.Users) != 1 || result.Users[0].Status != "marked" {
		t.Errorf("unexpected outcomes: %+v", result.Users)
	}
	if result.Users[0].Conf != 0.91 {
		t.Errorf("confidence lost in proxying: %+v", result.Users[0])
	}
}

func TestAdminRoutesGatedByRole(t *testing.T) {
	s := newTestServer(t)
	userCookie := login(t, s, "gulnora")
	adminCookie := login(t, s, "alisher")

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.AddCookie(userCookie)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for user role, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.AddCookie(adminCookie)
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin role, got %d", rec.Code)
	}

	var users []struct {
		Username    string `json:"username"`
		FaceSamples int    `json:"face_samples"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &users); err != nil {
		t.Fatalf("could not parse users: %v", err)
	}
	if len(users) != 1 || users[0].FaceSamples != 2 {
		t.Errorf("embeddings not reduced to a count: %+v", users)
	}
}

func TestHistoryExportCSV(t *testing.T) {
	s := newTestServer(t)
	cookie := login(t, s, "gulnora")

	req := httptest.NewRequest(http.MethodGet, "/api/attendance/history/export", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("export failed with %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("unexpected content type: %s", ct)
	}
	cd := rec.Header().Get("Content-Disposition")
	if !strings.HasPrefix(cd, "attachment; filename=attendance_report_") || !strings.HasSuffix(cd, ".csv") {
		t.Errorf("unexpected content disposition: %s", cd)
	}

	lines := strings.Split(strings.TrimRight(rec.Body.String(), "\n"), "\n")
	if lines[0] != "Date,Time,User,Username,Status,Confidence" {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if len(lines) != 2 || !strings.Contains(lines[1], "gulnora") {
		t.Errorf("unexpected rows: %v", lines)
	}
}

func TestLogoutClosesSession(t *testing.T) {
	s := newTestServer(t)
	cookie := login(t, s, "gulnora")

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout failed with %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/attendance/history", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("session must be gone after logout, got %d", rec.Code)
	}
}
