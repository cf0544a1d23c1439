package web

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/akbarov/facegate/internal/web/handlers"
	"github.com/akbarov/facegate/internal/web/middleware"
)

func (s *Server) setupRoutes(sessionManager *middleware.SessionManager) {
	// Create handlers
	authHandler := handlers.NewAuthHandler(s.config, sessionManager)
	attendanceHandler := handlers.NewAttendanceHandler(s.config, sessionManager)
	usersHandler := handlers.NewUsersHandler(s.config, sessionManager)
	settingsHandler := handlers.NewSettingsHandler(s.config, sessionManager)

	// Health check (no auth required)
	s.router.Get("/api/health", handlers.HealthCheck)

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		// Auth routes open a session; no session needed to call them
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/face-login", authHandler.FaceLogin)
		r.Post("/auth/logout", authHandler.Logout)
		r.Get("/auth/status", authHandler.Status)

		// Station marking is open; recognition decides who gets marked
		r.Post("/attendance/mark", attendanceHandler.Mark)

		// Routes for any authenticated user
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(sessionManager))

			r.Get("/users/me", authHandler.Me)
			r.Get("/attendance/history", attendanceHandler.History)
			r.Get("/attendance/history/export", attendanceHandler.ExportCSV)
			// Users may enroll their own face; the service checks ownership
			r.Post("/users/register-face", usersHandler.RegisterFace)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin())

				r.Get("/users", usersHandler.List)
				r.Post("/auth/register", usersHandler.Register)
				r.Delete("/users/{id}", usersHandler.Delete)

				r.Get("/attendance/report", attendanceHandler.Report)
				r.Get("/admin/dashboard", attendanceHandler.Dashboard)

				r.Get("/settings", settingsHandler.Get)
				r.Put("/settings", settingsHandler.Update)
			})
		})
	})

	// Station landing page
	s.router.Get("/", s.serveIndex)
}

// serveIndex serves a minimal station page; the real frontend is expected
// to be deployed separately and talk to /api.
func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head>
    <title>%s</title>
    <style>
        body { font-family: system-ui, sans-serif; display: flex; justify-content: center; align-items: center; height: 100vh; margin: 0; background: #1a1a2e; color: #eee; }
        .container { text-align: center; }
        h1 { color: #00d9ff; }
        p { color: #aaa; }
        a { color: #00d9ff; }
    </style>
</head>
<body>
    <div class="container">
        <h1>%s</h1>
        <p>Attendance station API is available under <a href="/api/health">/api</a></p>
    </div>
</body>
</html>`, s.config.Kiosk.Title, s.config.Kiosk.Title)
}
