package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// MountRoutes registers all API routes on the given chi router. wsHandler
// may be nil when the status stream is disabled.
func MountRoutes(r chi.Router, h *Handlers, wsHandler http.HandlerFunc) {
	r.Get("/health", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		// Document analysis can legitimately run for minutes; the websocket
		// route stays outside this group so its connections are not bounded.
		r.Use(chimw.Timeout(2 * time.Minute))

		// Version
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})

		// Dependency operations
		r.Post("/ein/verify", h.VerifyEIN)
		r.Post("/documents/analyze", h.AnalyzeDocument)
		r.Post("/meetings", h.CreateMeeting)
		r.Post("/notifications/teams", h.NotifyTeams)
		r.Post("/risk/assess", h.AssessRisk)

		// Operations surface
		r.Get("/resilience/status", h.ResilienceStatus)
		r.Get("/resilience/status/{dependency}", h.ResilienceStatusByDependency)
		r.Get("/audit/recent", h.RecentAudit)
	})

	if wsHandler != nil {
		r.Get("/ws/resilience", wsHandler)
	}
}
