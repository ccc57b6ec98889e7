package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/status", s.handleStatus)

		// Learning session control
		r.Route("/learning", func(r chi.Router) {
			r.Post("/start", s.handleStartLearning)
			r.Post("/stop", s.handleStopLearning)
		})

		// OBSW parameter subscription
		r.Route("/feed", func(r chi.Router) {
			r.Post("/start", s.handleStartFeed)
			r.Post("/stop", s.handleStopFeed)
		})

		// Parameter store
		r.Get("/parameters", s.handleListParameters)
		r.Get("/parameters/{name}", s.handleGetParameter)

		// Session history
		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", s.handleListSessions)
			r.Get("/{id}", s.handleGetSession)
		})

		// WebSocket live feed
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
