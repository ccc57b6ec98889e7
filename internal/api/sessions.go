package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/orbitml/orbitai-core/internal/learning"
)

// handleListSessions returns stored sessions, most recent first.
// The limit query parameter caps the result count (default 50).
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeNotFound(w, "session history not enabled")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeBadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	sessions, err := s.history.List(r.Context(), limit)
	if err != nil {
		s.logger.Error("listing sessions", "error", err)
		writeInternalError(w, "failed to list sessions")
		return
	}
	if sessions == nil {
		sessions = []learning.StoredSession{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// handleGetSession returns one stored session by ID.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeNotFound(w, "session history not enabled")
		return
	}

	id := chi.URLParam(r, "id")

	session, err := s.history.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, learning.ErrSessionNotFound) {
			writeNotFound(w, "session not found: "+id)
			return
		}
		s.logger.Error("loading session", "session_id", id, "error", err)
		writeInternalError(w, "failed to load session")
		return
	}

	writeJSON(w, http.StatusOK, session)
}
