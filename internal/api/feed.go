package api

import "net/http"

// handleStartFeed enables the OBSW parameter subscription and opens the
// acquisition log. Idempotent: starting a running feed is a success.
func (s *Server) handleStartFeed(w http.ResponseWriter, _ *http.Request) {
	if s.feed == nil {
		writeNotFound(w, "parameter feed not enabled")
		return
	}

	if err := s.feed.Start(); err != nil {
		s.logger.Error("starting parameter feed", "error", err)
		writeInternalError(w, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"running": true})
}

// handleStopFeed disables the OBSW parameter subscription and closes the
// acquisition log. Idempotent.
func (s *Server) handleStopFeed(w http.ResponseWriter, _ *http.Request) {
	if s.feed == nil {
		writeNotFound(w, "parameter feed not enabled")
		return
	}

	if err := s.feed.Stop(); err != nil {
		s.logger.Error("stopping parameter feed", "error", err)
		writeInternalError(w, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"running": false})
}
