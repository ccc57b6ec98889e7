package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/orbitml/orbitai-core/internal/learning"
)

// startLearningRequest is the optional body of POST /learning/start.
type startLearningRequest struct {
	// Mode overrides the configured mode for this session: "train" or "infer".
	Mode string `json:"mode,omitempty"`
}

// statusResponse describes the live session and learner process.
type statusResponse struct {
	State         string `json:"state"`
	Mode          string `json:"mode"`
	SessionID     string `json:"session_id,omitempty"`
	IterationsRun int    `json:"iterations_run"`
	Learner       string `json:"learner"`
	LearnerPID    int    `json:"learner_pid,omitempty"`
	LearnerUptime string `json:"learner_uptime,omitempty"`
	LearnerError  string `json:"learner_error,omitempty"`
	FeedRunning   bool   `json:"feed_running"`
}

// handleStartLearning starts a learning session.
//
// The body is optional; when present it may select the mode for this
// session. Returns 409 if a session is already active.
func (s *Server) handleStartLearning(w http.ResponseWriter, r *http.Request) {
	var req startLearningRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if req.Mode != "" {
		if err := s.session.SetMode(req.Mode); err != nil {
			switch {
			case errors.Is(err, learning.ErrInvalidMode):
				writeBadRequest(w, err.Error())
			case errors.Is(err, learning.ErrAlreadyRunning):
				writeConflict(w, "session already running")
			default:
				writeInternalError(w, err.Error())
			}
			return
		}
	}

	if err := s.session.Start(r.Context()); err != nil {
		switch {
		case errors.Is(err, learning.ErrAlreadyRunning):
			writeConflict(w, "session already running")
		case errors.Is(err, learning.ErrInvalidMode):
			writeBadRequest(w, err.Error())
		default:
			s.logger.Error("starting session", "error", err)
			writeInternalError(w, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"session_id": s.session.SessionID(),
		"mode":       s.session.Mode(),
	})
}

// handleStopLearning stops the active learning session.
// Returns 409 if no session is running.
func (s *Server) handleStopLearning(w http.ResponseWriter, _ *http.Request) {
	id := s.session.SessionID()

	if err := s.session.Stop(); err != nil {
		if errors.Is(err, learning.ErrNotRunning) {
			writeConflict(w, "no session running")
			return
		}
		// The session has ended; the export failed. Surface it but report
		// the session as stopped.
		s.logger.Error("stopping session", "session_id", id, "error", err)
		writeJSON(w, http.StatusOK, map[string]any{
			"session_id":   id,
			"stopped":      true,
			"export_error": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": id,
		"stopped":    true,
	})
}

// handleStatus reports the session state machine and learner process.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := statusResponse{
		State:         string(s.session.State()),
		Mode:          s.session.Mode(),
		IterationsRun: s.session.IterationsRun(),
	}
	if s.session.State() != learning.StateIdle {
		resp.SessionID = s.session.SessionID()
	}

	if s.learner != nil {
		stats := s.learner.Stats()
		resp.Learner = string(stats.Status)
		if stats.PID > 0 {
			resp.LearnerPID = stats.PID
		}
		if stats.Uptime > 0 {
			resp.LearnerUptime = stats.Uptime.String()
		}
		resp.LearnerError = stats.LastError
	}

	if s.feed != nil {
		resp.FeedRunning = s.feed.IsRunning()
	}

	writeJSON(w, http.StatusOK, resp)
}
