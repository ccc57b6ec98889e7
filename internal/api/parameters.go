package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/orbitml/orbitai-core/internal/params"
)

// parameterValue is one named parameter in a snapshot response.
type parameterValue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// parametersResponse is a consistent snapshot of the whole store.
type parametersResponse struct {
	TakenAt    time.Time        `json:"taken_at"`
	Parameters []parameterValue `json:"parameters"`
}

// handleListParameters returns a consistent snapshot of all parameters in
// declaration order. Values for parameters never received show the default.
func (s *Server) handleListParameters(w http.ResponseWriter, _ *http.Request) {
	names := s.store.Names()
	snap := s.store.Snapshot()

	resp := parametersResponse{
		TakenAt:    snap.TakenAt,
		Parameters: make([]parameterValue, len(names)),
	}
	for i, name := range names {
		resp.Parameters[i] = parameterValue{Name: name, Value: snap.Values[i]}
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleGetParameter returns one parameter by name.
func (s *Server) handleGetParameter(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	value, err := s.store.Get(name)
	if err != nil {
		if errors.Is(err, params.ErrUnknownParameter) {
			writeNotFound(w, "unknown parameter: "+name)
			return
		}
		writeInternalError(w, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, parameterValue{Name: name, Value: value})
}
