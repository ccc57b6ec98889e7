// Package api provides the HTTP REST API and WebSocket server for OrbitAI Core.
//
// It exposes learning session control, parameter inspection, and session
// history to ground tooling and the experimenter's console, plus a WebSocket
// feed of live parameter samples and session events.
//
// The server follows the same lifecycle pattern as other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/orbitml/orbitai-core/internal/infrastructure/config"
	"github.com/orbitml/orbitai-core/internal/infrastructure/logging"
	"github.com/orbitml/orbitai-core/internal/learning"
	"github.com/orbitml/orbitai-core/internal/params"
	"github.com/orbitml/orbitai-core/internal/process"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// SessionController is the session surface the API exposes.
// Satisfied by *learning.Session.
type SessionController interface {
	Start(ctx context.Context) error
	Stop() error
	SetMode(mode string) error
	Mode() string
	State() learning.State
	SessionID() string
	IterationsRun() int
}

// ProcessInfo reports on the learner process. Satisfied by *process.Supervisor.
type ProcessInfo interface {
	Stats() process.Stats
}

// FeedController toggles the OBSW parameter subscription.
// Satisfied by *ingest.Feed.
type FeedController interface {
	Start() error
	Stop() error
	IsRunning() bool
}

// SessionHistory reads stored session records. Satisfied by *learning.Repository.
type SessionHistory interface {
	Get(ctx context.Context, id string) (*learning.StoredSession, error)
	List(ctx context.Context, limit int) ([]learning.StoredSession, error)
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config      config.APIConfig
	Logger      *logging.Logger
	Session     SessionController
	Learner     ProcessInfo
	Store       *params.Store
	Feed        FeedController // optional
	History     SessionHistory // optional
	ExternalHub *Hub           // if set, the server uses this hub instead of creating its own
	Version     string
}

// Server is the HTTP API server for OrbitAI Core.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg     config.APIConfig
	logger  *logging.Logger
	session SessionController
	learner ProcessInfo
	store   *params.Store
	feed    FeedController
	history SessionHistory
	version string

	server      *http.Server
	hub         *Hub
	externalHub bool
	cancel      context.CancelFunc
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (config, logger, session, learner, store)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Session == nil {
		return nil, fmt.Errorf("session controller is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("parameter store is required")
	}
	// History is optional: without it the sessions endpoints return 404.

	s := &Server{
		cfg:     deps.Config,
		logger:  deps.Logger,
		session: deps.Session,
		learner: deps.Learner,
		store:   deps.Store,
		feed:    deps.Feed,
		history: deps.History,
		version: deps.Version,
	}

	if deps.ExternalHub != nil {
		s.hub = deps.ExternalHub
		s.externalHub = true
	}

	return s, nil
}

// Hub returns the server's WebSocket hub, creating it if needed.
// Exposed so other components can broadcast before Start() is called.
func (s *Server) Hub() *Hub {
	if s.hub == nil {
		s.hub = NewHub(s.logger)
	}
	return s.hub
}

// Start begins listening for HTTP connections.
//
// It sets up the router, starts the WebSocket hub, and launches the HTTP
// listener in a background goroutine. The server can be stopped with Close().
//
// Parameters:
//   - ctx: Context for cancellation (not used for listener lifetime)
//
// Returns:
//   - error: If the server fails to start (port in use, etc.)
func (s *Server) Start(ctx context.Context) error {
	// Internal context so Close() can stop background goroutines
	// independently of the parent context.
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if s.hub == nil {
		s.hub = NewHub(s.logger)
	}
	if !s.externalHub {
		go s.hub.Run(srvCtx)
	}

	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
//
// Returns:
//   - error: If shutdown encounters an error
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
