package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// Status represents the current state of the supervised process.
type Status string

const (
	StatusStopped  Status = "stopped"
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusFailed   Status = "failed"
)

// outputBufferSize is the buffer size for capturing subprocess stdout/stderr.
const outputBufferSize = 4096

// defaultGracefulTimeout applies when Config.GracefulTimeout is zero.
const defaultGracefulTimeout = 10 * time.Second

// Config holds configuration for the supervised learner process.
type Config struct {
	// Name is a human-readable identifier for logging.
	Name string

	// Binary is the path to the executable.
	Binary string

	// Args are command-line arguments to pass to the binary.
	Args []string

	// Env are additional environment variables (key=value format).
	// If nil, inherits from parent process.
	Env []string

	// WorkDir is the working directory for the process.
	// If empty, inherits from parent process.
	WorkDir string

	// GracefulTimeout is how long to wait for graceful shutdown before SIGKILL.
	GracefulTimeout time.Duration

	// OnExit is called once when the process exits for any reason.
	// err is nil for a clean exit, non-nil for a crash or kill.
	OnExit func(err error)
}

// Logger defines the logging interface for the supervisor.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Supervisor manages the lifecycle of the external learner process.
//
// Unlike a service watchdog, the supervisor never restarts the learner:
// an unexpected exit ends the learning session, and the operator decides
// whether to start a new one. The supervisor's job is clean launch, exit
// observation, and forceful teardown when the learner ignores its exit
// command.
type Supervisor struct {
	config Config
	logger Logger

	mu            sync.RWMutex
	cmd           *exec.Cmd
	status        Status
	lastError     error
	startTime     time.Time
	stopRequested bool

	// done is closed when the monitor goroutine observes process exit.
	done chan struct{}
}

// NewSupervisor creates a supervisor with the given configuration.
func NewSupervisor(cfg Config) *Supervisor {
	if cfg.GracefulTimeout == 0 {
		cfg.GracefulTimeout = defaultGracefulTimeout
	}

	return &Supervisor{
		config: cfg,
		logger: noopLogger{},
		status: StatusStopped,
	}
}

// SetLogger sets the logger for the supervisor.
func (s *Supervisor) SetLogger(logger Logger) {
	s.logger = logger
}

// Start launches the learner process and begins monitoring it.
//
// Returns ErrAlreadyRunning if the process is already starting or running,
// or ErrStartFailed (wrapped) if the launch itself fails. On launch failure
// the supervisor returns to a stopped-equivalent failed state and Start may
// be called again.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.status == StatusRunning || s.status == StatusStarting {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAlreadyRunning, s.config.Name)
	}
	s.status = StatusStarting
	s.stopRequested = false
	s.lastError = nil
	s.done = make(chan struct{})
	s.mu.Unlock()

	if err := s.startProcess(ctx); err != nil {
		s.mu.Lock()
		s.status = StatusFailed
		s.lastError = err
		s.mu.Unlock()
		return fmt.Errorf("%w: %w", ErrStartFailed, err)
	}

	go s.monitor()

	return nil
}

// startProcess actually starts the subprocess.
func (s *Supervisor) startProcess(ctx context.Context) error {
	// The context only gates the launch. The process lifetime belongs to
	// Stop(): tying it to the caller's context would kill the learner when
	// a short-lived start context (an HTTP request, say) is cancelled.
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("start cancelled: %w", err)
	}

	s.logger.Info("starting process",
		"name", s.config.Name,
		"binary", s.config.Binary,
		"args", s.config.Args,
	)

	cmd := exec.Command(s.config.Binary, s.config.Args...) //nolint:gosec // Binary path is validated in config.Validate()

	// Create a new process group so we can signal all children on shutdown
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if s.config.Env != nil {
		cmd.Env = append(os.Environ(), s.config.Env...)
	}

	if s.config.WorkDir != "" {
		cmd.Dir = s.config.WorkDir
	}

	// Capture stdout/stderr for logging
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("creating stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("creating stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", s.config.Name, err)
	}

	s.mu.Lock()
	s.cmd = cmd
	s.status = StatusRunning
	s.startTime = time.Now()
	s.mu.Unlock()

	go s.captureOutput("stdout", stdout)
	go s.captureOutput("stderr", stderr)

	s.logger.Info("process started",
		"name", s.config.Name,
		"pid", cmd.Process.Pid,
	)

	return nil
}

// captureOutput reads from the given reader and logs each chunk.
func (s *Supervisor) captureOutput(stream string, r io.Reader) {
	buf := make([]byte, outputBufferSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			s.logger.Debug("process output",
				"name", s.config.Name,
				"stream", stream,
				"output", string(buf[:n]),
			)
		}
		if err != nil {
			return
		}
	}
}

// monitor waits for the process to exit and records the outcome.
func (s *Supervisor) monitor() {
	defer close(s.done)

	s.mu.RLock()
	cmd := s.cmd
	s.mu.RUnlock()

	if cmd == nil {
		return
	}

	err := cmd.Wait()

	s.mu.Lock()
	stopRequested := s.stopRequested
	if stopRequested {
		s.status = StatusStopped
		s.lastError = nil
	} else {
		s.status = StatusFailed
		s.lastError = err
		if err == nil {
			// Clean zero exit without a stop request still ends the
			// session; record it as an unexpected exit.
			s.lastError = ErrUnexpectedExit
		}
	}
	s.mu.Unlock()

	if stopRequested {
		s.logger.Info("process stopped as requested", "name", s.config.Name)
	} else {
		s.logger.Warn("process exited unexpectedly",
			"name", s.config.Name,
			"error", err,
		)
	}

	if s.config.OnExit != nil {
		if stopRequested {
			s.config.OnExit(nil)
		} else {
			s.config.OnExit(s.LastError())
		}
	}
}

// Stop gracefully stops the learner process.
//
// It sends SIGTERM to the process group, waits up to GracefulTimeout for
// exit, then sends SIGKILL. Stopping an already-stopped supervisor is a
// no-op. Callers that have already asked the learner to exit over the
// command channel use Stop as the backstop for a learner that ignores it.
func (s *Supervisor) Stop() error {
	s.mu.Lock()
	if s.status != StatusRunning && s.status != StatusStarting {
		s.mu.Unlock()
		return nil
	}
	s.stopRequested = true
	cmd := s.cmd
	done := s.done // Capture done channel under lock to avoid race
	s.mu.Unlock()

	if cmd == nil || cmd.Process == nil {
		return nil
	}

	// done channel may be nil if Stop() is called before Start() completes
	if done == nil {
		return nil
	}

	pid := cmd.Process.Pid
	s.logger.Info("stopping process", "name", s.config.Name, "pid", pid)

	// Send SIGTERM to the entire process group for graceful shutdown
	// Use negative PID to signal the process group (created via Setpgid)
	if err := syscall.Kill(-pid, syscall.SIGTERM); err != nil {
		// Process might have already exited
		if !errors.Is(err, syscall.ESRCH) {
			s.logger.Warn("failed to send SIGTERM to process group", "name", s.config.Name, "error", err)
		}
	}

	// Wait for graceful shutdown or timeout
	select {
	case <-done:
		s.logger.Info("process stopped gracefully", "name", s.config.Name)
		return nil
	case <-time.After(s.config.GracefulTimeout):
		s.logger.Warn("graceful shutdown timeout, sending SIGKILL",
			"name", s.config.Name,
			"timeout", s.config.GracefulTimeout,
		)
	}

	// Force kill the entire process group
	if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil {
		if !errors.Is(err, syscall.ESRCH) {
			return fmt.Errorf("killing process group %s: %w", s.config.Name, err)
		}
	}

	// Wait for process to fully exit
	<-done
	s.logger.Info("process killed", "name", s.config.Name)

	return nil
}

// WaitExited blocks until the monitor observes process exit.
// Returns immediately if the process was never started.
func (s *Supervisor) WaitExited() {
	s.mu.RLock()
	done := s.done
	s.mu.RUnlock()
	if done == nil {
		return
	}
	<-done
}

// Status returns the current status of the supervised process.
func (s *Supervisor) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// IsRunning returns true if the process is currently running.
func (s *Supervisor) IsRunning() bool {
	return s.Status() == StatusRunning
}

// LastError returns the error recorded for the last unexpected exit,
// or nil after a requested stop.
func (s *Supervisor) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}

// Uptime returns how long the process has been running.
// Returns 0 if the process is not running.
func (s *Supervisor) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.status != StatusRunning {
		return 0
	}
	return time.Since(s.startTime)
}

// PID returns the process ID, or 0 if not running.
func (s *Supervisor) PID() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cmd != nil && s.cmd.Process != nil {
		return s.cmd.Process.Pid
	}
	return 0
}

// Stats holds a point-in-time view of the supervised process.
type Stats struct {
	Name      string        `json:"name"`
	Status    Status        `json:"status"`
	PID       int           `json:"pid,omitempty"`
	Uptime    time.Duration `json:"uptime,omitempty"`
	LastError string        `json:"last_error,omitempty"`
}

// Stats returns current statistics for the process.
func (s *Supervisor) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{
		Name:   s.config.Name,
		Status: s.status,
	}

	if s.cmd != nil && s.cmd.Process != nil {
		stats.PID = s.cmd.Process.Pid
	}

	if s.status == StatusRunning {
		stats.Uptime = time.Since(s.startTime)
	}

	if s.lastError != nil {
		stats.LastError = s.lastError.Error()
	}

	return stats
}
