package process

import (
	"context"
	"errors"
	"testing"
	"time"
)

// waitForStatus polls until the supervisor reaches the wanted status or times out.
func waitForStatus(t *testing.T, s *Supervisor, want Status, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if s.Status() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("status = %v, want %v after %v", s.Status(), want, timeout)
}

func TestStartStop(t *testing.T) {
	s := NewSupervisor(Config{
		Name:            "sleeper",
		Binary:          "/bin/sleep",
		Args:            []string{"30"},
		GracefulTimeout: 2 * time.Second,
	})

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if !s.IsRunning() {
		t.Error("IsRunning() = false after Start()")
	}
	if s.PID() == 0 {
		t.Error("PID() = 0 for running process")
	}

	if err := s.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}

	waitForStatus(t, s, StatusStopped, 2*time.Second)

	if s.LastError() != nil {
		t.Errorf("LastError() = %v after requested stop, want nil", s.LastError())
	}
}

func TestStart_ContextCancelDoesNotKillProcess(t *testing.T) {
	exited := make(chan error, 1)
	s := NewSupervisor(Config{
		Name:            "sleeper",
		Binary:          "/bin/sleep",
		Args:            []string{"30"},
		GracefulTimeout: 2 * time.Second,
		OnExit: func(err error) {
			exited <- err
		},
	})

	// A short-lived start context (an HTTP request's, for instance) must
	// not own the process lifetime.
	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	cancel()

	select {
	case err := <-exited:
		t.Fatalf("process exited after start-context cancel: %v", err)
	case <-time.After(300 * time.Millisecond):
	}

	if !s.IsRunning() {
		t.Error("IsRunning() = false after start-context cancel")
	}

	if err := s.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

func TestStart_CancelledContext(t *testing.T) {
	s := NewSupervisor(Config{
		Name:   "sleeper",
		Binary: "/bin/sleep",
		Args:   []string{"30"},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Start(ctx)
	if !errors.Is(err, ErrStartFailed) {
		t.Fatalf("Start() with cancelled context error = %v, want ErrStartFailed", err)
	}
	if s.Status() != StatusFailed {
		t.Errorf("Status() = %v, want %v", s.Status(), StatusFailed)
	}
}

func TestStart_AlreadyRunning(t *testing.T) {
	s := NewSupervisor(Config{
		Name:   "sleeper",
		Binary: "/bin/sleep",
		Args:   []string{"30"},
	})

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop()

	err := s.Start(context.Background())
	if !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Start() error = %v, want ErrAlreadyRunning", err)
	}
}

func TestStart_BadBinary(t *testing.T) {
	s := NewSupervisor(Config{
		Name:   "missing",
		Binary: "/nonexistent/binary",
	})

	err := s.Start(context.Background())
	if !errors.Is(err, ErrStartFailed) {
		t.Fatalf("Start() error = %v, want ErrStartFailed", err)
	}
	if s.Status() != StatusFailed {
		t.Errorf("Status() = %v, want %v", s.Status(), StatusFailed)
	}
}

func TestUnexpectedExit(t *testing.T) {
	exited := make(chan error, 1)
	s := NewSupervisor(Config{
		Name:   "oneshot",
		Binary: "/bin/true",
		OnExit: func(err error) {
			exited <- err
		},
	})

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	select {
	case err := <-exited:
		if !errors.Is(err, ErrUnexpectedExit) {
			t.Errorf("OnExit err = %v, want ErrUnexpectedExit", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("OnExit not called")
	}

	waitForStatus(t, s, StatusFailed, time.Second)
}

func TestUnexpectedExit_NonZero(t *testing.T) {
	exited := make(chan error, 1)
	s := NewSupervisor(Config{
		Name:   "failing",
		Binary: "/bin/false",
		OnExit: func(err error) {
			exited <- err
		},
	})

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	select {
	case err := <-exited:
		if err == nil {
			t.Error("OnExit err = nil for non-zero exit, want error")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("OnExit not called")
	}

	if s.LastError() == nil {
		t.Error("LastError() = nil after crash, want error")
	}
}

func TestStop_NotRunning(t *testing.T) {
	s := NewSupervisor(Config{
		Name:   "never-started",
		Binary: "/bin/sleep",
	})

	if err := s.Stop(); err != nil {
		t.Errorf("Stop() on stopped supervisor error = %v, want nil", err)
	}
}

func TestRestartAfterStop(t *testing.T) {
	s := NewSupervisor(Config{
		Name:            "sleeper",
		Binary:          "/bin/sleep",
		Args:            []string{"30"},
		GracefulTimeout: 2 * time.Second,
	})

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	waitForStatus(t, s, StatusStopped, 2*time.Second)

	// A stopped supervisor can be started again for a new session.
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("restart error = %v", err)
	}
	defer s.Stop()

	if !s.IsRunning() {
		t.Error("IsRunning() = false after restart")
	}
}

func TestWaitExited(t *testing.T) {
	s := NewSupervisor(Config{
		Name:   "oneshot",
		Binary: "/bin/true",
	})

	// Never started: returns immediately.
	s.WaitExited()

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	done := make(chan struct{})
	go func() {
		s.WaitExited()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("WaitExited() did not return after process exit")
	}
}

func TestStats(t *testing.T) {
	s := NewSupervisor(Config{
		Name:   "sleeper",
		Binary: "/bin/sleep",
		Args:   []string{"30"},
	})

	stats := s.Stats()
	if stats.Status != StatusStopped {
		t.Errorf("Stats().Status = %v, want %v", stats.Status, StatusStopped)
	}

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop()

	stats = s.Stats()
	if stats.Status != StatusRunning {
		t.Errorf("Stats().Status = %v, want %v", stats.Status, StatusRunning)
	}
	if stats.PID == 0 {
		t.Error("Stats().PID = 0 for running process")
	}
	if stats.Name != "sleeper" {
		t.Errorf("Stats().Name = %q, want sleeper", stats.Name)
	}
}
