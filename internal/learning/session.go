package learning

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/orbitml/orbitai-core/internal/command"
)

// historyTimeout bounds the database writes on session start and finish.
const historyTimeout = 5 * time.Second

// Session drives one learning experiment end to end.
//
// A session owns the full lifecycle: launch the learner, connect the
// command channel, send the bootstrap command (reset for training, load
// for inference), then tick the iteration loop until the configured count
// is reached, an operator stops it, or the learner dies. Teardown always
// runs the same path: save/exit handshake (skipped after a crash), process
// backstop, artifact export.
//
// State transitions:
//
//	Idle -> Starting -> Running -> Stopping -> Idle
//
// Start is rejected unless Idle; Stop is rejected unless Running.
type Session struct {
	cfg      Config
	launcher Launcher
	commands Commander
	source   SnapshotSource
	exporter ArtifactExporter
	history  History

	logger Logger

	// onIteration is called after every successful tick (optional).
	onIteration func(sessionID string, iteration, label int, values []float64)

	// onStateChange is called on every state transition (optional).
	onStateChange func(state State)

	// onComplete is called when the loop exhausts its iteration count
	// (optional). Not called for operator stops or crashes.
	onComplete func(sessionID string)

	mu             sync.Mutex
	state          State
	sessionID      string
	startedAt      time.Time
	iterationsRun  int
	lastSnapshotAt time.Time
	stopCh         chan struct{}
	loopDone       chan struct{}
}

// NewSession creates a session over the given collaborators.
//
// history may be nil if no durable session record is wanted.
func NewSession(
	cfg Config,
	launcher Launcher,
	commands Commander,
	source SnapshotSource,
	exporter ArtifactExporter,
	history History,
) *Session {
	return &Session{
		cfg:      cfg,
		launcher: launcher,
		commands: commands,
		source:   source,
		exporter: exporter,
		history:  history,
		logger:   noopLogger{},
		state:    StateIdle,
	}
}

// SetLogger sets the logger for the session.
func (s *Session) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	s.logger = logger
}

// SetOnIteration sets a callback invoked after every successful iteration.
// Must be set before Start.
func (s *Session) SetOnIteration(fn func(sessionID string, iteration, label int, values []float64)) {
	s.onIteration = fn
}

// SetOnStateChange sets a callback invoked on every state transition.
// Must be set before Start.
func (s *Session) SetOnStateChange(fn func(state State)) {
	s.onStateChange = fn
}

// SetOnComplete sets a callback invoked when a session finishes its full
// iteration count on its own. The process owner uses this to shut the
// application down once the experiment is over.
// Must be set before Start.
func (s *Session) SetOnComplete(fn func(sessionID string)) {
	s.onComplete = fn
}

// Start brings the session from Idle to Running.
//
// Steps, in order: launch the learner, connect the command channel (which
// waits the learner's bind settle), send the bootstrap command, start the
// iteration loop.
//
// A connect failure is returned with the learner left running: the socket
// state of a learner that launched but never bound is unknown, so the
// operator decides whether to retry or power-cycle the experiment.
//
// Returns:
//   - error: ErrAlreadyRunning if not Idle, ErrInvalidMode for a bad mode,
//     or the wrapped failure of the step that failed
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.cfg.Mode != ModeTrain && s.cfg.Mode != ModeInfer {
		mode := s.cfg.Mode
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.state = StateStarting
	s.mu.Unlock()
	s.notifyState(StateStarting)

	id := uuid.NewString()
	s.logger.Info("starting learning session",
		"session_id", id,
		"mode", s.cfg.Mode,
		"iterations", s.cfg.Iterations,
		"interval", s.cfg.Interval,
	)

	if err := s.launcher.Start(ctx); err != nil {
		s.toIdle()
		return fmt.Errorf("launching learner: %w", err)
	}

	if err := s.commands.Connect(ctx); err != nil {
		// Learner stays up: its socket state is unknown and killing it
		// here could discard a half-initialised model directory. The
		// operator resolves it.
		s.toIdle()
		return fmt.Errorf("connecting to learner: %w", err)
	}

	bootstrap := command.Reset()
	if s.cfg.Mode == ModeInfer {
		bootstrap = command.Load()
	}
	if err := s.commands.Send(bootstrap); err != nil {
		if cerr := s.commands.Close(); cerr != nil {
			s.logger.Warn("closing command channel", "error", cerr)
		}
		if serr := s.launcher.Stop(); serr != nil {
			s.logger.Warn("stopping learner", "error", serr)
		}
		s.toIdle()
		return fmt.Errorf("bootstrapping learner: %w", err)
	}

	s.mu.Lock()
	s.sessionID = id
	s.startedAt = time.Now()
	s.iterationsRun = 0
	s.lastSnapshotAt = time.Time{}
	s.stopCh = make(chan struct{})
	s.loopDone = make(chan struct{})
	s.state = StateRunning
	s.mu.Unlock()
	s.notifyState(StateRunning)

	s.recordStarted(id)

	go s.run()

	return nil
}

// SetMode changes the mode used by the next session.
//
// Returns:
//   - error: ErrInvalidMode for an unknown mode, ErrAlreadyRunning while a
//     session is active
func (s *Session) SetMode(mode string) error {
	if mode != ModeTrain && mode != ModeInfer {
		return fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		return ErrAlreadyRunning
	}
	s.cfg.Mode = mode
	return nil
}

// Mode returns the mode the next (or current) session runs in.
func (s *Session) Mode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Mode
}

// Stop ends the session at an operator's request.
//
// It signals the loop, waits for it to finish its current tick, runs the
// save/exit handshake, stops the process, and exports the learner's
// artifacts. The export error, if any, is Stop's return value: everything
// before it is best-effort and only logged.
//
// Returns:
//   - error: ErrNotRunning if no session is active, or the export failure
func (s *Session) Stop() error {
	return s.stop(true, nil)
}

// HandleProcessExit reacts to the learner process ending.
//
// Wire this as the supervisor's OnExit callback. A nil error means the
// exit was requested (normal teardown already in flight) and is ignored.
// A non-nil error during Running aborts the session.
func (s *Session) HandleProcessExit(err error) {
	if err == nil {
		return
	}

	s.mu.Lock()
	running := s.state == StateRunning
	s.mu.Unlock()
	if !running {
		return
	}

	s.logger.Error("learner process died, aborting session", "error", err)
	if serr := s.stop(false, err); serr != nil && !errors.Is(serr, ErrNotRunning) {
		s.logger.Error("aborting session", "error", serr)
	}
}

// stop runs the shared teardown path.
//
// requestedByUser controls whether stop joins the iteration loop: the
// loop's own completion and crash paths call stop from inside the loop
// goroutine, where joining would deadlock.
func (s *Session) stop(requestedByUser bool, cause error) error {
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		return ErrNotRunning
	}
	s.state = StateStopping
	stopCh := s.stopCh
	loopDone := s.loopDone
	id := s.sessionID
	s.mu.Unlock()
	s.notifyState(StateStopping)

	close(stopCh)
	if requestedByUser {
		<-loopDone
	}

	crashed := cause != nil
	if crashed {
		s.logger.Warn("session aborting", "session_id", id, "cause", cause)
	} else {
		// Ask the learner to persist its models, then to exit. Both are
		// fire-and-forget; the settle gives the learner time to act.
		if err := s.commands.Send(command.Save()); err != nil {
			s.logger.Warn("sending save", "error", err)
		}
		s.settle()
		if err := s.commands.Send(command.Exit()); err != nil {
			s.logger.Warn("sending exit", "error", err)
		}
		s.settle()
	}

	if err := s.commands.Close(); err != nil {
		s.logger.Warn("closing command channel", "error", err)
	}

	// Backstop for a learner that ignored exit (or a crash that left
	// the process table entry): SIGTERM then SIGKILL.
	if err := s.launcher.Stop(); err != nil {
		s.logger.Warn("stopping learner process", "error", err)
	}

	s.mu.Lock()
	iterations := s.iterationsRun
	exportAt := s.lastSnapshotAt
	s.mu.Unlock()

	// Export directories are stamped with the last sample the session
	// processed; a session that never ticked falls back to wall time.
	exportDir, exportErr := s.exporter.Export(s.cfg.ModelsDir, s.cfg.LogsDir, exportAt)
	if exportErr != nil {
		s.logger.Error("exporting artifacts", "session_id", id, "error", exportErr)
	} else {
		s.logger.Info("artifacts exported", "session_id", id, "dir", exportDir)
	}

	result := ResultCompleted
	switch {
	case crashed:
		result = ResultCrashed
	case requestedByUser:
		result = ResultStopped
	}

	s.recordFinished(id, iterations, result, cause, exportDir)

	// Idle last: once Idle is visible the session is restartable, so the
	// history row must already be final.
	s.mu.Lock()
	s.state = StateIdle
	s.mu.Unlock()
	s.notifyState(StateIdle)

	s.logger.Info("session ended",
		"session_id", id,
		"result", result,
		"iterations_run", iterations,
	)

	if result == ResultCompleted {
		s.logger.Info("experiment finished", "session_id", id)
		if s.onComplete != nil {
			s.onComplete(id)
		}
	}

	return exportErr
}

// run is the iteration loop. Each tick waits one interval, then snapshots
// and sends; a stop request interrupts the wait. The loop exits when the
// stop channel closes or the iteration count is reached. A failed send is
// logged and the tick is otherwise skipped; the loop keeps going so a
// transient socket hiccup does not end the experiment.
func (s *Session) run() {
	defer close(s.loopDone)

	s.mu.Lock()
	stopCh := s.stopCh
	id := s.sessionID
	s.mu.Unlock()

	for i := 1; ; i++ {
		if s.cfg.Interval > 0 {
			select {
			case <-stopCh:
				return
			case <-time.After(s.cfg.Interval):
			}
		}

		select {
		case <-stopCh:
			return
		default:
		}

		snap := s.source.Snapshot()
		label := s.deriveLabel(snap.Values)

		var cmd string
		if s.cfg.Mode == ModeTrain {
			cmd = command.Train(label, snap.Values, snap.TakenAt)
		} else {
			cmd = command.Infer(label, snap.Values, snap.TakenAt)
		}

		sent := true
		if err := s.commands.Send(cmd); err != nil {
			s.logger.Warn("sending learn command", "iteration", i, "error", err)
			sent = false
		}

		s.mu.Lock()
		s.iterationsRun = i
		if sent {
			s.lastSnapshotAt = snap.TakenAt
		}
		s.mu.Unlock()

		if sent && s.onIteration != nil {
			s.onIteration(id, i, label, snap.Values)
		}

		if i >= s.cfg.Iterations {
			if err := s.stop(false, nil); err != nil && !errors.Is(err, ErrNotRunning) {
				s.logger.Error("completing session", "error", err)
			}
			return
		}
	}
}

// deriveLabel maps the label-source value to a class label.
//
// A value above the threshold means the target is out of frame: label 0.
// At or below, label 1.
func (s *Session) deriveLabel(values []float64) int {
	if s.cfg.LabelIndex < 0 || s.cfg.LabelIndex >= len(values) {
		return 0
	}
	if values[s.cfg.LabelIndex] > s.cfg.LabelThreshold {
		return 0
	}
	return 1
}

// settle sleeps the configured post-command settle period.
func (s *Session) settle() {
	if s.cfg.CommandSettle > 0 {
		time.Sleep(s.cfg.CommandSettle)
	}
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SessionID returns the ID of the current (or most recent) session.
func (s *Session) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// IterationsRun returns the number of completed iterations.
func (s *Session) IterationsRun() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.iterationsRun
}

// toIdle returns the session to Idle after a failed start.
func (s *Session) toIdle() {
	s.mu.Lock()
	s.state = StateIdle
	s.mu.Unlock()
	s.notifyState(StateIdle)
}

// notifyState invokes the state-change callback if set.
func (s *Session) notifyState(state State) {
	if s.onStateChange != nil {
		s.onStateChange(state)
	}
}

// recordStarted writes the session-start row, logging any failure.
func (s *Session) recordStarted(id string) {
	if s.history == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
	defer cancel()

	s.mu.Lock()
	rec := Record{
		ID:         id,
		Mode:       s.cfg.Mode,
		Iterations: s.cfg.Iterations,
		Interval:   s.cfg.Interval,
		StartedAt:  s.startedAt,
	}
	s.mu.Unlock()

	if err := s.history.Started(ctx, rec); err != nil {
		s.logger.Warn("recording session start", "error", err)
	}
}

// recordFinished writes the session-end columns, logging any failure.
func (s *Session) recordFinished(id string, iterations int, result Result, cause error, exportDir string) {
	if s.history == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
	defer cancel()

	end := End{
		StoppedAt:     time.Now(),
		IterationsRun: iterations,
		Result:        result,
		ExportDir:     exportDir,
	}
	if cause != nil {
		end.Error = cause.Error()
	}

	if err := s.history.Finished(ctx, id, end); err != nil {
		s.logger.Warn("recording session end", "error", err)
	}
}
