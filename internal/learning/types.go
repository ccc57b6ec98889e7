package learning

import (
	"context"
	"time"

	"github.com/orbitml/orbitai-core/internal/params"
)

// State represents the lifecycle state of a learning session.
type State string

const (
	// StateIdle means no session is active; Start is allowed.
	StateIdle State = "idle"

	// StateStarting covers launch, connect, and bootstrap.
	StateStarting State = "starting"

	// StateRunning means the iteration loop is ticking.
	StateRunning State = "running"

	// StateStopping covers the save/exit handshake and export.
	StateStopping State = "stopping"
)

// Result describes how a session ended.
type Result string

const (
	// ResultCompleted means the configured iteration count was reached.
	ResultCompleted Result = "completed"

	// ResultStopped means an operator stopped the session early.
	ResultStopped Result = "stopped"

	// ResultCrashed means the learner process died mid-session.
	ResultCrashed Result = "crashed"
)

// Modes for the iteration loop. These double as the command verbs sent
// to the learner each tick.
const (
	ModeTrain = "train"
	ModeInfer = "infer"
)

// Launcher starts and stops the external learner process.
// Satisfied by *process.Supervisor.
type Launcher interface {
	Start(ctx context.Context) error
	Stop() error
}

// Commander is the fire-and-forget command link to the learner.
// Satisfied by *command.Channel.
type Commander interface {
	Connect(ctx context.Context) error
	Send(cmd string) error
	Close() error
}

// SnapshotSource provides consistent parameter snapshots.
// Satisfied by *params.Store.
type SnapshotSource interface {
	Snapshot() params.Snapshot
}

// ArtifactExporter stages learner artifacts for downlink.
// Satisfied by *export.Exporter.
type ArtifactExporter interface {
	Export(modelsDir, logsDir string, at time.Time) (string, error)
}

// History records session lifecycle for later inspection.
// Satisfied by *Repository. May be nil if no history is kept.
type History interface {
	Started(ctx context.Context, rec Record) error
	Finished(ctx context.Context, id string, end End) error
}

// Record is the durable description of a session at start time.
type Record struct {
	ID         string
	Mode       string
	Iterations int
	Interval   time.Duration
	StartedAt  time.Time
}

// End is the durable description of how a session finished.
type End struct {
	StoppedAt     time.Time
	IterationsRun int
	Result        Result
	Error         string
	ExportDir     string
}

// Config holds the experiment settings for one session.
type Config struct {
	// Mode selects the verb sent each tick: ModeTrain or ModeInfer.
	// Train sessions bootstrap with reset; infer sessions with load.
	Mode string

	// Interval is the wait between iterations. Zero means tick
	// back-to-back.
	Interval time.Duration

	// Iterations is the tick count after which the session completes
	// on its own.
	Iterations int

	// LabelIndex is the position of the label-source parameter within
	// each snapshot.
	LabelIndex int

	// LabelThreshold is the elevation above which the label is 0
	// (target out of frame), otherwise 1.
	LabelThreshold float64

	// CommandSettle is the fixed wait after the save and exit commands,
	// giving the learner time to act before the next step.
	CommandSettle time.Duration

	// ModelsDir and LogsDir are the learner artifact directories
	// exported when the session ends.
	ModelsDir string
	LogsDir   string
}

// Logger is the minimal logging interface the session needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger discards all log output. Used when no logger is set.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
