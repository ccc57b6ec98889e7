package datalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// timestampLayout is the layout used in CSV filenames and as the first
// column of every line, matching the ground tooling's parser.
const timestampLayout = "2006-01-02_15-04-05"

// dirPermissions is the permission mode for the log directory.
const dirPermissions = 0750

// Logger appends parameter samples to a per-activation CSV file, rate limited
// so a chatty feed cannot bloat the downlink.
//
// Open creates a file named after the logged parameters and the open time:
//
//	CADC0888_CADC0894_..._2026-08-31_12-00-00.csv
//
// Each accepted write appends one line, stamped with the same layout:
//
//	2026-08-31_12-00-00,<v1>,...,<vN>
//
// The first write after Open is always accepted; later writes are dropped
// unless at least the configured minimum interval has passed since the last
// accepted write. Open and Close are idempotent.
//
// Thread Safety: all methods are safe for concurrent use.
type Logger struct {
	dir         string
	names       []string
	minInterval time.Duration

	mu        sync.Mutex
	file      *os.File
	lastWrite time.Time
	hasWrite  bool

	// now is overridable for tests.
	now func() time.Time
}

// New creates a CSV logger for the given ordered parameter names.
//
// Parameters:
//   - dir: Directory CSV files are created in (created on Open if missing)
//   - names: Parameter names, used for the filename and column order
//   - minInterval: Minimum time between two accepted lines
func New(dir string, names []string, minInterval time.Duration) *Logger {
	return &Logger{
		dir:         dir,
		names:       append([]string(nil), names...),
		minInterval: minInterval,
		now:         time.Now,
	}
}

// Open creates the log directory and a fresh CSV file.
//
// Calling Open while a file is already open is a no-op: the current file
// keeps collecting lines. The rate limiter is reset so the first write to
// a new file is always accepted.
//
// Returns:
//   - error: If the directory or file cannot be created
func (l *Logger) Open() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		return nil
	}

	if err := os.MkdirAll(l.dir, dirPermissions); err != nil {
		return fmt.Errorf("%w: creating directory: %w", ErrOpenFailed, err)
	}

	name := fmt.Sprintf("%s_%s.csv",
		strings.Join(l.names, "_"),
		l.now().Format(timestampLayout),
	)

	f, err := os.OpenFile(filepath.Join(l.dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOpenFailed, err)
	}

	l.file = f
	l.hasWrite = false
	return nil
}

// Log appends one sample line if the rate limiter allows it.
//
// The first call after Open always writes. Subsequent calls write only if
// at least the minimum interval has passed since the last accepted line;
// otherwise the sample is silently dropped.
//
// Parameters:
//   - values: One value per parameter, in declaration order
//
// Returns:
//   - bool: true if the line was written, false if dropped or not open
//   - error: If the write itself fails
func (l *Logger) Log(values []float64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return false, ErrNotOpen
	}

	now := l.now()
	if l.hasWrite && now.Sub(l.lastWrite) < l.minInterval {
		return false, nil
	}

	var b strings.Builder
	b.WriteString(now.Format(timestampLayout))
	for _, v := range values {
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
	}
	b.WriteByte('\n')

	if _, err := l.file.WriteString(b.String()); err != nil {
		return false, fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	l.lastWrite = now
	l.hasWrite = true
	return true, nil
}

// Close flushes and closes the current CSV file.
//
// Calling Close when no file is open is a no-op. After Close, a new Open
// starts a fresh file.
//
// Returns:
//   - error: If closing the file fails
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}

	err := l.file.Close()
	l.file = nil
	l.hasWrite = false
	if err != nil {
		return fmt.Errorf("datalog: closing file: %w", err)
	}
	return nil
}

// IsOpen reports whether a CSV file is currently open.
func (l *Logger) IsOpen() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file != nil
}

// Path returns the path of the currently open CSV file, or "" if closed.
func (l *Logger) Path() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return ""
	}
	return l.file.Name()
}
