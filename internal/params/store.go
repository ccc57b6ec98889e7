package params

import (
	"fmt"
	"sync"
	"time"
)

// Logger is the minimal logging interface the store needs.
// Satisfied by logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger discards all log output. Used when no logger is set.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Store holds the latest value of each declared OBSW parameter.
//
// The parameter set is fixed at construction: updates for undeclared names
// are logged and dropped, never stored. Parameters that have not received
// a value yet report the configured default, so a learning iteration can
// always be assembled even before the first sample arrives.
//
// Thread Safety: all methods are safe for concurrent use. Snapshot returns
// values read under a single lock acquisition, so a snapshot is internally
// consistent.
type Store struct {
	names        []string
	index        map[string]int
	defaultValue float64

	mu     sync.RWMutex
	values []float64
	set    []bool

	logger   Logger
	loggerMu sync.RWMutex
}

// Snapshot is a consistent view of all declared parameters at one instant.
type Snapshot struct {
	// Values holds one value per declared parameter, in declaration order.
	Values []float64

	// TakenAt is when the snapshot was taken.
	TakenAt time.Time
}

// NewStore creates a store for the given ordered parameter names.
//
// Parameters:
//   - names: Declared parameter names. Order determines Snapshot value order.
//   - defaultValue: Reported for parameters that have never been set.
//
// Returns:
//   - *Store: Ready-to-use store
//   - error: If names is empty or contains duplicates
func NewStore(names []string, defaultValue float64) (*Store, error) {
	if len(names) == 0 {
		return nil, ErrNoParameters
	}

	index := make(map[string]int, len(names))
	for i, name := range names {
		if name == "" {
			return nil, fmt.Errorf("%w: empty name at position %d", ErrInvalidParameter, i)
		}
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("%w: duplicate name %q", ErrInvalidParameter, name)
		}
		index[name] = i
	}

	return &Store{
		names:        append([]string(nil), names...),
		index:        index,
		defaultValue: defaultValue,
		values:       make([]float64, len(names)),
		set:          make([]bool, len(names)),
		logger:       noopLogger{},
	}, nil
}

// SetLogger sets the logger used for dropped-update warnings.
func (s *Store) SetLogger(logger Logger) {
	s.loggerMu.Lock()
	if logger == nil {
		s.logger = noopLogger{}
	} else {
		s.logger = logger
	}
	s.loggerMu.Unlock()
}

func (s *Store) getLogger() Logger {
	s.loggerMu.RLock()
	defer s.loggerMu.RUnlock()
	return s.logger
}

// Set records a new value for a declared parameter.
//
// Updates for names outside the declared set are logged at warn level and
// dropped. This keeps the snapshot width stable for the lifetime of the
// store regardless of what arrives on the feed.
func (s *Store) Set(name string, value float64) {
	i, ok := s.index[name]
	if !ok {
		s.getLogger().Warn("dropping update for undeclared parameter",
			"name", name,
			"value", value,
		)
		return
	}

	s.mu.Lock()
	s.values[i] = value
	s.set[i] = true
	s.mu.Unlock()

	s.getLogger().Debug("parameter updated", "name", name, "value", value)
}

// Get returns the current value of a declared parameter.
//
// Returns:
//   - float64: The latest value, or the default if never set
//   - error: ErrUnknownParameter if the name is not declared
func (s *Store) Get(name string) (float64, error) {
	i, ok := s.index[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownParameter, name)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.set[i] {
		return s.defaultValue, nil
	}
	return s.values[i], nil
}

// Snapshot returns the current value of every declared parameter, in
// declaration order, together with the time the snapshot was taken.
// Never-set parameters report the default value.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	values := make([]float64, len(s.values))
	for i := range s.values {
		if s.set[i] {
			values[i] = s.values[i]
		} else {
			values[i] = s.defaultValue
		}
	}
	s.mu.RUnlock()

	return Snapshot{
		Values:  values,
		TakenAt: time.Now(),
	}
}

// Names returns the declared parameter names in declaration order.
// The returned slice is a copy.
func (s *Store) Names() []string {
	return append([]string(nil), s.names...)
}

// Has reports whether a name is in the declared set.
func (s *Store) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Len returns the number of declared parameters.
func (s *Store) Len() int {
	return len(s.names)
}
