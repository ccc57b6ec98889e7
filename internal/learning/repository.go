package learning

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/orbitml/orbitai-core/internal/infrastructure/database"
)

// ErrSessionNotFound is returned when looking up an unknown session ID.
var ErrSessionNotFound = errors.New("learning: session not found")

// StoredSession is one row of session history.
type StoredSession struct {
	ID            string     `json:"id"`
	Mode          string     `json:"mode"`
	Iterations    int        `json:"iterations"`
	Interval      string     `json:"interval"`
	StartedAt     time.Time  `json:"started_at"`
	StoppedAt     *time.Time `json:"stopped_at,omitempty"`
	IterationsRun *int       `json:"iterations_run,omitempty"`
	Result        string     `json:"result,omitempty"`
	Error         string     `json:"error,omitempty"`
	ExportDir     string     `json:"export_dir,omitempty"`
}

// Repository persists session history in SQLite.
//
// One row per session: inserted on start, finalised on finish. Rows whose
// end columns are NULL belong to sessions that were interrupted by a
// service crash or are still running.
type Repository struct {
	db *database.DB
}

// NewRepository creates a repository over an open database.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// Started inserts the session-start row.
func (r *Repository) Started(ctx context.Context, rec Record) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, mode, iterations, interval_ms, started_at)
		VALUES (?, ?, ?, ?, ?)`,
		rec.ID,
		rec.Mode,
		rec.Iterations,
		rec.Interval.Milliseconds(),
		rec.StartedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

// Finished finalises the session row.
func (r *Repository) Finished(ctx context.Context, id string, end End) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE sessions
		SET stopped_at = ?, iterations_run = ?, result = ?, error = ?, export_dir = ?
		WHERE id = ?`,
		end.StoppedAt.UTC().Format(time.RFC3339),
		end.IterationsRun,
		string(end.Result),
		nullable(end.Error),
		nullable(end.ExportDir),
		id,
	)
	if err != nil {
		return fmt.Errorf("finalising session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("finalising session: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return nil
}

// Get returns one session by ID.
func (r *Repository) Get(ctx context.Context, id string) (*StoredSession, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, mode, iterations, interval_ms, started_at,
		       stopped_at, iterations_run, result, error, export_dir
		FROM sessions WHERE id = ?`, id)

	s, err := scanSession(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	return s, nil
}

// List returns up to limit sessions, most recent first.
func (r *Repository) List(ctx context.Context, limit int) ([]StoredSession, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, mode, iterations, interval_ms, started_at,
		       stopped_at, iterations_run, result, error, export_dir
		FROM sessions ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var sessions []StoredSession
	for rows.Next() {
		s, err := scanSession(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sessions = append(sessions, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}
	return sessions, nil
}

// scanSession scans one sessions row from either a *sql.Row or *sql.Rows.
func scanSession(scan func(dest ...any) error) (*StoredSession, error) {
	var (
		s          StoredSession
		intervalMS int64
		startedAt  string
		stoppedAt  sql.NullString
		runCount   sql.NullInt64
		result     sql.NullString
		errMsg     sql.NullString
		exportDir  sql.NullString
	)

	if err := scan(
		&s.ID, &s.Mode, &s.Iterations, &intervalMS, &startedAt,
		&stoppedAt, &runCount, &result, &errMsg, &exportDir,
	); err != nil {
		return nil, err
	}

	s.Interval = (time.Duration(intervalMS) * time.Millisecond).String()

	t, err := time.Parse(time.RFC3339, startedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing started_at: %w", err)
	}
	s.StartedAt = t

	if stoppedAt.Valid {
		t, err := time.Parse(time.RFC3339, stoppedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parsing stopped_at: %w", err)
		}
		s.StoppedAt = &t
	}
	if runCount.Valid {
		n := int(runCount.Int64)
		s.IterationsRun = &n
	}
	if result.Valid {
		s.Result = result.String
	}
	if errMsg.Valid {
		s.Error = errMsg.String
	}
	if exportDir.Valid {
		s.ExportDir = exportDir.String
	}

	return &s, nil
}

// nullable maps "" to NULL for optional text columns.
func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
