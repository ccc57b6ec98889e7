package datalog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func testLogger(t *testing.T, minInterval time.Duration) *Logger {
	t.Helper()
	return New(t.TempDir(), []string{"CADC0888", "CADC0894"}, minInterval)
}

func TestOpen_CreatesFile(t *testing.T) {
	l := testLogger(t, time.Second)

	if err := l.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer l.Close()

	path := l.Path()
	if path == "" {
		t.Fatal("Path() empty after Open()")
	}

	base := filepath.Base(path)
	if !strings.HasPrefix(base, "CADC0888_CADC0894_") {
		t.Errorf("filename = %q, want CADC0888_CADC0894_ prefix", base)
	}
	if !strings.HasSuffix(base, ".csv") {
		t.Errorf("filename = %q, want .csv suffix", base)
	}
}

func TestOpen_Idempotent(t *testing.T) {
	l := testLogger(t, time.Second)

	if err := l.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer l.Close()

	first := l.Path()
	if err := l.Open(); err != nil {
		t.Fatalf("second Open() error = %v", err)
	}
	if l.Path() != first {
		t.Errorf("second Open() switched file: %q -> %q", first, l.Path())
	}
}

func TestClose_Idempotent(t *testing.T) {
	l := testLogger(t, time.Second)

	if err := l.Close(); err != nil {
		t.Errorf("Close() before Open() error = %v", err)
	}

	if err := l.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := l.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := l.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if l.IsOpen() {
		t.Error("IsOpen() = true after Close()")
	}
}

func TestLog_NotOpen(t *testing.T) {
	l := testLogger(t, time.Second)

	_, err := l.Log([]float64{1, 2})
	if !errors.Is(err, ErrNotOpen) {
		t.Errorf("Log() error = %v, want ErrNotOpen", err)
	}
}

func TestLog_FirstWriteAlwaysAccepted(t *testing.T) {
	l := testLogger(t, time.Hour)

	if err := l.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer l.Close()

	wrote, err := l.Log([]float64{1.5, -0.25})
	if err != nil {
		t.Fatalf("Log() error = %v", err)
	}
	if !wrote {
		t.Error("first Log() dropped, want accepted")
	}
}

func TestLog_RateLimited(t *testing.T) {
	l := testLogger(t, time.Hour)

	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	if err := l.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer l.Close()

	wrote, _ := l.Log([]float64{1, 2})
	if !wrote {
		t.Fatal("first Log() dropped")
	}

	// Within the interval: dropped, no error.
	now = now.Add(30 * time.Minute)
	wrote, err := l.Log([]float64{3, 4})
	if err != nil {
		t.Fatalf("Log() error = %v", err)
	}
	if wrote {
		t.Error("Log() within min interval accepted, want dropped")
	}

	// After the interval: accepted.
	now = now.Add(31 * time.Minute)
	wrote, err = l.Log([]float64{5, 6})
	if err != nil {
		t.Fatalf("Log() error = %v", err)
	}
	if !wrote {
		t.Error("Log() after min interval dropped, want accepted")
	}
}

func TestLog_LineFormat(t *testing.T) {
	l := testLogger(t, 0)

	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	if err := l.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if _, err := l.Log([]float64{1.5, -0.25}); err != nil {
		t.Fatalf("Log() error = %v", err)
	}

	path := l.Path()
	if err := l.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}

	// Line timestamp uses the same layout as the filename.
	want := "2026-08-31_12-00-00,1.5,-0.25\n"
	if string(data) != want {
		t.Errorf("file contents = %q, want %q", data, want)
	}
}

func TestReopen_ResetsRateLimiter(t *testing.T) {
	l := testLogger(t, time.Hour)

	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	if err := l.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, err := l.Log([]float64{1, 2}); err != nil {
		t.Fatalf("Log() error = %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// New file: first write accepted immediately despite the interval.
	now = now.Add(time.Second)
	if err := l.Open(); err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer l.Close()

	wrote, err := l.Log([]float64{3, 4})
	if err != nil {
		t.Fatalf("Log() error = %v", err)
	}
	if !wrote {
		t.Error("first Log() after reopen dropped, want accepted")
	}
}
