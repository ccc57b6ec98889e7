package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// timestampFormat is the layout used in export directory names.
const timestampFormat = "2006-01-02_15-04-05"

// Directory and file permission modes for exported artifacts.
const (
	dirPermissions  = 0750
	filePermissions = 0640
)

// Exporter copies learner artifacts into a timestamped staging directory
// for downlink.
//
// Each export creates destRoot/learning/<prefix>-<timestamp>/ with models
// and logs subdirectories holding copies of the learner's output. The
// subdirectories are created even when the sources hold nothing, so ground
// tooling always finds the same layout.
type Exporter struct {
	destRoot string
	prefix   string
}

// New creates an exporter.
//
// Parameters:
//   - destRoot: Staging root (e.g. ./toGround); exports land under
//     destRoot/learning/
//   - prefix: Per-export directory name prefix (e.g. "mochi")
func New(destRoot, prefix string) *Exporter {
	return &Exporter{
		destRoot: destRoot,
		prefix:   prefix,
	}
}

// Export copies the given source directories into a fresh export directory
// named after at (typically the time of the last processed parameter
// sample). A zero at falls back to the current time.
//
// Parameters:
//   - modelsDir: Learner models directory (copied to <export>/models)
//   - logsDir: Learner logs directory (copied to <export>/logs)
//   - at: Timestamp baked into the export directory name
//
// Returns:
//   - string: Path of the created export directory
//   - error: ErrExport (wrapped) if a source is missing or a copy fails
func (e *Exporter) Export(modelsDir, logsDir string, at time.Time) (string, error) {
	if at.IsZero() {
		at = time.Now()
	}

	exportDir := filepath.Join(
		e.destRoot,
		"learning",
		fmt.Sprintf("%s-%s", e.prefix, at.Format(timestampFormat)),
	)

	if err := os.MkdirAll(exportDir, dirPermissions); err != nil {
		return "", fmt.Errorf("%w: creating export directory: %w", ErrExport, err)
	}

	for _, src := range []struct {
		dir  string
		name string
	}{
		{modelsDir, "models"},
		{logsDir, "logs"},
	} {
		target := filepath.Join(exportDir, src.name)
		if err := os.MkdirAll(target, dirPermissions); err != nil {
			return "", fmt.Errorf("%w: creating %s directory: %w", ErrExport, src.name, err)
		}
		if _, err := os.Stat(src.dir); err != nil {
			return "", fmt.Errorf("%w: reading %s source: %w", ErrExport, src.name, err)
		}
		if err := copyTree(src.dir, target); err != nil {
			return "", fmt.Errorf("%w: copying %s: %w", ErrExport, src.name, err)
		}
	}

	return exportDir, nil
}

// copyTree recursively copies the directory at src to dst.
// Symlinks and other non-regular files are skipped.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(target, dirPermissions)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return copyFile(path, target)
	})
}

// copyFile copies a single regular file.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermissions)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
