package storage

import (
	"log/slog"
	"os"

	"github.com/photoblog/resize-images/pkg/errors"
)

// Local provides the local filesystem operations the pipeline relies on.
type Local struct{}

// NewLocal creates a local filesystem handle.
func NewLocal() *Local {
	return &Local{}
}

// EnsureDir creates dir and any missing parents. It succeeds when dir already
// exists and fails when a path segment is not a directory.
func (l *Local) EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		slog.Error("directory_provision_failed", "path", dir, "error", err)
		return errors.Wrap(err, "failed to create directory")
	}
	slog.Debug("directory_ready", "path", dir)
	return nil
}

// Exists reports whether path exists and is a directory.
func (l *Local) Exists(dir string) bool {
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}

// Remove deletes a single file.
func (l *Local) Remove(path string) error {
	if err := os.Remove(path); err != nil {
		slog.Warn("file_remove_failed", "path", path, "error", err)
		return errors.Wrap(err, "failed to remove file")
	}
	slog.Debug("file_removed", "path", path)
	return nil
}
