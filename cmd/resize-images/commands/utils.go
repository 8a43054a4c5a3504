package commands

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/photoblog/resize-images/pkg/errors"
)

// ensureDirectories creates the artifact directories a command needs.
func ensureDirectories(catalogPath, fsmDBPath string) error {
	if catalogPath != "" {
		if err := os.MkdirAll(filepath.Dir(catalogPath), 0755); err != nil {
			return errors.Wrap(err, "failed to create catalog directory")
		}
	}

	if fsmDBPath != "" {
		if err := os.MkdirAll(fsmDBPath, 0755); err != nil {
			return errors.Wrap(err, "failed to create FSM directory")
		}
	}

	return nil
}

// lockPath returns the lock file guarding runs over sourceDir.
func lockPath(sourceDir string) (string, error) {
	abs, err := filepath.Abs(sourceDir)
	if err != nil {
		return "", errors.Wrap(err, "failed to resolve source directory")
	}
	sum := sha256.Sum256([]byte(abs))
	return filepath.Join(os.TempDir(), fmt.Sprintf("resize-images-%x.lock", sum[:8])), nil
}

// acquireRunLock takes the per-source-directory lock without blocking.
func acquireRunLock(sourceDir string) (*flock.Flock, error) {
	path, err := lockPath(sourceDir)
	if err != nil {
		return nil, err
	}

	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, errors.Wrap(err, "acquire lock")
	}
	if !ok {
		return nil, fmt.Errorf("another run is already processing %s (lock %s)", sourceDir, path)
	}
	return lock, nil
}
