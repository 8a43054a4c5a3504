package imagetool

import (
	"io"
	"os"
	"path/filepath"

	"github.com/photoblog/resize-images/pkg/errors"
)

// CopyFile duplicates src to dst byte for byte. The data is written to a
// temporary sibling and renamed into place, so dst is either the complete
// copy or untouched.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrap(err, "failed to open source")
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return errors.Wrap(err, "failed to stat source")
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".copy-*")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file")
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmp, in); err != nil {
		return errors.Wrap(err, "failed to copy data")
	}
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		return errors.Wrap(err, "failed to set permissions")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to close temp file")
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		return errors.Wrap(err, "failed to move copy into place")
	}
	committed = true
	return nil
}
