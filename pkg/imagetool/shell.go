package imagetool

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"github.com/photoblog/resize-images/pkg/errors"
)

// Default binary names (ImageMagick 6 layout).
const (
	DefaultIdentifyBin = "identify"
	DefaultConvertBin  = "convert"
)

// Shell implements Toolkit by invoking ImageMagick binaries.
type Shell struct {
	identifyBin string
	convertBin  string
}

// NewShell creates a shell toolkit. Empty names fall back to the defaults.
func NewShell(identifyBin, convertBin string) *Shell {
	identifyBin = strings.TrimSpace(identifyBin)
	if identifyBin == "" {
		identifyBin = DefaultIdentifyBin
	}
	convertBin = strings.TrimSpace(convertBin)
	if convertBin == "" {
		convertBin = DefaultConvertBin
	}
	return &Shell{identifyBin: identifyBin, convertBin: convertBin}
}

// Binaries returns the configured binary names.
func (s *Shell) Binaries() []string {
	return []string{s.identifyBin, s.convertBin}
}

func (s *Shell) ReadDimensions(ctx context.Context, path string) (Dimensions, error) {
	// [0] selects the first frame so animated images yield a single token
	cmd := exec.CommandContext(ctx, s.identifyBin, "-format", "%wx%h\n", path+"[0]")
	// Only stdout carries the token; identify warns on stderr and still exits 0.
	output, err := cmd.Output()
	if err != nil {
		stderr := ""
		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) {
			stderr = strings.TrimSpace(string(exitErr.Stderr))
		}
		slog.Debug("identify_failed", "path", path, "stderr", stderr, "error", err)
		return Dimensions{}, fmt.Errorf("%s %q: %w: %s", s.identifyBin, path, err, stderr)
	}

	dims, err := ParseDimensions(string(output))
	if err != nil {
		return Dimensions{}, errors.Wrap(err, fmt.Sprintf("%s %q", s.identifyBin, path))
	}
	return dims, nil
}

func (s *Shell) Resize(ctx context.Context, in, out string, width, quality int) error {
	cmd := exec.CommandContext(ctx, s.convertBin,
		in,
		"-resize", strconv.Itoa(width)+"x",
		"-quality", strconv.Itoa(quality),
		out,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s %q -> %q: %w: %s", s.convertBin, in, out, err, strings.TrimSpace(string(output)))
	}
	return nil
}

func (s *Shell) Copy(ctx context.Context, in, out string) error {
	return CopyFile(in, out)
}
