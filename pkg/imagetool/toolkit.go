// Package imagetool wraps the external image binaries that read dimensions
// and produce resized derivatives. No pixel work happens in-process.
package imagetool

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// DefaultQuality is the compression level passed to the resize tool.
const DefaultQuality = 85

// Dimensions is the pixel size reported by the metadata tool.
type Dimensions struct {
	Width  int
	Height int
}

func (d Dimensions) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// Toolkit is the capability set the pipeline needs from the outside world.
type Toolkit interface {
	// ReadDimensions returns the width and height of the image at path.
	ReadDimensions(ctx context.Context, path string) (Dimensions, error)

	// Resize writes a copy of in constrained to width, scaled proportionally.
	Resize(ctx context.Context, in, out string, width, quality int) error

	// Copy duplicates in to out byte for byte.
	Copy(ctx context.Context, in, out string) error
}

// ParseDimensions parses the first "<width>x<height>" token in output.
// Exported for testing without a real identify binary.
func ParseDimensions(output string) (Dimensions, error) {
	fields := strings.Fields(output)
	if len(fields) == 0 {
		return Dimensions{}, fmt.Errorf("empty dimension output")
	}
	token := fields[0]

	w, h, ok := strings.Cut(token, "x")
	if !ok {
		return Dimensions{}, fmt.Errorf("malformed dimension token %q", token)
	}
	width, err := strconv.Atoi(w)
	if err != nil || width <= 0 {
		return Dimensions{}, fmt.Errorf("invalid width in %q", token)
	}
	height, err := strconv.Atoi(h)
	if err != nil || height <= 0 {
		return Dimensions{}, fmt.Errorf("invalid height in %q", token)
	}
	return Dimensions{Width: width, Height: height}, nil
}
