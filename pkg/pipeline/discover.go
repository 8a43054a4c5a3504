package pipeline

import (
	"os"
	"path/filepath"
	"strings"
)

// Supported image extensions (lowercase, with leading dot).
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".tiff": true,
	".tif":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
}

// IsEligible reports whether name carries an allow-listed image extension.
// Matching is case-insensitive. Leading dots do not count as an extension,
// so a file named ".png" is not eligible.
func IsEligible(name string) bool {
	ext := strings.ToLower(filepath.Ext(strings.TrimLeft(name, ".")))
	return imageExtensions[ext]
}

// Discover lists sourceDir (non-recursive) and returns the names of eligible
// files in the order the listing yields them. Directories are skipped.
func Discover(sourceDir string) ([]string, error) {
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if IsEligible(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// Collisions groups source names that normalize to the same output name.
// Only groups with more than one member are returned.
func Collisions(names []string) map[string][]string {
	owners := make(map[string][]string)
	for _, name := range names {
		out := OutputName(name)
		owners[out] = append(owners[out], name)
	}
	for out, group := range owners {
		if len(group) < 2 {
			delete(owners, out)
		}
	}
	return owners
}
