package imagetool

import (
	"fmt"
	"os/exec"
	"strings"
)

// BinaryStatus reports whether an external binary can be found on PATH.
type BinaryStatus struct {
	Command   string
	Available bool
	Path      string
	Detail    string
}

// CheckBinaries resolves each command on PATH.
func CheckBinaries(commands []string) []BinaryStatus {
	results := make([]BinaryStatus, 0, len(commands))
	for _, c := range commands {
		c = strings.TrimSpace(c)
		status := BinaryStatus{Command: c}
		if c == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		path, err := exec.LookPath(c)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", c)
			results = append(results, status)
			continue
		}
		status.Available = true
		status.Path = path
		results = append(results, status)
	}
	return results
}
