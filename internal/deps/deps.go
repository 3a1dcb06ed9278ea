// Package deps reports whether the external tools the pipeline shells out to
// are installed.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/ZacxDev/video-narrator/internal/config"
)

// Requirement defines an external dependency.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Requirement
	Available bool
	Path      string
	Detail    string
}

// Requirements lists the binaries used by cfg.
func Requirements(cfg config.Config) []Requirement {
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpeg.Binary,
			Description: "Encodes, mixes, muxes and burns captions",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFmpeg.ProbeBinary,
			Description: "Reads the silent video duration before muxing",
		},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		req.Command = strings.TrimSpace(req.Command)
		status := Status{Requirement: req}
		if req.Command == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		path, err := exec.LookPath(req.Command)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", req.Command)
			results = append(results, status)
			continue
		}
		status.Available = true
		status.Path = path
		results = append(results, status)
	}
	return results
}

// Missing returns the required dependencies that are unavailable.
func Missing(statuses []Status) []Status {
	var missing []Status
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			missing = append(missing, s)
		}
	}
	return missing
}
