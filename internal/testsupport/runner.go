package testsupport

import (
	"context"
	"os"
	"strings"
	"sync"

	"github.com/ZacxDev/video-narrator/internal/ffmpeg"
)

// FakeRunner records ffmpeg invocations. Unless Fail is set, it writes
// Payload to the partial output path found in the arguments, mimicking a
// successful encode.
type FakeRunner struct {
	mu      sync.Mutex
	Calls   [][]string
	Payload []byte
	// Fail maps a call index (0-based) to the exit code returned for it.
	Fail map[int]int
	// Stderr is returned with every failing call.
	Stderr string
}

func (f *FakeRunner) Run(ctx context.Context, args []string) (ffmpeg.Result, error) {
	f.mu.Lock()
	idx := len(f.Calls)
	f.Calls = append(f.Calls, append([]string(nil), args...))
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return ffmpeg.Result{ExitCode: -1}, err
	}
	if code, ok := f.Fail[idx]; ok {
		return ffmpeg.Result{ExitCode: code, Stderr: f.Stderr}, nil
	}
	if out := PartialOutput(args); out != "" {
		payload := f.Payload
		if len(payload) == 0 {
			payload = []byte("media")
		}
		if err := os.WriteFile(out, payload, 0o644); err != nil {
			return ffmpeg.Result{ExitCode: 1, Stderr: err.Error()}, nil
		}
	}
	return ffmpeg.Result{}, nil
}

// CallCount returns the number of recorded invocations.
func (f *FakeRunner) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}

// Joined returns call i as a single space-separated string.
func (f *FakeRunner) Joined(i int) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i < 0 || i >= len(f.Calls) {
		return ""
	}
	return strings.Join(f.Calls[i], " ")
}

// PartialOutput returns the first argument naming a partial artifact.
func PartialOutput(args []string) string {
	for _, a := range args {
		if strings.Contains(a, ".partial-") {
			return a
		}
	}
	return ""
}

// StaticProber returns the same probe document for every file.
type StaticProber struct {
	JSON string
	Err  error
}

func (p StaticProber) Probe(ctx context.Context, path string) (string, error) {
	return p.JSON, p.Err
}

// HangingProber never answers; it returns the context error once ctx ends.
type HangingProber struct{}

func (HangingProber) Probe(ctx context.Context, path string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}
