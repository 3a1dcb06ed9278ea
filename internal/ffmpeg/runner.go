package ffmpeg

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const maxOutputBytes = 8 * 1024 // tail of stdout/stderr kept for diagnostics

// Result is the outcome of one external encoder invocation.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Success reports whether the process exited cleanly.
func (r Result) Success() bool { return r.ExitCode == 0 }

// Runner executes the external encoder with fully specified arguments. A
// non-zero exit is reported through Result, not through the error; the error
// is reserved for processes that could not be started or were cancelled.
type Runner interface {
	Run(ctx context.Context, args []string) (Result, error)
}

// ExecRunner runs a binary found on PATH or at an explicit location.
type ExecRunner struct {
	Binary string
}

// NewExecRunner creates a runner for binary, defaulting to "ffmpeg".
func NewExecRunner(binary string) *ExecRunner {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	return &ExecRunner{Binary: binary}
}

func (r *ExecRunner) Run(ctx context.Context, args []string) (Result, error) {
	stdout := &tailWriter{limit: maxOutputBytes}
	stderr := &tailWriter{limit: maxOutputBytes}

	cmd := exec.CommandContext(ctx, r.Binary, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	start := time.Now()
	err := cmd.Run()
	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	if err == nil {
		return res, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		res.ExitCode = -1
		return res, ctxErr
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	res.ExitCode = -1
	return res, errors.Wrapf(err, "failed to start %s", r.Binary)
}

// tailWriter keeps only the last limit bytes written to it.
type tailWriter struct {
	buf   bytes.Buffer
	limit int
}

func (w *tailWriter) Write(p []byte) (int, error) {
	n := len(p)
	w.buf.Write(p)
	if w.buf.Len() > w.limit {
		b := w.buf.Bytes()
		tail := append([]byte(nil), b[len(b)-w.limit:]...)
		w.buf.Reset()
		w.buf.Write(tail)
	}
	return n, nil
}

func (w *tailWriter) String() string {
	return w.buf.String()
}
