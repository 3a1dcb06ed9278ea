package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ErrPipelineBusy is returned when another process holds the lock for the
// same output base name.
var ErrPipelineBusy = errors.New("another run is writing the same artifacts")

// MissingInputError reports a required operator input that was not supplied.
type MissingInputError struct {
	Field string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("missing required input: %s", e.Field)
}

// AssetLoadError reports a source media file that exists but cannot be read
// or decoded.
type AssetLoadError struct {
	Path string
	Err  error
}

func (e *AssetLoadError) Error() string {
	return fmt.Sprintf("failed to load asset %s: %v", e.Path, e.Err)
}

func (e *AssetLoadError) Unwrap() error { return e.Err }

// FontLoadError reports a requested font file that is missing or unparsable.
type FontLoadError struct {
	Path string
	Err  error
}

func (e *FontLoadError) Error() string {
	return fmt.Sprintf("failed to load font %s: %v", e.Path, e.Err)
}

func (e *FontLoadError) Unwrap() error { return e.Err }

// EmptyTextError is returned when text handed to the speech synthesizer is
// empty or whitespace only.
type EmptyTextError struct{}

func (e *EmptyTextError) Error() string {
	return "text to synthesize is empty"
}

// TTSServiceError wraps a failure of the text-to-speech backend.
type TTSServiceError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *TTSServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("tts provider %s failed with status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("tts provider %s failed: %v", e.Provider, e.Err)
}

func (e *TTSServiceError) Unwrap() error { return e.Err }

// MissingAssetError names every input path that did not exist when a stage
// checked before invoking external tooling.
type MissingAssetError struct {
	Paths []string
}

func (e *MissingAssetError) Error() string {
	return fmt.Sprintf("missing asset(s): %s", strings.Join(e.Paths, ", "))
}

// EncodeError reports an external encode process that exited non-zero.
type EncodeError struct {
	Stage    Stage
	ExitCode int
	Stderr   string
	Err      error
}

func (e *EncodeError) Error() string {
	msg := fmt.Sprintf("%s: ffmpeg exited with code %d", e.Stage, e.ExitCode)
	if tail := strings.TrimSpace(e.Stderr); tail != "" {
		msg += ": " + lastLine(tail)
	}
	return msg
}

func (e *EncodeError) Unwrap() error { return e.Err }

// TimeoutError reports an external process killed after exceeding its
// deadline.
type TimeoutError struct {
	Stage   Stage
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: timed out after %s", e.Stage, e.Timeout)
}

// StageError carries the stage at which the pipeline failed and the
// originating error.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}
