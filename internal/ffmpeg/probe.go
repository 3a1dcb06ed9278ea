package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Prober returns the raw ffprobe JSON for a media file.
type Prober interface {
	Probe(ctx context.Context, path string) (string, error)
}

// probeWaitDelay bounds how long a killed ffprobe may hold its output pipes.
const probeWaitDelay = 2 * time.Second

// ExecProber runs ffprobe under the caller's context, so cancellation and
// deadlines kill the process.
type ExecProber struct {
	Binary string
}

// NewExecProber creates a prober for binary, defaulting to "ffprobe".
func NewExecProber(binary string) *ExecProber {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	return &ExecProber{Binary: binary}
}

// Probe returns ffprobe's JSON description of path. When ctx ends first the
// context error is returned unwrapped.
func (p *ExecProber) Probe(ctx context.Context, path string) (string, error) {
	args := ffmpeg.ConvertKwargsToCmdLineArgs(ffmpeg.KwArgs{
		"v":            "error",
		"of":           "json",
		"show_format":  "",
		"show_streams": "",
	})
	args = append(args, path)

	var stdout bytes.Buffer
	stderr := &tailWriter{limit: maxOutputBytes}
	cmd := exec.CommandContext(ctx, p.Binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = probeWaitDelay

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("%s exited with code %d: %s", p.Binary, exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return "", errors.Wrapf(err, "failed to start %s", p.Binary)
	}
	return stdout.String(), nil
}

// StreamInfo describes one stream of a probed file.
type StreamInfo struct {
	CodecType string
	CodecName string
	Width     int
	Height    int
	Duration  float64
}

// MediaMetadata holds the parts of ffprobe output the pipeline relies on.
type MediaMetadata struct {
	Duration float64
	Streams  []StreamInfo
}

// Video returns the first video stream.
func (m *MediaMetadata) Video() (StreamInfo, bool) {
	return m.stream("video")
}

// Audio returns the first audio stream.
func (m *MediaMetadata) Audio() (StreamInfo, bool) {
	return m.stream("audio")
}

func (m *MediaMetadata) stream(kind string) (StreamInfo, bool) {
	for _, s := range m.Streams {
		if s.CodecType == kind {
			return s, true
		}
	}
	return StreamInfo{}, false
}

type probeOutput struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		CodecName string `json:"codec_name"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
		Duration  string `json:"duration"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// ParseMetadata decodes ffprobe JSON. The container duration is used when
// present, otherwise the longest stream duration.
func ParseMetadata(raw string) (*MediaMetadata, error) {
	var out probeOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, errors.WithStack(err)
	}
	if len(out.Streams) == 0 {
		return nil, fmt.Errorf("no streams found in media")
	}

	meta := &MediaMetadata{}
	for _, s := range out.Streams {
		info := StreamInfo{
			CodecType: s.CodecType,
			CodecName: s.CodecName,
			Width:     s.Width,
			Height:    s.Height,
			Duration:  parseSeconds(s.Duration),
		}
		meta.Streams = append(meta.Streams, info)
		if info.Duration > meta.Duration {
			meta.Duration = info.Duration
		}
	}
	if d := parseSeconds(out.Format.Duration); d > 0 {
		meta.Duration = d
	}
	return meta, nil
}

func parseSeconds(s string) float64 {
	d, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || d < 0 {
		return 0
	}
	return d
}
