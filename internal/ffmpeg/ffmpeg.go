package ffmpeg

import (
	"context"
	"math"
	"runtime"
	"strings"
	"time"

	"github.com/ZacxDev/video-narrator/internal/artifact"
	"github.com/ZacxDev/video-narrator/pkg/types"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

const DefaultTimeout = 5 * time.Minute

// Processor wraps FFmpeg functionality
type Processor struct {
	runner  Runner
	prober  Prober
	timeout time.Duration
	logger  zerolog.Logger
}

// Option customizes a Processor.
type Option func(*Processor)

// WithRunner replaces the process runner, typically with a fake in tests.
func WithRunner(r Runner) Option {
	return func(p *Processor) {
		if r != nil {
			p.runner = r
		}
	}
}

// WithProber replaces the media prober.
func WithProber(pr Prober) Option {
	return func(p *Processor) {
		if pr != nil {
			p.prober = pr
		}
	}
}

// WithTimeout bounds every external invocation.
func WithTimeout(d time.Duration) Option {
	return func(p *Processor) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Processor) {
		p.logger = l
	}
}

// NewProcessor creates a new FFmpeg processor
func NewProcessor(opts ...Option) *Processor {
	p := &Processor{
		runner:  NewExecRunner("ffmpeg"),
		prober:  NewExecProber(""),
		timeout: DefaultTimeout,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Timeout returns the per-invocation deadline applied to ffmpeg and ffprobe.
func (p *Processor) Timeout() time.Duration {
	return p.timeout
}

// Run compiles the stream returned by build, executes it and commits the
// result to output. build receives the partial path it must write to. A
// non-zero exit, a timeout or a missing/empty output leaves nothing at output.
func (p *Processor) Run(ctx context.Context, stage types.Stage, output string, build func(target string) *ffmpeg.Stream) error {
	if err := artifact.EnsureDir(output); err != nil {
		return err
	}
	partial := artifact.PartialPath(output)
	args := build(partial).OverWriteOutput().GetArgs()

	runCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	p.logger.Debug().
		Str("stage", string(stage)).
		Str("args", strings.Join(args, " ")).
		Msg("invoking ffmpeg")

	res, err := p.runner.Run(runCtx, args)
	if err != nil {
		artifact.Discard(partial)
		switch {
		case ctx.Err() != nil:
			return errors.Wrapf(ctx.Err(), "%s cancelled", stage)
		case errors.Is(err, context.DeadlineExceeded):
			return &types.TimeoutError{Stage: stage, Timeout: p.timeout}
		default:
			return &types.EncodeError{Stage: stage, ExitCode: res.ExitCode, Stderr: res.Stderr, Err: err}
		}
	}
	if !res.Success() {
		artifact.Discard(partial)
		p.logger.Warn().
			Str("stage", string(stage)).
			Int("exit_code", res.ExitCode).
			Dur("elapsed", res.Duration).
			Msg("ffmpeg failed")
		return &types.EncodeError{Stage: stage, ExitCode: res.ExitCode, Stderr: res.Stderr}
	}
	if err := artifact.Commit(partial, output); err != nil {
		return &types.EncodeError{Stage: stage, ExitCode: res.ExitCode, Stderr: res.Stderr, Err: err}
	}

	p.logger.Debug().
		Str("stage", string(stage)).
		Str("output", output).
		Dur("elapsed", res.Duration).
		Msg("ffmpeg finished")
	return nil
}

// GetMediaMetadata probes path under the processor deadline.
func (p *Processor) GetMediaMetadata(ctx context.Context, path string) (*MediaMetadata, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	raw, err := p.prober.Probe(ctx, path)
	if err != nil {
		return nil, errors.Wrapf(err, "error probing %s", path)
	}
	return ParseMetadata(raw)
}

// EvenScaleFilter rounds both dimensions down to the nearest even number, as
// required by yuv420p encoders, for any input size.
const EvenScaleFilter = "scale=trunc(iw/2)*2:trunc(ih/2)*2"

func GetOptimalThreadCount() int {
	cpuCount := runtime.NumCPU()
	// Use 75% of available cores to prevent overload
	return int(math.Max(1, float64(cpuCount)*0.75))
}
