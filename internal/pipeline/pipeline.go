// Package pipeline runs the narration stages in order and records the state
// reached by a run.
package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/ZacxDev/video-narrator/internal/artifact"
	"github.com/ZacxDev/video-narrator/pkg/types"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

type Annotator interface {
	Annotate(ctx context.Context, sourcePath, base, text string) (string, error)
}

type Encoder interface {
	Encode(ctx context.Context, imagePath, base string) (string, error)
}

type Synthesizer interface {
	Synthesize(ctx context.Context, text, base, lang string) (string, error)
}

type Mixer interface {
	MixAudio(ctx context.Context, musicPath, narrationPath, base string) (string, error)
	MuxVideo(ctx context.Context, videoPath, audioPath, base string) (string, error)
}

type Burner interface {
	BurnSubtitles(ctx context.Context, videoPath, captions, base string) (string, error)
}

// Stages bundles the collaborators of one pipeline.
type Stages struct {
	Annotator   Annotator
	Encoder     Encoder
	Synthesizer Synthesizer
	Mixer       Mixer
	Burner      Burner
}

// Input is what the operator supplies for one video.
type Input struct {
	ImagePath string
	MusicPath string
	Text      string
	Captions  string
	Language  string
	Name      string
	OutputDir string
	ImageExt  string
}

// Artifact is one file produced by a run.
type Artifact struct {
	Kind artifact.Kind
	Path string
}

// Result describes how far a run got. Artifacts lists only files that were
// actually produced, in production order.
type Result struct {
	RunID     string
	State     types.State
	Artifacts []Artifact
	Err       error
	Elapsed   time.Duration
}

// Final returns the final video path, or "" unless the run completed.
func (r *Result) Final() string {
	if r.State != types.StateSubtitlesBurned {
		return ""
	}
	return r.Path(artifact.FinalVideo)
}

// Path returns the produced path of kind.
func (r *Result) Path(kind artifact.Kind) string {
	for _, a := range r.Artifacts {
		if a.Kind == kind {
			return a.Path
		}
	}
	return ""
}

// FailedStage returns the stage a failed run stopped at.
func (r *Result) FailedStage() types.Stage {
	var stageErr *types.StageError
	if errors.As(r.Err, &stageErr) {
		return stageErr.Stage
	}
	return ""
}

// Pipeline runs the stages strictly in sequence.
type Pipeline struct {
	stages Stages
	logger zerolog.Logger
}

func New(stages Stages, logger zerolog.Logger) *Pipeline {
	return &Pipeline{stages: stages, logger: logger}
}

type step struct {
	stage types.Stage
	kind  artifact.Kind
	next  types.State
	run   func(ctx context.Context, r *Result) (string, error)
}

// Run executes Start → ImageAnnotated → VideoEncoded → NarrationReady →
// AudioMixed → VideoMuxed → SubtitlesBurned. The first failure moves the run
// to Failed; earlier artifacts are left in place.
//
// The returned error is non-nil only when the run could not start (invalid
// layout or a concurrent run on the same base name). Stage failures are
// reported through Result.Err.
func (p *Pipeline) Run(ctx context.Context, in Input) (*Result, error) {
	layout, err := artifact.NewLayout(in.OutputDir, in.Name, in.ImageExt, in.ImagePath, in.MusicPath)
	if err != nil {
		return nil, err
	}
	if err := artifact.EnsureDir(layout.Base); err != nil {
		return nil, err
	}

	lock := flock.New(layout.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return nil, errors.Wrap(err, "acquire lock")
	}
	if !locked {
		return nil, types.ErrPipelineBusy
	}
	defer func() {
		// The lock file is left in place so every run locks the same inode.
		if err := lock.Unlock(); err != nil {
			p.logger.Warn().Err(err).Msg("failed to release lock")
		}
	}()

	res := &Result{RunID: uuid.NewString(), State: types.StateStart}
	logger := p.logger.With().Str("run_id", res.RunID).Str("base", layout.Base).Logger()
	start := time.Now()
	defer func() { res.Elapsed = time.Since(start) }()

	if err := preflight(in); err != nil {
		res.fail(err)
		logger.Error().Err(err).Msg("run rejected")
		return res, nil
	}

	base := layout.Base
	steps := []step{
		{types.StageAnnotate, artifact.AnnotatedImage, types.StateImageAnnotated, func(ctx context.Context, r *Result) (string, error) {
			return p.stages.Annotator.Annotate(ctx, in.ImagePath, base, in.Text)
		}},
		{types.StageEncode, artifact.SilentVideo, types.StateVideoEncoded, func(ctx context.Context, r *Result) (string, error) {
			return p.stages.Encoder.Encode(ctx, r.Path(artifact.AnnotatedImage), base)
		}},
		{types.StageSynthesize, artifact.Narration, types.StateNarrationReady, func(ctx context.Context, r *Result) (string, error) {
			return p.stages.Synthesizer.Synthesize(ctx, in.Captions, base, in.Language)
		}},
		{types.StageMix, artifact.MixedAudio, types.StateAudioMixed, func(ctx context.Context, r *Result) (string, error) {
			return p.stages.Mixer.MixAudio(ctx, in.MusicPath, r.Path(artifact.Narration), base)
		}},
		{types.StageMux, artifact.MuxedVideo, types.StateVideoMuxed, func(ctx context.Context, r *Result) (string, error) {
			return p.stages.Mixer.MuxVideo(ctx, r.Path(artifact.SilentVideo), r.Path(artifact.MixedAudio), base)
		}},
		{types.StageSubtitles, artifact.FinalVideo, types.StateSubtitlesBurned, func(ctx context.Context, r *Result) (string, error) {
			return p.stages.Burner.BurnSubtitles(ctx, r.Path(artifact.MuxedVideo), in.Captions, base)
		}},
	}

	for _, s := range steps {
		stageLogger := logger.With().Str("stage", string(s.stage)).Logger()
		if err := ctx.Err(); err != nil {
			res.fail(&types.StageError{Stage: s.stage, Err: err})
			stageLogger.Warn().Msg("run cancelled")
			return res, nil
		}

		stageStart := time.Now()
		stageLogger.Debug().Msg("stage started")
		path, err := s.run(ctx, res)
		if err != nil {
			res.fail(&types.StageError{Stage: s.stage, Err: err})
			stageLogger.Error().Err(err).Dur("elapsed", time.Since(stageStart)).Msg("stage failed")
			return res, nil
		}
		res.Artifacts = append(res.Artifacts, Artifact{Kind: s.kind, Path: path})
		res.State = s.next
		stageLogger.Info().
			Str("artifact", path).
			Str("state", string(res.State)).
			Dur("elapsed", time.Since(stageStart)).
			Msg("stage finished")
	}

	logger.Info().Str("final", res.Final()).Dur("elapsed", time.Since(start)).Msg("run complete")
	return res, nil
}

func (r *Result) fail(err error) {
	r.State = types.StateFailed
	r.Err = err
}

// preflight rejects missing text inputs before any stage runs, attributing
// the failure to the stage that consumes the input.
func preflight(in Input) error {
	if strings.TrimSpace(in.Text) == "" {
		return &types.StageError{Stage: types.StageAnnotate, Err: &types.MissingInputError{Field: "text"}}
	}
	if strings.TrimSpace(in.Captions) == "" {
		return &types.StageError{Stage: types.StageSynthesize, Err: &types.EmptyTextError{}}
	}
	return nil
}
