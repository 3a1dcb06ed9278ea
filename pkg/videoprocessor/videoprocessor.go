package videoprocessor

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/ZacxDev/video-narrator/internal/artifact"
	"github.com/ZacxDev/video-narrator/internal/config"
	"github.com/ZacxDev/video-narrator/internal/logging"
	"github.com/ZacxDev/video-narrator/internal/pipeline"
	"github.com/ZacxDev/video-narrator/internal/platform"
	"github.com/ZacxDev/video-narrator/internal/publish"
	"github.com/ZacxDev/video-narrator/pkg/types"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// NarratedVideoOptions defines the inputs of one narrated video
type NarratedVideoOptions struct {
	ImagePath string
	MusicPath string
	Text      string
	Captions  string
	Language  string
	Name      string
	OutputDir string

	// ConfigPath is an optional TOML file read before any other option.
	ConfigPath string
	// Profile selects an output profile such as "tiktok".
	Profile         string
	DurationSeconds int
	FPS             int
	Publish         bool
	Verbose         bool

	// Configure, when set, adjusts the resolved configuration last.
	Configure func(cfg *config.Config) error

	// LogWriter receives log output; nil means stderr.
	LogWriter io.Writer
}

// Artifact is one produced file
type Artifact struct {
	Kind string
	Path string
}

// NarratedVideo is the outcome of CreateVideo
type NarratedVideo struct {
	RunID        string
	State        types.State
	FinalPath    string
	PublishedURL string
	Artifacts    []Artifact
}

// VideoMetadata contains metadata about a media file
type VideoMetadata struct {
	Duration float64
	Width    int
	Height   int
	Codec    string
}

// GetSupportedPlatforms returns the output profiles
func GetSupportedPlatforms() []string {
	return platform.GetSupportedPlatforms()
}

// ResolveConfig loads the configuration and applies the profile and explicit
// overrides in opts, in that order.
func ResolveConfig(opts *NarratedVideoOptions) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return cfg, err
	}
	if opts.DurationSeconds > 0 {
		cfg.Video.DurationSeconds = opts.DurationSeconds
	}
	// The built-in default profile only applies when asked for by name, so
	// canvas settings from the file survive.
	profile := opts.Profile
	if profile == "" && cfg.Profile != "default" {
		profile = cfg.Profile
	}
	if profile != "" {
		if err := platform.Apply(profile, &cfg); err != nil {
			return cfg, errors.WithStack(err)
		}
	}
	if opts.FPS > 0 {
		cfg.Video.FPS = opts.FPS
	}
	if opts.Language != "" {
		cfg.Speech.Language = opts.Language
	}
	if opts.OutputDir != "" {
		cfg.OutputDir = opts.OutputDir
	}
	if opts.Configure != nil {
		if err := opts.Configure(&cfg); err != nil {
			return cfg, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// CreateVideo runs the whole narration pipeline. When a stage fails the
// returned NarratedVideo still lists the artifacts produced before it and the
// error is a *types.StageError.
func CreateVideo(ctx context.Context, opts *NarratedVideoOptions) (*NarratedVideo, error) {
	if opts == nil {
		return nil, errors.New("options are required")
	}
	cfg, err := ResolveConfig(opts)
	if err != nil {
		return nil, err
	}

	w := opts.LogWriter
	if w == nil {
		w = os.Stderr
	}
	logger, err := logging.New(logging.Options{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Verbose: opts.Verbose,
		Writer:  w,
	})
	if err != nil {
		return nil, err
	}

	p, err := pipeline.Build(cfg, logger)
	if err != nil {
		return nil, err
	}
	return run(ctx, p, cfg, opts, logger)
}

func run(ctx context.Context, p *pipeline.Pipeline, cfg config.Config, opts *NarratedVideoOptions, logger zerolog.Logger) (*NarratedVideo, error) {
	res, err := p.Run(ctx, pipeline.Input{
		ImagePath: opts.ImagePath,
		MusicPath: opts.MusicPath,
		Text:      opts.Text,
		Captions:  opts.Captions,
		Language:  cfg.Speech.Language,
		Name:      opts.Name,
		OutputDir: cfg.OutputDir,
		ImageExt:  cfg.Image.Format,
	})
	if err != nil {
		return nil, err
	}

	video := &NarratedVideo{
		RunID:     res.RunID,
		State:     res.State,
		FinalPath: res.Final(),
	}
	for _, a := range res.Artifacts {
		video.Artifacts = append(video.Artifacts, Artifact{Kind: string(a.Kind), Path: a.Path})
	}
	if res.Err != nil {
		return video, res.Err
	}

	if opts.Publish {
		publisher, err := publish.New(cfg.Publish, logging.WithStage(logger, string(types.StagePublish)))
		if err != nil {
			return video, &types.StageError{Stage: types.StagePublish, Err: err}
		}
		url, err := publisher.Publish(ctx, video.FinalPath)
		if err != nil {
			return video, &types.StageError{Stage: types.StagePublish, Err: err}
		}
		video.PublishedURL = url
	}
	return video, nil
}

// GetVideoMetadata retrieves metadata about a media file
func GetVideoMetadata(ctx context.Context, inputPath string) (*VideoMetadata, error) {
	if missing := artifact.Missing(inputPath); len(missing) > 0 {
		return nil, &types.MissingAssetError{Paths: missing}
	}
	meta, err := pipeline.NewFFmpeg(config.Default(), zerolog.Nop()).GetMediaMetadata(ctx, inputPath)
	if err != nil {
		return nil, err
	}
	out := &VideoMetadata{Duration: meta.Duration}
	if v, ok := meta.Video(); ok {
		out.Width, out.Height, out.Codec = v.Width, v.Height, v.CodecName
	} else if a, ok := meta.Audio(); ok {
		out.Codec = a.CodecName
	}
	return out, nil
}

// ReadTextFile loads a script or captions file, trimming surrounding
// whitespace.
func ReadTextFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to read %s", path)
	}
	return strings.TrimSpace(string(data)), nil
}
