package processor

import (
	"github.com/ZacxDev/video-narrator/internal/artifact"
	"github.com/ZacxDev/video-narrator/internal/config"
	"github.com/ZacxDev/video-narrator/internal/ffmpeg"
	"github.com/ZacxDev/video-narrator/pkg/types"
	"github.com/rs/zerolog"
)

// Encoder loops a still image into a silent video
type Encoder struct {
	opts   config.VideoOptions
	ffmpeg *ffmpeg.Processor
	logger zerolog.Logger
}

// NewEncoder creates a new still-image encoder
func NewEncoder(opts config.VideoOptions, proc *ffmpeg.Processor, logger zerolog.Logger) *Encoder {
	return &Encoder{opts: opts, ffmpeg: proc, logger: logger}
}

// Mixer combines music and narration and attaches the result to a video
type Mixer struct {
	opts   config.AudioOptions
	ffmpeg *ffmpeg.Processor
	logger zerolog.Logger
}

// NewMixer creates a new audio mixer
func NewMixer(opts config.AudioOptions, proc *ffmpeg.Processor, logger zerolog.Logger) *Mixer {
	return &Mixer{opts: opts, ffmpeg: proc, logger: logger}
}

// Burner renders captions into video frames
type Burner struct {
	opts   config.CaptionOptions
	codec  string
	ffmpeg *ffmpeg.Processor
	logger zerolog.Logger
}

// NewBurner creates a new subtitle burner. codec is the video codec used for
// the re-encode that burn-in requires.
func NewBurner(opts config.CaptionOptions, codec string, proc *ffmpeg.Processor, logger zerolog.Logger) *Burner {
	if codec == "" {
		codec = config.DefaultVideoCodec
	}
	return &Burner{opts: opts, codec: codec, ffmpeg: proc, logger: logger}
}

// requireAssets fails with MissingAssetError naming every absent path.
func requireAssets(paths ...string) error {
	if missing := artifact.Missing(paths...); len(missing) > 0 {
		return &types.MissingAssetError{Paths: missing}
	}
	return nil
}

// outputPath derives the artifact path for kind from base.
func outputPath(base string, kind artifact.Kind) (string, error) {
	return artifact.Derive(base, kind, "")
}
