package pipeline

import (
	"net/http"

	"github.com/ZacxDev/video-narrator/internal/config"
	"github.com/ZacxDev/video-narrator/internal/ffmpeg"
	"github.com/ZacxDev/video-narrator/internal/logging"
	"github.com/ZacxDev/video-narrator/internal/processor"
	"github.com/ZacxDev/video-narrator/internal/tts"
	"github.com/ZacxDev/video-narrator/pkg/types"
	"github.com/rs/zerolog"
)

// NewFFmpeg returns the ffmpeg processor configured by cfg.
func NewFFmpeg(cfg config.Config, logger zerolog.Logger) *ffmpeg.Processor {
	return ffmpeg.NewProcessor(
		ffmpeg.WithRunner(ffmpeg.NewExecRunner(cfg.FFmpeg.Binary)),
		ffmpeg.WithProber(ffmpeg.NewExecProber(cfg.FFmpeg.ProbeBinary)),
		ffmpeg.WithTimeout(cfg.FFmpegTimeout()),
		ffmpeg.WithLogger(logger),
	)
}

// NewSynthesizer returns the speech synthesizer configured by cfg.
func NewSynthesizer(cfg config.Config, client *http.Client, logger zerolog.Logger) (*tts.Synthesizer, error) {
	provider, err := tts.NewProvider(cfg.Speech, client)
	if err != nil {
		return nil, err
	}
	return tts.NewSynthesizer(provider, cfg.SpeechTimeout(), logging.WithStage(logger, string(types.StageSynthesize))), nil
}

// Build wires the production stages for cfg.
func Build(cfg config.Config, logger zerolog.Logger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	proc := NewFFmpeg(cfg, logger)
	synth, err := NewSynthesizer(cfg, &http.Client{}, logger)
	if err != nil {
		return nil, err
	}

	stages := Stages{
		Annotator:   processor.NewAnnotator(cfg.Image, logging.WithStage(logger, string(types.StageAnnotate))),
		Encoder:     processor.NewEncoder(cfg.Video, proc, logging.WithStage(logger, string(types.StageEncode))),
		Synthesizer: synth,
		Mixer:       processor.NewMixer(cfg.Audio, proc, logging.WithStage(logger, string(types.StageMix))),
		Burner:      processor.NewBurner(cfg.Captions, cfg.Video.Codec, proc, logging.WithStage(logger, string(types.StageSubtitles))),
	}
	return New(stages, logger), nil
}
