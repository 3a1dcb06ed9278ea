package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/ZacxDev/video-narrator/internal/artifact"
	ffmpegWrap "github.com/ZacxDev/video-narrator/internal/ffmpeg"
	"github.com/ZacxDev/video-narrator/pkg/types"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Encode loops imagePath for the configured duration at the configured frame
// rate and writes {base}_video.mp4. Both dimensions are rounded down to even
// values for every input.
func (e *Encoder) Encode(ctx context.Context, imagePath, base string) (string, error) {
	if e.opts.DurationSeconds <= 0 {
		return "", fmt.Errorf("video duration must be positive, got %d", e.opts.DurationSeconds)
	}
	if e.opts.FPS <= 0 {
		return "", fmt.Errorf("fps must be positive, got %d", e.opts.FPS)
	}
	if err := requireAssets(imagePath); err != nil {
		return "", err
	}
	out, err := outputPath(base, artifact.SilentVideo)
	if err != nil {
		return "", err
	}

	start := time.Now()
	err = e.ffmpeg.Run(ctx, types.StageEncode, out, func(target string) *ffmpeg.Stream {
		return ffmpeg.Input(imagePath, ffmpeg.KwArgs{"loop": 1}).
			Output(target, e.outputArgs())
	})
	if err != nil {
		return "", err
	}

	e.logger.Info().
		Str("image", imagePath).
		Str("output", out).
		Int("duration_seconds", e.opts.DurationSeconds).
		Int("fps", e.opts.FPS).
		Dur("elapsed", time.Since(start)).
		Msg("video encoded")
	return out, nil
}

func (e *Encoder) outputArgs() ffmpeg.KwArgs {
	codec := e.opts.Codec
	if codec == "" {
		codec = "libx264"
	}
	return ffmpeg.KwArgs{
		"t":        e.opts.DurationSeconds,
		"r":        e.opts.FPS,
		"c:v":      codec,
		"tune":     "stillimage",
		"pix_fmt":  "yuv420p",
		"vf":       ffmpegWrap.EvenScaleFilter,
		"fps_mode": "cfr",
		"an":       "",
		"threads":  ffmpegWrap.GetOptimalThreadCount(),
	}
}
