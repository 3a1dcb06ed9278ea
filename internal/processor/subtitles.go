package processor

import (
	"context"
	"strings"
	"time"

	"github.com/ZacxDev/video-narrator/internal/artifact"
	ffmpegWrap "github.com/ZacxDev/video-narrator/internal/ffmpeg"
	"github.com/ZacxDev/video-narrator/pkg/types"
	"github.com/mitchellh/go-wordwrap"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// WrapCaptions collapses whitespace and wraps captions at width columns.
// Words longer than width are kept whole on their own line.
func WrapCaptions(captions string, width int) string {
	collapsed := strings.Join(strings.Fields(captions), " ")
	if width <= 0 {
		return collapsed
	}
	return wordwrap.WrapString(collapsed, uint(width))
}

// BurnSubtitles renders captions into the frames of videoPath and writes
// {base}_final_video.mp4. Only the video stream is re-encoded.
func (b *Burner) BurnSubtitles(ctx context.Context, videoPath, captions, base string) (string, error) {
	wrapped := WrapCaptions(captions, b.opts.WrapWidth)
	if wrapped == "" {
		return "", &types.MissingInputError{Field: "captions"}
	}
	if err := requireAssets(videoPath); err != nil {
		return "", err
	}
	out, err := outputPath(base, artifact.FinalVideo)
	if err != nil {
		return "", err
	}

	filter := ffmpegWrap.DrawTextFilter(ffmpegWrap.DrawTextOptions{
		Text:         wrapped,
		FontFile:     b.opts.FontFile,
		FontSize:     b.opts.FontSize,
		ShadowOffset: b.opts.ShadowOffset,
		BoxOpacity:   b.opts.BoxOpacity,
		BottomMargin: b.opts.BottomMargin,
		LineSpacing:  b.opts.LineSpacing,
	})

	start := time.Now()
	err = b.ffmpeg.Run(ctx, types.StageSubtitles, out, func(target string) *ffmpeg.Stream {
		return ffmpeg.Input(videoPath).Output(target, ffmpeg.KwArgs{
			"vf":      filter,
			"c:v":     b.codec,
			"pix_fmt": "yuv420p",
			"c:a":     "copy",
			"threads": ffmpegWrap.GetOptimalThreadCount(),
		})
	})
	if err != nil {
		return "", err
	}

	b.logger.Info().
		Str("video", videoPath).
		Str("output", out).
		Int("caption_lines", strings.Count(wrapped, "\n")+1).
		Dur("elapsed", time.Since(start)).
		Msg("subtitles burned")
	return out, nil
}
