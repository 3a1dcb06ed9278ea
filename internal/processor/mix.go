package processor

import (
	"context"
	"strconv"
	"time"

	"github.com/ZacxDev/video-narrator/internal/artifact"
	"github.com/ZacxDev/video-narrator/pkg/types"
	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// MixPolicy is the amix duration rule. The mixed track is as long as the
// shorter of music and narration.
const MixPolicy = "shortest"

// MixAudio mixes music and narration into {base}_audio_merged.mp3. Both inputs
// must exist; otherwise nothing is invoked and nothing is written.
func (m *Mixer) MixAudio(ctx context.Context, musicPath, narrationPath, base string) (string, error) {
	if err := requireAssets(musicPath, narrationPath); err != nil {
		return "", err
	}
	out, err := outputPath(base, artifact.MixedAudio)
	if err != nil {
		return "", err
	}

	volume := m.opts.MusicVolume
	bitrate := m.opts.Bitrate
	if bitrate == "" {
		bitrate = "192k"
	}

	start := time.Now()
	err = m.ffmpeg.Run(ctx, types.StageMix, out, func(target string) *ffmpeg.Stream {
		music := ffmpeg.Input(musicPath).Audio().
			Filter("volume", ffmpeg.Args{strconv.FormatFloat(volume, 'f', -1, 64)})
		narration := ffmpeg.Input(narrationPath).Audio()
		mixed := ffmpeg.Filter([]*ffmpeg.Stream{music, narration}, "amix", ffmpeg.Args{}, ffmpeg.KwArgs{
			"inputs":   "2",
			"duration": MixPolicy,
		})
		return mixed.Output(target, ffmpeg.KwArgs{
			"c:a": "libmp3lame",
			"b:a": bitrate,
		})
	})
	if err != nil {
		return "", err
	}

	m.logger.Info().
		Str("music", musicPath).
		Str("narration", narrationPath).
		Str("output", out).
		Float64("music_volume", volume).
		Dur("elapsed", time.Since(start)).
		Msg("audio mixed")
	return out, nil
}

// MuxVideo attaches audioPath to videoPath by stream copy and writes
// {base}_audio_merged_video.mp4. The result is cut to the probed duration of
// the video so its length is the encode duration.
func (m *Mixer) MuxVideo(ctx context.Context, videoPath, audioPath, base string) (string, error) {
	if err := requireAssets(videoPath, audioPath); err != nil {
		return "", err
	}
	out, err := outputPath(base, artifact.MuxedVideo)
	if err != nil {
		return "", err
	}

	meta, err := m.ffmpeg.GetMediaMetadata(ctx, videoPath)
	switch {
	case err == nil:
	case ctx.Err() != nil:
		return "", errors.Wrapf(ctx.Err(), "%s cancelled", types.StageMux)
	case errors.Is(err, context.DeadlineExceeded):
		return "", &types.TimeoutError{Stage: types.StageMux, Timeout: m.ffmpeg.Timeout()}
	default:
		return "", &types.AssetLoadError{Path: videoPath, Err: err}
	}
	if _, ok := meta.Video(); !ok {
		return "", &types.AssetLoadError{Path: videoPath, Err: errors.New("no video stream found")}
	}

	kwargs := ffmpeg.KwArgs{"c": "copy"}
	if meta.Duration > 0 {
		kwargs["t"] = strconv.FormatFloat(meta.Duration, 'f', 3, 64)
	}

	start := time.Now()
	err = m.ffmpeg.Run(ctx, types.StageMux, out, func(target string) *ffmpeg.Stream {
		video := ffmpeg.Input(videoPath).Video()
		audio := ffmpeg.Input(audioPath).Audio()
		return ffmpeg.Output([]*ffmpeg.Stream{video, audio}, target, kwargs)
	})
	if err != nil {
		return "", err
	}

	m.logger.Info().
		Str("video", videoPath).
		Str("audio", audioPath).
		Str("output", out).
		Float64("duration_seconds", meta.Duration).
		Dur("elapsed", time.Since(start)).
		Msg("video muxed")
	return out, nil
}
