package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/ZacxDev/video-narrator/internal/config"
	"github.com/ZacxDev/video-narrator/internal/logging"
	"github.com/ZacxDev/video-narrator/internal/pipeline"
	"github.com/ZacxDev/video-narrator/internal/processor"
	"github.com/ZacxDev/video-narrator/internal/publish"
	"github.com/ZacxDev/video-narrator/pkg/types"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// stageFunc runs one stage against the resolved config and returns the
// artifact it produced.
type stageFunc func(ctx context.Context, cmd *cobra.Command, cfg config.Config, logger zerolog.Logger, base string) (string, error)

// stageCommand wraps run with config resolution, logging and the
// `stage <name> failed` error shape used by the full pipeline.
func stageCommand(stage types.Stage, use, short string, run stageFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			logger, err := commandLogger(cmd, cfg)
			if err != nil {
				return err
			}
			base, err := outputBase(cmd, cfg)
			if err != nil {
				return err
			}

			path, err := run(cmd.Context(), cmd, cfg, logging.WithStage(logger, string(stage)), base)
			if err != nil {
				return &types.StageError{Stage: stage, Err: err}
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

func commandLogger(cmd *cobra.Command, cfg config.Config) (zerolog.Logger, error) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	return logging.New(logging.Options{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Verbose: verbose,
		Writer:  os.Stderr,
	})
}

func addStageCommands(root *cobra.Command) {
	annotateCmd := stageCommand(types.StageAnnotate, "annotate", "Draw outlined text on a still image",
		func(ctx context.Context, cmd *cobra.Command, cfg config.Config, logger zerolog.Logger, base string) (string, error) {
			text, err := textFlag(cmd, "text", "text-file")
			if err != nil {
				return "", err
			}
			imagePath, _ := cmd.Flags().GetString("image")
			return processor.NewAnnotator(cfg.Image, logger).Annotate(ctx, imagePath, base, text)
		})
	annotateCmd.Flags().StringP("image", "i", "", "Source image")
	annotateCmd.Flags().StringP("text", "t", "", "Text drawn on the image")
	annotateCmd.Flags().String("text-file", "", "File holding the text drawn on the image")
	addImageFlags(annotateCmd)
	annotateCmd.MarkFlagRequired("image")

	speakCmd := stageCommand(types.StageSynthesize, "speak", "Synthesize the captions as narration",
		func(ctx context.Context, cmd *cobra.Command, cfg config.Config, logger zerolog.Logger, base string) (string, error) {
			captions, err := textFlag(cmd, "captions", "captions-file")
			if err != nil {
				return "", err
			}
			synth, err := pipeline.NewSynthesizer(cfg, &http.Client{}, logger)
			if err != nil {
				return "", err
			}
			return synth.Synthesize(ctx, captions, base, cfg.Speech.Language)
		})
	speakCmd.Flags().StringP("captions", "c", "", "Text to speak")
	speakCmd.Flags().String("captions-file", "", "File holding the text to speak")
	speakCmd.Flags().String("lang", "", "Narration language (BCP 47, default en)")
	addSpeechFlags(speakCmd)

	encodeCmd := stageCommand(types.StageEncode, "encode", "Loop an annotated image into a silent video",
		func(ctx context.Context, cmd *cobra.Command, cfg config.Config, logger zerolog.Logger, base string) (string, error) {
			imagePath, _ := cmd.Flags().GetString("image")
			return processor.NewEncoder(cfg.Video, pipeline.NewFFmpeg(cfg, logger), logger).Encode(ctx, imagePath, base)
		})
	encodeCmd.Flags().StringP("image", "i", "", "Annotated image")
	addVideoFlags(encodeCmd)
	encodeCmd.MarkFlagRequired("image")

	mixCmd := stageCommand(types.StageMix, "mix", "Mix background music with narration",
		func(ctx context.Context, cmd *cobra.Command, cfg config.Config, logger zerolog.Logger, base string) (string, error) {
			musicPath, _ := cmd.Flags().GetString("music")
			narrationPath, _ := cmd.Flags().GetString("narration")
			return processor.NewMixer(cfg.Audio, pipeline.NewFFmpeg(cfg, logger), logger).MixAudio(ctx, musicPath, narrationPath, base)
		})
	mixCmd.Flags().StringP("music", "m", "", "Background music")
	mixCmd.Flags().String("narration", "", "Narration audio")
	addAudioFlags(mixCmd)
	mixCmd.MarkFlagRequired("music")
	mixCmd.MarkFlagRequired("narration")

	muxCmd := stageCommand(types.StageMux, "mux", "Attach mixed audio to a silent video",
		func(ctx context.Context, cmd *cobra.Command, cfg config.Config, logger zerolog.Logger, base string) (string, error) {
			videoPath, _ := cmd.Flags().GetString("video")
			audioPath, _ := cmd.Flags().GetString("audio")
			return processor.NewMixer(cfg.Audio, pipeline.NewFFmpeg(cfg, logger), logger).MuxVideo(ctx, videoPath, audioPath, base)
		})
	muxCmd.Flags().String("video", "", "Silent video")
	muxCmd.Flags().String("audio", "", "Mixed audio")
	muxCmd.MarkFlagRequired("video")
	muxCmd.MarkFlagRequired("audio")

	subtitlesCmd := stageCommand(types.StageSubtitles, "subtitles", "Burn captions into a video",
		func(ctx context.Context, cmd *cobra.Command, cfg config.Config, logger zerolog.Logger, base string) (string, error) {
			captions, err := textFlag(cmd, "captions", "captions-file")
			if err != nil {
				return "", err
			}
			videoPath, _ := cmd.Flags().GetString("video")
			burner := processor.NewBurner(cfg.Captions, cfg.Video.Codec, pipeline.NewFFmpeg(cfg, logger), logger)
			return burner.BurnSubtitles(ctx, videoPath, captions, base)
		})
	subtitlesCmd.Flags().String("video", "", "Video with audio")
	subtitlesCmd.Flags().StringP("captions", "c", "", "Captions to burn in")
	subtitlesCmd.Flags().String("captions-file", "", "File holding the captions")
	addCaptionFlags(subtitlesCmd)
	subtitlesCmd.MarkFlagRequired("video")

	publishCmd := &cobra.Command{
		Use:   "publish <file>",
		Short: "Upload a video to the configured S3 bucket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			logger, err := commandLogger(cmd, cfg)
			if err != nil {
				return err
			}
			publisher, err := publish.New(cfg.Publish, logging.WithStage(logger, string(types.StagePublish)))
			if err != nil {
				return &types.StageError{Stage: types.StagePublish, Err: err}
			}
			location, err := publisher.Publish(cmd.Context(), args[0])
			if err != nil {
				return &types.StageError{Stage: types.StagePublish, Err: err}
			}
			fmt.Fprintln(cmd.OutOrStdout(), location)
			return nil
		},
	}
	publishCmd.Flags().String("bucket", "", "S3 bucket (overrides the config file)")
	publishCmd.Flags().String("prefix", "", "Key prefix inside the bucket")

	root.AddCommand(annotateCmd, speakCmd, encodeCmd, mixCmd, muxCmd, subtitlesCmd, publishCmd)
}

func addImageFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("grayscale", true, "Convert the image to grayscale")
	cmd.Flags().Int("rotate", 0, "Rotate the image counter-clockwise by this many degrees")
	cmd.Flags().String("font", "", "TrueType font for the image text")
	cmd.Flags().Int("font-size", config.DefaultImageFontSize, "Image text font size")
	cmd.Flags().Int("offset-x", 0, "Horizontal text offset from center")
	cmd.Flags().Int("offset-y", 0, "Vertical text offset from center")
	cmd.Flags().String("format", "png", "Annotated image format (png or jpg)")
}

func addVideoFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("duration", "d", 0, "Video duration in seconds")
	cmd.Flags().Int("fps", 0, "Frame rate")
	cmd.Flags().String("codec", "", "Video codec")
}

func addSpeechFlags(cmd *cobra.Command) {
	cmd.Flags().String("tts-provider", "",
		fmt.Sprintf("Speech provider (%s)", strings.Join(config.SupportedProviders(), ", ")))
}

func addCaptionFlags(cmd *cobra.Command) {
	cmd.Flags().String("caption-font", "", "TrueType font for captions")
	cmd.Flags().Int("caption-size", config.DefaultCaptionSize, "Caption font size")
	cmd.Flags().Int("wrap-width", config.DefaultWrapWidth, "Caption wrap width in characters")
}

func addAudioFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("music-volume", 1.0, "Background music volume multiplier")
	cmd.Flags().String("audio-bitrate", "", "Mixed audio bitrate")
}

// applyFlagOverrides copies explicitly set flags onto cfg. Flags a command
// does not define are skipped.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	changed := func(name string) bool {
		return flags.Lookup(name) != nil && flags.Changed(name)
	}

	if changed("grayscale") {
		cfg.Image.Grayscale, _ = flags.GetBool("grayscale")
	}
	if changed("rotate") {
		cfg.Image.RotationDegrees, _ = flags.GetInt("rotate")
	}
	if changed("font") {
		cfg.Image.FontFile, _ = flags.GetString("font")
	}
	if changed("font-size") {
		cfg.Image.FontSize, _ = flags.GetInt("font-size")
	}
	if changed("offset-x") {
		cfg.Image.OffsetX, _ = flags.GetInt("offset-x")
	}
	if changed("offset-y") {
		cfg.Image.OffsetY, _ = flags.GetInt("offset-y")
	}
	if changed("format") {
		cfg.Image.Format, _ = flags.GetString("format")
	}
	if changed("codec") {
		cfg.Video.Codec, _ = flags.GetString("codec")
	}
	if changed("music-volume") {
		cfg.Audio.MusicVolume, _ = flags.GetFloat64("music-volume")
	}
	if changed("audio-bitrate") {
		cfg.Audio.Bitrate, _ = flags.GetString("audio-bitrate")
	}
	if changed("tts-provider") {
		cfg.Speech.Provider, _ = flags.GetString("tts-provider")
	}
	if changed("caption-font") {
		cfg.Captions.FontFile, _ = flags.GetString("caption-font")
	}
	if changed("caption-size") {
		cfg.Captions.FontSize, _ = flags.GetInt("caption-size")
	}
	if changed("wrap-width") {
		cfg.Captions.WrapWidth, _ = flags.GetInt("wrap-width")
	}
	if changed("bucket") {
		cfg.Publish.Bucket, _ = flags.GetString("bucket")
	}
	if changed("prefix") {
		cfg.Publish.Prefix, _ = flags.GetString("prefix")
	}
	return nil
}
