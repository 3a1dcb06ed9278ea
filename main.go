package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/ZacxDev/video-narrator/internal/artifact"
	"github.com/ZacxDev/video-narrator/internal/config"
	"github.com/ZacxDev/video-narrator/internal/deps"
	"github.com/ZacxDev/video-narrator/internal/platform"
	"github.com/ZacxDev/video-narrator/pkg/videoprocessor"
	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "narrator",
		Short: "Assemble narrated videos from a still image",
		Long: `narrator turns a still image, overlay text, synthesized narration, background
music and burned-in captions into a short video.

Examples:
  # Build the whole video
  narrator run -i image.jpg -m background_music.mp3 -t "Hello World" -c "Line one. Line two." -n clip

  # Run a single stage
  narrator encode -i clip_text_image.png -n clip --duration 10`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run every stage and produce the final video",
		Long: fmt.Sprintf(`Annotate the image, encode it as a silent video, synthesize the captions,
mix narration with music, mux, and burn the captions in.

Artifacts are written as {name}_text_image.{ext}, {name}_video.mp4,
{name}_tts.mp3, {name}_audio_merged.mp3, {name}_audio_merged_video.mp4 and
{name}_final_video.mp4.

Supported profiles:
%s
Example:
  narrator run -i image.jpg -m music.mp3 --text-file script.txt --captions-file captions.txt -n clip --profile tiktok`,
			formatSupportedPlatforms()),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := narratedVideoOptions(cmd)
			if err != nil {
				return err
			}

			imagePath, _ := cmd.Flags().GetString("image")
			musicPath, _ := cmd.Flags().GetString("music")
			language, _ := cmd.Flags().GetString("lang")
			publish, _ := cmd.Flags().GetBool("publish")

			opts.ImagePath = imagePath
			opts.MusicPath = musicPath
			opts.Language = language
			opts.Publish = publish
			if opts.Text, err = textFlag(cmd, "text", "text-file"); err != nil {
				return err
			}
			if opts.Captions, err = textFlag(cmd, "captions", "captions-file"); err != nil {
				return err
			}

			video, runErr := videoprocessor.CreateVideo(cmd.Context(), opts)
			if video != nil {
				printRunSummary(cmd, video)
			}
			if runErr != nil {
				return runErr
			}
			fmt.Fprintln(cmd.OutOrStdout(), video.FinalPath)
			return nil
		},
	}

	checkCmd = &cobra.Command{
		Use:   "check",
		Short: "Verify that ffmpeg and ffprobe are installed",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			statuses := deps.CheckBinaries(deps.Requirements(cfg))
			rows := make([][]string, 0, len(statuses))
			for _, s := range statuses {
				state := "ok"
				location := s.Path
				if !s.Available {
					state = "missing"
					location = s.Detail
				}
				rows = append(rows, []string{s.Name, state, location, s.Description})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Dependency", "Status", "Location", "Used for"}, rows, nil))
			if missing := deps.Missing(statuses); len(missing) > 0 {
				return fmt.Errorf("%d required dependencies missing", len(missing))
			}
			return nil
		},
	}

	profilesCmd = &cobra.Command{
		Use:   "profiles",
		Short: "List output profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			var rows [][]string
			for _, name := range platform.GetSupportedPlatforms() {
				p, err := platform.Get(name)
				if err != nil {
					return err
				}
				w, h := p.GetCanvasSize()
				maxDuration := "unlimited"
				if d := p.GetMaxDuration(); d > 0 {
					maxDuration = fmt.Sprintf("%ds", d)
				}
				rows = append(rows, []string{
					name,
					fmt.Sprintf("%dx%d", w, h),
					fmt.Sprintf("%d", p.GetFrameRate()),
					p.GetVideoCodec(),
					p.GetAudioBitrate(),
					maxDuration,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Profile", "Canvas", "FPS", "Codec", "Audio", "Max duration"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Configuration helpers",
	}

	configSampleCmd = &cobra.Command{
		Use:   "sample",
		Short: "Print a commented sample configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.OutOrStdout(), config.SampleConfig())
			return nil
		},
	}
)

func formatSupportedPlatforms() string {
	platforms := videoprocessor.GetSupportedPlatforms()
	var sb strings.Builder
	for _, platform := range platforms {
		sb.WriteString(fmt.Sprintf("- %s\n", platform))
	}
	return sb.String()
}

// narratedVideoOptions collects the persistent flags shared by every command.
func narratedVideoOptions(cmd *cobra.Command) (*videoprocessor.NarratedVideoOptions, error) {
	configPath, _ := cmd.Flags().GetString("config")
	profile, _ := cmd.Flags().GetString("profile")
	outDir, _ := cmd.Flags().GetString("out-dir")
	name, _ := cmd.Flags().GetString("name")
	verbose, _ := cmd.Flags().GetBool("verbose")

	opts := &videoprocessor.NarratedVideoOptions{
		ConfigPath: configPath,
		Profile:    profile,
		OutputDir:  outDir,
		Name:       name,
		Verbose:    verbose,
		Configure: func(cfg *config.Config) error {
			return applyFlagOverrides(cmd, cfg)
		},
	}
	if cmd.Flags().Lookup("duration") != nil {
		opts.DurationSeconds, _ = cmd.Flags().GetInt("duration")
	}
	if cmd.Flags().Lookup("fps") != nil {
		opts.FPS, _ = cmd.Flags().GetInt("fps")
	}
	return opts, nil
}

func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	opts, err := narratedVideoOptions(cmd)
	if err != nil {
		return config.Config{}, err
	}
	if cmd.Flags().Lookup("lang") != nil {
		opts.Language, _ = cmd.Flags().GetString("lang")
	}
	return videoprocessor.ResolveConfig(opts)
}

// textFlag returns the inline value of flag, or the contents of fileFlag.
func textFlag(cmd *cobra.Command, flag, fileFlag string) (string, error) {
	value, _ := cmd.Flags().GetString(flag)
	path, _ := cmd.Flags().GetString(fileFlag)
	if value != "" && path != "" {
		return "", fmt.Errorf("--%s and --%s are mutually exclusive", flag, fileFlag)
	}
	if path != "" {
		return videoprocessor.ReadTextFile(path)
	}
	return value, nil
}

func printRunSummary(cmd *cobra.Command, video *videoprocessor.NarratedVideo) {
	rows := make([][]string, 0, len(video.Artifacts)+1)
	for _, a := range video.Artifacts {
		rows = append(rows, []string{a.Kind, a.Path})
	}
	if video.PublishedURL != "" {
		rows = append(rows, []string{"published", video.PublishedURL})
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "run %s: %s\n", video.RunID, video.State)
	if len(rows) > 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), renderTable([]string{"Artifact", "Path"}, rows, nil))
	}
}

func outputBase(cmd *cobra.Command, cfg config.Config) (string, error) {
	name, _ := cmd.Flags().GetString("name")
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("--name is required")
	}
	return filepath.Join(cfg.OutputDir, artifact.SanitizeName(name)), nil
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a TOML configuration file")
	rootCmd.PersistentFlags().StringP("profile", "p", "",
		fmt.Sprintf("Output profile (%s)", strings.Join(videoprocessor.GetSupportedPlatforms(), ", ")))
	rootCmd.PersistentFlags().StringP("out-dir", "o", "", "Directory for generated artifacts")
	rootCmd.PersistentFlags().StringP("name", "n", "", "Base name of the generated artifacts")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Run command flags
	runCmd.Flags().StringP("image", "i", "", "Source image")
	runCmd.Flags().StringP("music", "m", "", "Background music")
	runCmd.Flags().StringP("text", "t", "", "Text drawn on the image")
	runCmd.Flags().String("text-file", "", "File holding the text drawn on the image")
	runCmd.Flags().StringP("captions", "c", "", "Captions, spoken and burned in")
	runCmd.Flags().String("captions-file", "", "File holding the captions")
	runCmd.Flags().String("lang", "", "Narration language (BCP 47, default en)")
	runCmd.Flags().Bool("publish", false, "Upload the final video to the configured S3 bucket")
	addImageFlags(runCmd)
	addVideoFlags(runCmd)
	addAudioFlags(runCmd)
	addCaptionFlags(runCmd)
	addSpeechFlags(runCmd)

	runCmd.MarkFlagRequired("image")
	runCmd.MarkFlagRequired("music")

	configCmd.AddCommand(configSampleCmd)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(profilesCmd)
	rootCmd.AddCommand(configCmd)
	addStageCommands(rootCmd)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		cancel()
		os.Exit(1)
	}
}
