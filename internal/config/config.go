package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

//go:embed sample_config.toml
var sampleConfig string

// ImageOptions controls the image annotator.
type ImageOptions struct {
	Grayscale       bool   `toml:"grayscale"`
	RotationDegrees int    `toml:"rotation_degrees"`
	Width           int    `toml:"width"`
	Height          int    `toml:"height"`
	OffsetX         int    `toml:"offset_x"`
	OffsetY         int    `toml:"offset_y"`
	FontSize        int    `toml:"font_size"`
	FontFile        string `toml:"font_file"`
	Format          string `toml:"format"` // "png" or "jpg"
}

// VideoOptions controls the still-image encoder.
type VideoOptions struct {
	DurationSeconds int    `toml:"duration_seconds"`
	FPS             int    `toml:"fps"`
	Codec           string `toml:"codec"`
}

// AudioOptions controls the music and narration mix.
type AudioOptions struct {
	MusicVolume float64 `toml:"music_volume"`
	Bitrate     string  `toml:"bitrate"`
}

// CaptionOptions controls the burned-in subtitle block.
type CaptionOptions struct {
	WrapWidth    int     `toml:"wrap_width"`
	FontSize     int     `toml:"font_size"`
	FontFile     string  `toml:"font_file"`
	BottomMargin int     `toml:"bottom_margin"`
	ShadowOffset int     `toml:"shadow_offset"`
	BoxOpacity   float64 `toml:"box_opacity"`
	LineSpacing  int     `toml:"line_spacing"`
}

// SpeechOptions selects and configures the text-to-speech backend.
type SpeechOptions struct {
	Provider       string `toml:"provider"`
	Language       string `toml:"language"`
	Voice          string `toml:"voice"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// FFmpegOptions locates the external encoder.
type FFmpegOptions struct {
	Binary         string `toml:"binary"`
	ProbeBinary    string `toml:"probe_binary"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// PublishOptions configures the optional S3 upload of the final video.
type PublishOptions struct {
	Bucket string `toml:"bucket"`
	Prefix string `toml:"prefix"`
	Region string `toml:"region"`
}

// LogOptions configures the logger.
type LogOptions struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "auto", "console" or "json"
}

// Config is the complete narrator configuration.
type Config struct {
	OutputDir string         `toml:"output_dir"`
	Profile   string         `toml:"profile"`
	Image     ImageOptions   `toml:"image"`
	Video     VideoOptions   `toml:"video"`
	Audio     AudioOptions   `toml:"audio"`
	Captions  CaptionOptions `toml:"captions"`
	Speech    SpeechOptions  `toml:"speech"`
	FFmpeg    FFmpegOptions  `toml:"ffmpeg"`
	Publish   PublishOptions `toml:"publish"`
	Log       LogOptions     `toml:"log"`
}

const (
	DefaultWidth           = 800
	DefaultHeight          = 600
	DefaultImageFontSize   = 48
	DefaultDurationSeconds = 10
	DefaultFPS             = 30
	DefaultVideoCodec      = "libx264"
	DefaultAudioBitrate    = "192k"

	// Caption overlay settings
	DefaultWrapWidth    = 60
	DefaultCaptionSize  = 40
	DefaultBottomMargin = 50
	DefaultShadowOffset = 2
	DefaultBoxOpacity   = 0.5
	DefaultLineSpacing  = 8

	DefaultSpeechProvider = "gtranslate"
	DefaultLanguage       = "en"
	DefaultSpeechTimeout  = 30
	DefaultFFmpegTimeout  = 300
)

var (
	supportedImageFormats = []string{"png", "jpg", "jpeg"}
	supportedLogFormats   = []string{"auto", "console", "json"}
	supportedProviders    = []string{"gtranslate", "google", "openai", "elevenlabs"}
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		OutputDir: ".",
		Profile:   "default",
		Image: ImageOptions{
			Grayscale: true,
			Width:     DefaultWidth,
			Height:    DefaultHeight,
			FontSize:  DefaultImageFontSize,
			Format:    "png",
		},
		Video: VideoOptions{
			DurationSeconds: DefaultDurationSeconds,
			FPS:             DefaultFPS,
			Codec:           DefaultVideoCodec,
		},
		Audio: AudioOptions{
			MusicVolume: 1.0,
			Bitrate:     DefaultAudioBitrate,
		},
		Captions: CaptionOptions{
			WrapWidth:    DefaultWrapWidth,
			FontSize:     DefaultCaptionSize,
			BottomMargin: DefaultBottomMargin,
			ShadowOffset: DefaultShadowOffset,
			BoxOpacity:   DefaultBoxOpacity,
			LineSpacing:  DefaultLineSpacing,
		},
		Speech: SpeechOptions{
			Provider:       DefaultSpeechProvider,
			Language:       DefaultLanguage,
			TimeoutSeconds: DefaultSpeechTimeout,
		},
		FFmpeg: FFmpegOptions{
			Binary:         "ffmpeg",
			ProbeBinary:    "ffprobe",
			TimeoutSeconds: DefaultFFmpegTimeout,
		},
		Log: LogOptions{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "failed to read config %s", path)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "failed to parse config %s", path)
	}
	cfg.normalize()
	return cfg, nil
}

// SampleConfig returns the commented sample configuration.
func SampleConfig() string {
	return sampleConfig
}

func (c *Config) normalize() {
	c.Image.Format = strings.ToLower(strings.TrimSpace(c.Image.Format))
	if c.Image.Format == "jpeg" {
		c.Image.Format = "jpg"
	}
	c.Speech.Provider = strings.ToLower(strings.TrimSpace(c.Speech.Provider))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	c.Image.FontFile = expandHome(c.Image.FontFile)
	c.Captions.FontFile = expandHome(c.Captions.FontFile)
	c.OutputDir = expandHome(c.OutputDir)
}

// Validate checks that every option is usable.
func (c *Config) Validate() error {
	c.normalize()
	if c.Image.Width <= 0 || c.Image.Height <= 0 {
		return fmt.Errorf("image size must be positive, got %dx%d", c.Image.Width, c.Image.Height)
	}
	if c.Image.FontSize <= 0 {
		return fmt.Errorf("image font size must be positive, got %d", c.Image.FontSize)
	}
	if !slices.Contains(supportedImageFormats, c.Image.Format) {
		return fmt.Errorf("unsupported image format: %s (supported: png, jpg)", c.Image.Format)
	}
	if c.Video.DurationSeconds <= 0 {
		return fmt.Errorf("video duration must be positive, got %d", c.Video.DurationSeconds)
	}
	if c.Video.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", c.Video.FPS)
	}
	if strings.TrimSpace(c.Video.Codec) == "" {
		return errors.New("video codec is empty")
	}
	if c.Audio.MusicVolume < 0 {
		return fmt.Errorf("music volume must not be negative, got %g", c.Audio.MusicVolume)
	}
	if c.Captions.WrapWidth <= 0 {
		return fmt.Errorf("caption wrap width must be positive, got %d", c.Captions.WrapWidth)
	}
	if c.Captions.FontSize <= 0 {
		return fmt.Errorf("caption font size must be positive, got %d", c.Captions.FontSize)
	}
	if c.Captions.BoxOpacity < 0 || c.Captions.BoxOpacity > 1 {
		return fmt.Errorf("caption box opacity must be within [0,1], got %g", c.Captions.BoxOpacity)
	}
	if !slices.Contains(supportedProviders, c.Speech.Provider) {
		return fmt.Errorf("unsupported speech provider: %s (supported: %s)",
			c.Speech.Provider, strings.Join(SupportedProviders(), ", "))
	}
	if c.Speech.TimeoutSeconds <= 0 || c.FFmpeg.TimeoutSeconds <= 0 {
		return errors.New("timeouts must be positive")
	}
	if !slices.Contains(supportedLogFormats, c.Log.Format) {
		return fmt.Errorf("unsupported log format: %s", c.Log.Format)
	}
	return nil
}

// SpeechTimeout is the per-request TTS deadline.
func (c *Config) SpeechTimeout() time.Duration {
	return time.Duration(c.Speech.TimeoutSeconds) * time.Second
}

// FFmpegTimeout is the per-process encode deadline.
func (c *Config) FFmpegTimeout() time.Duration {
	return time.Duration(c.FFmpeg.TimeoutSeconds) * time.Second
}

// SupportedProviders lists the speech backends.
func SupportedProviders() []string {
	return slices.Clone(supportedProviders)
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return home + path[1:]
}
