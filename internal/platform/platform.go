package platform

import (
	"fmt"
	"sort"

	"github.com/ZacxDev/video-narrator/internal/config"
)

// Platform defines an output profile the narrated video is produced for
type Platform interface {
	// GetName returns the profile name
	GetName() string

	// GetCanvasSize returns the annotated image and video frame size
	GetCanvasSize() (width, height int)

	// GetMaxDuration returns the maximum allowed video duration in seconds
	GetMaxDuration() int

	// GetVideoCodec returns the encoder used for the silent and final video
	GetVideoCodec() string

	// GetFrameRate returns the target frame rate
	GetFrameRate() int

	// GetAudioBitrate returns the bitrate of the mixed narration track
	GetAudioBitrate() string
}

var platforms = make(map[string]Platform)

// Register adds a platform to the registry
func Register(p Platform) {
	platforms[p.GetName()] = p
}

// Get returns a platform by name
func Get(name string) (Platform, error) {
	p, ok := platforms[name]
	if !ok {
		return nil, fmt.Errorf("unsupported platform: %s", name)
	}
	return p, nil
}

// GetSupportedPlatforms returns a sorted list of supported platform names
func GetSupportedPlatforms() []string {
	names := make([]string, 0, len(platforms))
	for name := range platforms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply overwrites the canvas, codec, frame rate and audio bitrate of cfg
// with the values of the named profile and checks the duration limit.
func Apply(name string, cfg *config.Config) error {
	p, err := Get(name)
	if err != nil {
		return err
	}
	cfg.Image.Width, cfg.Image.Height = p.GetCanvasSize()
	cfg.Video.Codec = p.GetVideoCodec()
	cfg.Video.FPS = p.GetFrameRate()
	cfg.Audio.Bitrate = p.GetAudioBitrate()
	cfg.Profile = p.GetName()
	return CheckDuration(p, cfg.Video.DurationSeconds)
}

// CheckDuration rejects durations the profile does not allow.
func CheckDuration(p Platform, seconds int) error {
	if limit := p.GetMaxDuration(); limit > 0 && seconds > limit {
		return fmt.Errorf("video duration %ds exceeds %s maximum of %ds", seconds, p.GetName(), limit)
	}
	return nil
}
