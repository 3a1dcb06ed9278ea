// Package artifact derives the on-disk names of every pipeline output from a
// single base name and writes them so that a failed producer never leaves a
// file at the final path.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// Kind identifies one artifact produced by the pipeline.
type Kind string

const (
	AnnotatedImage Kind = "annotated_image"
	SilentVideo    Kind = "silent_video"
	Narration      Kind = "narration"
	MixedAudio     Kind = "mixed_audio"
	MuxedVideo     Kind = "muxed_video"
	FinalVideo     Kind = "final_video"
)

// Kinds lists every artifact kind in production order.
var Kinds = []Kind{AnnotatedImage, SilentVideo, Narration, MixedAudio, MuxedVideo, FinalVideo}

var suffixes = map[Kind]string{
	AnnotatedImage: "_text_image",
	SilentVideo:    "_video.mp4",
	Narration:      "_tts.mp3",
	MixedAudio:     "_audio_merged.mp3",
	MuxedVideo:     "_audio_merged_video.mp4",
	FinalVideo:     "_final_video.mp4",
}

// Derive returns the artifact path for kind. imageExt is only consulted for
// AnnotatedImage and may be given with or without the leading dot.
func Derive(base string, kind Kind, imageExt string) (string, error) {
	suffix, ok := suffixes[kind]
	if !ok {
		return "", fmt.Errorf("unknown artifact kind: %s", kind)
	}
	if strings.TrimSpace(base) == "" {
		return "", errors.New("artifact base name is empty")
	}
	if kind == AnnotatedImage {
		ext := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(imageExt)), ".")
		if ext == "" {
			return "", errors.New("annotated image extension is empty")
		}
		suffix += "." + ext
	}
	return base + suffix, nil
}

// Layout holds every artifact path for one run.
type Layout struct {
	Base  string
	Paths map[Kind]string
}

// NewLayout derives all artifact paths under dir for name and rejects any
// layout in which two artifacts, or an artifact and one of the operator's
// inputs, share a path.
func NewLayout(dir, name, imageExt string, inputs ...string) (*Layout, error) {
	name = SanitizeName(name)
	if name == "" {
		return nil, errors.New("output name is empty after sanitizing")
	}
	base := filepath.Join(dir, name)

	layout := &Layout{Base: base, Paths: make(map[Kind]string, len(Kinds))}
	seen := make(map[string]string, len(Kinds)+len(inputs))
	for _, in := range inputs {
		if in == "" {
			continue
		}
		seen[cleanAbs(in)] = "input " + in
	}
	for _, kind := range Kinds {
		p, err := Derive(base, kind, imageExt)
		if err != nil {
			return nil, err
		}
		key := cleanAbs(p)
		if owner, dup := seen[key]; dup {
			return nil, fmt.Errorf("artifact %s at %s collides with %s", kind, p, owner)
		}
		seen[key] = string(kind)
		layout.Paths[kind] = p
	}
	return layout, nil
}

// Path returns the path of kind.
func (l *Layout) Path(kind Kind) string {
	return l.Paths[kind]
}

// LockPath is the advisory lock guarding this layout.
func (l *Layout) LockPath() string {
	return filepath.Join(filepath.Dir(l.Base), "."+filepath.Base(l.Base)+".lock")
}

var (
	unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9-_.]`)
	underscores = regexp.MustCompile(`_+`)
)

// SanitizeName reduces name to characters that are safe in a file name.
func SanitizeName(name string) string {
	sanitized := strings.TrimSpace(name)
	sanitized = unsafeChars.ReplaceAllString(sanitized, "_")
	sanitized = underscores.ReplaceAllString(sanitized, "_")
	return strings.Trim(sanitized, "_.")
}

// PartialPath is the hidden sibling a producer writes before the artifact is
// committed. The extension is kept so ffmpeg can infer the container.
func PartialPath(path string) string {
	return filepath.Join(filepath.Dir(path), ".partial-"+filepath.Base(path))
}

// Commit moves a fully written partial file onto path.
func Commit(partial, path string) error {
	info, err := os.Stat(partial)
	if err != nil {
		return errors.Wrapf(err, "producer did not write %s", path)
	}
	if info.Size() == 0 {
		_ = os.Remove(partial)
		return fmt.Errorf("producer wrote an empty file for %s", path)
	}
	if err := os.Rename(partial, path); err != nil {
		_ = os.Remove(partial)
		return errors.Wrapf(err, "failed to commit %s", path)
	}
	return nil
}

// Discard removes a partial file left by a failed producer.
func Discard(partial string) {
	_ = os.Remove(partial)
}

// WriteFile writes data to path through a partial file.
func WriteFile(path string, data []byte) error {
	if err := EnsureDir(path); err != nil {
		return err
	}
	partial := PartialPath(path)
	if err := os.WriteFile(partial, data, 0o644); err != nil {
		Discard(partial)
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return Commit(partial, path)
}

// EnsureDir creates the parent directory of path.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create directory %s", dir)
	}
	return nil
}

// Missing returns the paths in the list that do not exist.
func Missing(paths ...string) []string {
	var missing []string
	for _, p := range paths {
		if p == "" {
			missing = append(missing, "<empty path>")
			continue
		}
		if _, err := os.Stat(p); err != nil {
			missing = append(missing, p)
		}
	}
	return missing
}

func cleanAbs(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
