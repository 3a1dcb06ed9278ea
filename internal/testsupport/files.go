package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile creates path with the given content, creating parent directories.
func WriteFile(t testing.TB, path string, content []byte) string {
	t.Helper()

	if len(content) == 0 {
		content = []byte{0x42}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// VideoProbe is an ffprobe document for a 10 second 800x600 video with audio.
const VideoProbe = `{
  "streams": [
    {"codec_type": "video", "codec_name": "h264", "width": 800, "height": 600, "duration": "10.000000"},
    {"codec_type": "audio", "codec_name": "mp3", "duration": "9.980000"}
  ],
  "format": {"duration": "10.000000"}
}`
