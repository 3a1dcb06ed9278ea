package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewJSONCarriesStage(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "info", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	stageLogger := WithStage(logger, "encode")
	stageLogger.Info().Str("artifact", "clip_video.mp4").Msg("stage complete")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["stage"] != "encode" || entry["artifact"] != "clip_video.mp4" {
		t.Fatalf("unexpected fields: %v", entry)
	}
}

func TestNewVerboseEnablesDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "warn", Format: "json", Verbose: true, Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Debug().Msg("ffmpeg args")
	if !strings.Contains(buf.String(), "ffmpeg args") {
		t.Fatal("debug message suppressed with verbose enabled")
	}
}

func TestNewAutoFallsBackToJSONForBuffers(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Format: "auto", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info().Msg("hello")
	if !strings.HasPrefix(strings.TrimSpace(buf.String()), "{") {
		t.Fatalf("expected JSON output, got %q", buf.String())
	}
}

func TestNewRejectsUnknownFormatAndLevel(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
	if _, err := New(Options{Level: "chatty"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
