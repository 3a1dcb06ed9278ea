package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ZacxDev/video-narrator/internal/artifact"
	"github.com/ZacxDev/video-narrator/pkg/types"
	"github.com/gofrs/flock"
	"github.com/rs/zerolog"
)

// fakeStages implements every stage interface, writing the derived artifact
// and recording call order.
type fakeStages struct {
	t     *testing.T
	calls []types.Stage
	fail  map[types.Stage]error
}

func (f *fakeStages) produce(stage types.Stage, base string, kind artifact.Kind, ext string) (string, error) {
	f.calls = append(f.calls, stage)
	if err := f.fail[stage]; err != nil {
		return "", err
	}
	path, err := artifact.Derive(base, kind, ext)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(stage), 0o644); err != nil {
		f.t.Fatalf("write %s: %v", path, err)
	}
	return path, nil
}

func (f *fakeStages) requireInput(path string) {
	if _, err := os.Stat(path); err != nil {
		f.t.Errorf("stage input %q does not exist", path)
	}
}

func (f *fakeStages) Annotate(ctx context.Context, src, base, text string) (string, error) {
	return f.produce(types.StageAnnotate, base, artifact.AnnotatedImage, "png")
}

func (f *fakeStages) Encode(ctx context.Context, image, base string) (string, error) {
	f.requireInput(image)
	return f.produce(types.StageEncode, base, artifact.SilentVideo, "")
}

func (f *fakeStages) Synthesize(ctx context.Context, text, base, lang string) (string, error) {
	if text == "" {
		f.calls = append(f.calls, types.StageSynthesize)
		return "", &types.EmptyTextError{}
	}
	return f.produce(types.StageSynthesize, base, artifact.Narration, "")
}

func (f *fakeStages) MixAudio(ctx context.Context, music, narration, base string) (string, error) {
	f.requireInput(narration)
	return f.produce(types.StageMix, base, artifact.MixedAudio, "")
}

func (f *fakeStages) MuxVideo(ctx context.Context, video, audio, base string) (string, error) {
	f.requireInput(video)
	f.requireInput(audio)
	return f.produce(types.StageMux, base, artifact.MuxedVideo, "")
}

func (f *fakeStages) BurnSubtitles(ctx context.Context, video, captions, base string) (string, error) {
	f.requireInput(video)
	return f.produce(types.StageSubtitles, base, artifact.FinalVideo, "")
}

func newFakePipeline(t *testing.T, fail map[types.Stage]error) (*Pipeline, *fakeStages) {
	f := &fakeStages{t: t, fail: fail}
	stages := Stages{Annotator: f, Encoder: f, Synthesizer: f, Mixer: f, Burner: f}
	return New(stages, zerolog.Nop()), f
}

func testInput(dir string) Input {
	return Input{
		ImagePath: filepath.Join(dir, "image.jpg"),
		MusicPath: filepath.Join(dir, "background_music.mp3"),
		Text:      "Hello World",
		Captions:  "Line one. Line two.",
		Language:  "en",
		Name:      "clip",
		OutputDir: dir,
		ImageExt:  "png",
	}
}

func TestRunCompletesInOrder(t *testing.T) {
	dir := t.TempDir()
	p, f := newFakePipeline(t, nil)

	res, err := p.Run(context.Background(), testInput(dir))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Err != nil || res.State != types.StateSubtitlesBurned {
		t.Fatalf("unexpected result state=%s err=%v", res.State, res.Err)
	}
	want := []types.Stage{types.StageAnnotate, types.StageEncode, types.StageSynthesize, types.StageMix, types.StageMux, types.StageSubtitles}
	if len(f.calls) != len(want) {
		t.Fatalf("calls = %v", f.calls)
	}
	for i := range want {
		if f.calls[i] != want[i] {
			t.Fatalf("call %d = %s, want %s", i, f.calls[i], want[i])
		}
	}
	if len(res.Artifacts) != len(artifact.Kinds) {
		t.Fatalf("expected %d artifacts, got %d", len(artifact.Kinds), len(res.Artifacts))
	}
	if res.Final() != filepath.Join(dir, "clip_final_video.mp4") {
		t.Fatalf("final = %s", res.Final())
	}
	if res.RunID == "" {
		t.Fatal("run id missing")
	}
	if _, err := os.Stat(filepath.Join(dir, ".clip.lock")); err != nil {
		t.Fatalf("lock file should stay in place: %v", err)
	}
	next := flock.New(filepath.Join(dir, ".clip.lock"))
	if ok, err := next.TryLock(); err != nil || !ok {
		t.Fatalf("lock should be released after the run: ok=%v err=%v", ok, err)
	}
	_ = next.Unlock()
}

func TestRunStopsAtFailedStage(t *testing.T) {
	dir := t.TempDir()
	encodeErr := &types.EncodeError{Stage: types.StageMix, ExitCode: 1}
	p, f := newFakePipeline(t, map[types.Stage]error{types.StageMix: encodeErr})

	res, err := p.Run(context.Background(), testInput(dir))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.State != types.StateFailed {
		t.Fatalf("state = %s, want failed", res.State)
	}
	if res.FailedStage() != types.StageMix {
		t.Fatalf("failed stage = %s", res.FailedStage())
	}
	var got *types.EncodeError
	if !errors.As(res.Err, &got) || got.ExitCode != 1 {
		t.Fatalf("originating error not carried: %v", res.Err)
	}
	if f.calls[len(f.calls)-1] != types.StageMix {
		t.Fatalf("pipeline continued past the failure: %v", f.calls)
	}
	if res.Final() != "" || res.Path(artifact.MuxedVideo) != "" {
		t.Fatal("no later artifact may be reported after a failure")
	}
	if res.Path(artifact.Narration) == "" {
		t.Fatal("earlier artifacts should be reported")
	}
	if _, err := os.Stat(res.Path(artifact.SilentVideo)); err != nil {
		t.Fatal("earlier artifacts are kept on disk")
	}
}

func TestRunEmptyCaptionsFailsBeforeAnyStage(t *testing.T) {
	dir := t.TempDir()
	p, f := newFakePipeline(t, nil)
	in := testInput(dir)
	in.Captions = "  "

	res, err := p.Run(context.Background(), in)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	var empty *types.EmptyTextError
	if !errors.As(res.Err, &empty) {
		t.Fatalf("expected EmptyTextError, got %v", res.Err)
	}
	if res.FailedStage() != types.StageSynthesize {
		t.Fatalf("failed stage = %s", res.FailedStage())
	}
	if len(f.calls) != 0 || len(res.Artifacts) != 0 {
		t.Fatalf("no stage may run: calls=%v artifacts=%v", f.calls, res.Artifacts)
	}
}

func TestRunMissingTextFailsAtAnnotate(t *testing.T) {
	p, _ := newFakePipeline(t, nil)
	in := testInput(t.TempDir())
	in.Text = ""

	res, err := p.Run(context.Background(), in)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	var missing *types.MissingInputError
	if !errors.As(res.Err, &missing) || res.FailedStage() != types.StageAnnotate {
		t.Fatalf("expected MissingInputError at annotate, got %v", res.Err)
	}
}

func TestRunCancelledContext(t *testing.T) {
	p, f := newFakePipeline(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := p.Run(ctx, testInput(t.TempDir()))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !errors.Is(res.Err, context.Canceled) || res.State != types.StateFailed {
		t.Fatalf("expected cancellation, got state=%s err=%v", res.State, res.Err)
	}
	if len(f.calls) != 0 {
		t.Fatalf("no stage may run after cancellation: %v", f.calls)
	}
}

func TestRunRejectsBusyBaseName(t *testing.T) {
	dir := t.TempDir()
	held := flock.New(filepath.Join(dir, ".clip.lock"))
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("TryLock: %v", err)
	}
	defer held.Unlock()

	p, _ := newFakePipeline(t, nil)
	if _, err := p.Run(context.Background(), testInput(dir)); !errors.Is(err, types.ErrPipelineBusy) {
		t.Fatalf("expected ErrPipelineBusy, got %v", err)
	}
}

func TestRunReusesLockFileAcrossRuns(t *testing.T) {
	dir := t.TempDir()
	p, _ := newFakePipeline(t, nil)
	if _, err := p.Run(context.Background(), testInput(dir)); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	before, err := os.Stat(filepath.Join(dir, ".clip.lock"))
	if err != nil {
		t.Fatalf("stat lock: %v", err)
	}

	p2, _ := newFakePipeline(t, nil)
	if _, err := p2.Run(context.Background(), testInput(dir)); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	after, err := os.Stat(filepath.Join(dir, ".clip.lock"))
	if err != nil {
		t.Fatalf("stat lock: %v", err)
	}
	if !os.SameFile(before, after) {
		t.Fatal("runs on the same base name must share one lock file")
	}
}

func TestRunRejectsCollidingLayout(t *testing.T) {
	dir := t.TempDir()
	in := testInput(dir)
	in.MusicPath = filepath.Join(dir, "clip_tts.mp3")

	p, _ := newFakePipeline(t, nil)
	if _, err := p.Run(context.Background(), in); err == nil {
		t.Fatal("expected a collision error")
	}
}
