package processor

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/ZacxDev/video-narrator/internal/config"
	"github.com/ZacxDev/video-narrator/pkg/types"
	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
	"golang.org/x/image/font"
)

type paintCall struct {
	color color.Color
	dot   image.Point
	text  string
}

type recordingPainter struct {
	calls []paintCall
}

func (r *recordingPainter) DrawText(dst draw.Image, face font.Face, c color.Color, dot image.Point, text string) {
	r.calls = append(r.calls, paintCall{color: c, dot: dot, text: text})
}

func writeSourceImage(t *testing.T, dir string, w, h int) string {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 200, G: 40, B: 40, A: 255})
	path := filepath.Join(dir, "image.png")
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("save source: %v", err)
	}
	return path
}

func defaultImageOptions() config.ImageOptions {
	return config.Default().Image
}

func decodePNG(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return img
}

func TestAnnotateCanvasMatchesTargetSize(t *testing.T) {
	tests := []struct {
		name     string
		srcW     int
		srcH     int
		rotation int
	}{
		{"larger source", 1024, 768, 0},
		{"odd source", 333, 517, 0},
		{"rotated 90", 1024, 768, 90},
		{"rotated 45 expands", 640, 480, 45},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			src := writeSourceImage(t, dir, tt.srcW, tt.srcH)
			opts := defaultImageOptions()
			opts.RotationDegrees = tt.rotation

			out, err := NewAnnotator(opts, zerolog.Nop()).
				Annotate(context.Background(), src, filepath.Join(dir, "clip"), "Hello World")
			if err != nil {
				t.Fatalf("Annotate: %v", err)
			}
			if filepath.Base(out) != "clip_text_image.png" {
				t.Fatalf("unexpected output name %s", out)
			}
			b := decodePNG(t, out).Bounds()
			if b.Dx() != 800 || b.Dy() != 600 {
				t.Fatalf("canvas = %dx%d, want 800x600", b.Dx(), b.Dy())
			}
		})
	}
}

func grayAt(t *testing.T, img image.Image, x, y int) uint8 {
	t.Helper()
	return color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y
}

func TestAnnotateRotatesCounterClockwise(t *testing.T) {
	dir := t.TempDir()
	// Left half white, right half black.
	src := imaging.New(400, 200, color.White)
	src = imaging.Paste(src, imaging.New(200, 200, color.Black), image.Pt(200, 0))
	path := filepath.Join(dir, "image.png")
	if err := imaging.Save(src, path); err != nil {
		t.Fatalf("save source: %v", err)
	}
	opts := defaultImageOptions()
	opts.RotationDegrees = 90

	out, err := NewAnnotator(opts, zerolog.Nop()).WithPainter(&recordingPainter{}).
		Annotate(context.Background(), path, filepath.Join(dir, "clip"), "Hi")
	if err != nil {
		t.Fatalf("Annotate: %v", err)
	}
	img := decodePNG(t, out)
	// Counter-clockwise moves the right edge to the top.
	if top := grayAt(t, img, 400, 100); top > 40 {
		t.Fatalf("top half should come from the black right side, got %d", top)
	}
	if bottom := grayAt(t, img, 400, 500); bottom < 215 {
		t.Fatalf("bottom half should come from the white left side, got %d", bottom)
	}
}

func TestAnnotateRotationExpandsWithBlackPadding(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "image.png")
	if err := imaging.Save(imaging.New(640, 480, color.White), path); err != nil {
		t.Fatalf("save source: %v", err)
	}
	opts := defaultImageOptions()
	opts.RotationDegrees = 45

	out, err := NewAnnotator(opts, zerolog.Nop()).WithPainter(&recordingPainter{}).
		Annotate(context.Background(), path, filepath.Join(dir, "clip"), "Hi")
	if err != nil {
		t.Fatalf("Annotate: %v", err)
	}
	img := decodePNG(t, out)
	for _, corner := range []image.Point{{2, 2}, {797, 2}, {2, 597}, {797, 597}} {
		if v := grayAt(t, img, corner.X, corner.Y); v > 10 {
			t.Fatalf("corner %v should be black padding, got %d", corner, v)
		}
	}
	if v := grayAt(t, img, 400, 200); v < 245 {
		t.Fatalf("image content should survive inside the padded canvas, got %d", v)
	}
}

func TestAnnotateGrayscaleIsSingleChannel(t *testing.T) {
	dir := t.TempDir()
	src := writeSourceImage(t, dir, 200, 100)
	out, err := NewAnnotator(defaultImageOptions(), zerolog.Nop()).
		Annotate(context.Background(), src, filepath.Join(dir, "clip"), "Hi")
	if err != nil {
		t.Fatalf("Annotate: %v", err)
	}
	if _, ok := decodePNG(t, out).(*image.Gray); !ok {
		t.Fatalf("expected *image.Gray output")
	}
}

func TestAnnotateColorWhenGrayscaleDisabled(t *testing.T) {
	dir := t.TempDir()
	src := writeSourceImage(t, dir, 200, 100)
	opts := defaultImageOptions()
	opts.Grayscale = false
	out, err := NewAnnotator(opts, zerolog.Nop()).
		Annotate(context.Background(), src, filepath.Join(dir, "clip"), "Hi")
	if err != nil {
		t.Fatalf("Annotate: %v", err)
	}
	if _, ok := decodePNG(t, out).(*image.Gray); ok {
		t.Fatalf("color output expected")
	}
}

func TestAnnotateOutlineBeforeFill(t *testing.T) {
	dir := t.TempDir()
	src := writeSourceImage(t, dir, 1024, 768)
	painter := &recordingPainter{}
	_, err := NewAnnotator(defaultImageOptions(), zerolog.Nop()).
		WithPainter(painter).
		Annotate(context.Background(), src, filepath.Join(dir, "clip"), "Hello World")
	if err != nil {
		t.Fatalf("Annotate: %v", err)
	}
	if len(painter.calls) != 5 {
		t.Fatalf("expected 5 draws, got %d", len(painter.calls))
	}
	fill := painter.calls[4]
	if fill.color != fillColor {
		t.Fatalf("last draw must be the fill, got %v", fill.color)
	}
	want := map[image.Point]bool{
		fill.dot.Add(image.Pt(-1, -1)): true,
		fill.dot.Add(image.Pt(-1, 1)):  true,
		fill.dot.Add(image.Pt(1, -1)):  true,
		fill.dot.Add(image.Pt(1, 1)):   true,
	}
	for i, c := range painter.calls[:4] {
		if c.color != outlineColor {
			t.Fatalf("draw %d should be outline, got %v", i, c.color)
		}
		if !want[c.dot] {
			t.Fatalf("draw %d at %v is not a diagonal offset of %v", i, c.dot, fill.dot)
		}
		delete(want, c.dot)
	}
}

func TestAnnotateCentersAndOffsets(t *testing.T) {
	dir := t.TempDir()
	src := writeSourceImage(t, dir, 640, 480)

	fillDot := func(opts config.ImageOptions) image.Point {
		painter := &recordingPainter{}
		_, err := NewAnnotator(opts, zerolog.Nop()).
			WithPainter(painter).
			Annotate(context.Background(), src, filepath.Join(dir, "clip"), "Hello")
		if err != nil {
			t.Fatalf("Annotate: %v", err)
		}
		return painter.calls[len(painter.calls)-1].dot
	}

	opts := defaultImageOptions()
	centered := fillDot(opts)

	face, err := LoadFace("", float64(opts.FontSize))
	if err != nil {
		t.Fatal(err)
	}
	width := font.MeasureString(face, "Hello").Ceil()
	if centered.X != (opts.Width-width)/2 {
		t.Fatalf("x = %d, want %d", centered.X, (opts.Width-width)/2)
	}

	opts.OffsetX, opts.OffsetY = 15, -40
	shifted := fillDot(opts)
	if shifted.X-centered.X != 15 || shifted.Y-centered.Y != -40 {
		t.Fatalf("offset not applied: centered %v shifted %v", centered, shifted)
	}
}

func TestAnnotateRequiresText(t *testing.T) {
	dir := t.TempDir()
	src := writeSourceImage(t, dir, 100, 100)
	_, err := NewAnnotator(defaultImageOptions(), zerolog.Nop()).
		Annotate(context.Background(), src, filepath.Join(dir, "clip"), "   ")
	var missing *types.MissingInputError
	if !errors.As(err, &missing) || missing.Field != "text" {
		t.Fatalf("expected MissingInputError for text, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "clip_text_image.png")); !os.IsNotExist(err) {
		t.Fatal("no image should be written without text")
	}
}

func TestAnnotateMissingFont(t *testing.T) {
	dir := t.TempDir()
	src := writeSourceImage(t, dir, 100, 100)
	opts := defaultImageOptions()
	opts.FontFile = filepath.Join(dir, "missing.ttf")
	_, err := NewAnnotator(opts, zerolog.Nop()).
		Annotate(context.Background(), src, filepath.Join(dir, "clip"), "Hi")
	var fontErr *types.FontLoadError
	if !errors.As(err, &fontErr) {
		t.Fatalf("expected FontLoadError, got %v", err)
	}
}

func TestAnnotateUndecodableSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "broken.png")
	if err := os.WriteFile(src, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := NewAnnotator(defaultImageOptions(), zerolog.Nop()).
		Annotate(context.Background(), src, filepath.Join(dir, "clip"), "Hi")
	var loadErr *types.AssetLoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected AssetLoadError, got %v", err)
	}
}

func TestAnnotateJPEGExtension(t *testing.T) {
	dir := t.TempDir()
	src := writeSourceImage(t, dir, 100, 100)
	opts := defaultImageOptions()
	opts.Format = "jpg"
	out, err := NewAnnotator(opts, zerolog.Nop()).
		Annotate(context.Background(), src, filepath.Join(dir, "clip"), "Hi")
	if err != nil {
		t.Fatalf("Annotate: %v", err)
	}
	if filepath.Base(out) != "clip_text_image.jpg" {
		t.Fatalf("unexpected output %s", out)
	}
}
