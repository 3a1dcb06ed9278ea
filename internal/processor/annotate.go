package processor

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	"os"
	"strings"

	"github.com/ZacxDev/video-narrator/internal/artifact"
	"github.com/ZacxDev/video-narrator/internal/config"
	"github.com/ZacxDev/video-narrator/pkg/types"
	"github.com/disintegration/imaging"
	"github.com/golang/freetype/truetype"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

var (
	outlineColor = color.Black
	fillColor    = color.White
)

// outlineOffsets are drawn in outline color before the fill pass.
var outlineOffsets = []image.Point{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}

// TextPainter draws a single line of text with its baseline starting at dot.
type TextPainter interface {
	DrawText(dst draw.Image, face font.Face, c color.Color, dot image.Point, text string)
}

type drawerPainter struct{}

func (drawerPainter) DrawText(dst draw.Image, face font.Face, c color.Color, dot image.Point, text string) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(dot.X, dot.Y),
	}
	d.DrawString(text)
}

// Annotator renders outlined text onto a still image
type Annotator struct {
	opts    config.ImageOptions
	painter TextPainter
	logger  zerolog.Logger
}

// NewAnnotator creates a new image annotator
func NewAnnotator(opts config.ImageOptions, logger zerolog.Logger) *Annotator {
	return &Annotator{opts: opts, painter: drawerPainter{}, logger: logger}
}

// WithPainter replaces the glyph painter.
func (a *Annotator) WithPainter(p TextPainter) *Annotator {
	if p != nil {
		a.painter = p
	}
	return a
}

// Annotate loads sourcePath, applies the configured transforms, draws text
// centered on the target canvas and writes {base}_text_image.{format}.
//
// Rotation is counter-clockwise; the canvas grows to hold the rotated image,
// the exposed corners are black, and the result is then resized to the target
// size, so the output canvas always equals Width x Height.
func (a *Annotator) Annotate(ctx context.Context, sourcePath, base, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", &types.MissingInputError{Field: "text"}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	format, err := imaging.FormatFromExtension(a.opts.Format)
	if err != nil {
		return "", errors.Wrapf(err, "unsupported image format %q", a.opts.Format)
	}
	out, err := artifact.Derive(base, artifact.AnnotatedImage, a.opts.Format)
	if err != nil {
		return "", err
	}

	face, err := LoadFace(a.opts.FontFile, float64(a.opts.FontSize))
	if err != nil {
		return "", err
	}
	defer face.Close()

	src, err := imaging.Open(sourcePath, imaging.AutoOrientation(true))
	if err != nil {
		return "", &types.AssetLoadError{Path: sourcePath, Err: err}
	}
	srcBounds := src.Bounds()

	canvas := a.transform(src)
	a.drawOutlined(canvas, face, text)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, canvas, format, imaging.JPEGQuality(95)); err != nil {
		return "", errors.Wrap(err, "failed to encode annotated image")
	}
	if err := artifact.WriteFile(out, buf.Bytes()); err != nil {
		return "", err
	}

	a.logger.Info().
		Str("source", sourcePath).
		Str("source_size", srcBounds.Size().String()).
		Str("output", out).
		Msg("image annotated")
	return out, nil
}

// transform applies grayscale, rotation and the target resize. Grayscale
// output is a single-channel *image.Gray.
func (a *Annotator) transform(src image.Image) draw.Image {
	img := src
	if a.opts.RotationDegrees%360 != 0 {
		img = imaging.Rotate(img, float64(a.opts.RotationDegrees), color.Black)
	}
	resized := imaging.Resize(img, a.opts.Width, a.opts.Height, imaging.Lanczos)
	if !a.opts.Grayscale {
		return resized
	}
	gray := image.NewGray(resized.Bounds())
	draw.Draw(gray, gray.Bounds(), resized, resized.Bounds().Min, draw.Src)
	return gray
}

// drawOutlined centers the text block, displaced by the configured offset,
// and draws every line at the four diagonal offsets before the fill pass.
func (a *Annotator) drawOutlined(dst draw.Image, face font.Face, text string) {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	metrics := face.Metrics()
	ascent := metrics.Ascent.Ceil()
	lineHeight := (metrics.Ascent + metrics.Descent).Ceil()
	blockHeight := lineHeight * len(lines)

	bounds := dst.Bounds()
	top := (bounds.Dy()-blockHeight)/2 + a.opts.OffsetY

	for i, line := range lines {
		line = strings.TrimSpace(line)
		width := font.MeasureString(face, line).Ceil()
		dot := image.Point{
			X: bounds.Min.X + (bounds.Dx()-width)/2 + a.opts.OffsetX,
			Y: bounds.Min.Y + top + i*lineHeight + ascent,
		}
		for _, off := range outlineOffsets {
			a.painter.DrawText(dst, face, outlineColor, dot.Add(off), line)
		}
		a.painter.DrawText(dst, face, fillColor, dot, line)
	}
}

// LoadFace parses path, or the bundled Go Regular font when path is empty,
// at size points. A requested file that is missing or unparsable is an error;
// there is no fallback.
func LoadFace(path string, size float64) (font.Face, error) {
	data := goregular.TTF
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, &types.FontLoadError{Path: path, Err: err}
		}
		data = b
	}
	f, err := truetype.Parse(data)
	if err != nil {
		name := path
		if name == "" {
			name = "goregular"
		}
		return nil, &types.FontLoadError{Path: name, Err: err}
	}
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	}), nil
}
