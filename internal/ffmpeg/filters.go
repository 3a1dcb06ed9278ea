package ffmpeg

import (
	"fmt"
	"strconv"
	"strings"
)

// DrawTextOptions describes a centered, bottom-anchored caption block.
type DrawTextOptions struct {
	Text         string
	FontFile     string
	FontSize     int
	FontColor    string
	ShadowColor  string
	ShadowOffset int
	BoxOpacity   float64
	BottomMargin int
	LineSpacing  int
}

// DrawTextFilter renders a drawtext filter suitable for -vf. The text is
// escaped for both the option and the filtergraph level.
func DrawTextFilter(o DrawTextOptions) string {
	fontColor := o.FontColor
	if fontColor == "" {
		fontColor = "white"
	}
	shadowColor := o.ShadowColor
	if shadowColor == "" {
		shadowColor = "black"
	}

	parts := []string{
		"text=" + EscapeFilterValue(o.Text),
		"expansion=none",
	}
	if o.FontFile != "" {
		parts = append(parts, "fontfile="+EscapeFilterValue(o.FontFile))
	}
	parts = append(parts,
		fmt.Sprintf("fontsize=%d", o.FontSize),
		"fontcolor="+fontColor,
		"shadowcolor="+shadowColor,
		fmt.Sprintf("shadowx=%d", o.ShadowOffset),
		fmt.Sprintf("shadowy=%d", o.ShadowOffset),
		"box=1",
		fmt.Sprintf("boxcolor=black@%s", formatOpacity(o.BoxOpacity)),
		"boxborderw=10",
		fmt.Sprintf("line_spacing=%d", o.LineSpacing),
		"x=(w-text_w)/2",
		fmt.Sprintf("y=h-text_h-%d", o.BottomMargin),
	)
	return "drawtext=" + strings.Join(parts, ":")
}

var (
	optionEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, `:`, `\:`)
	graphEscaper  = strings.NewReplacer(`\`, `\\`, `'`, `\'`, `[`, `\[`, `]`, `\]`, `,`, `\,`, `;`, `\;`)
)

// EscapeFilterValue escapes s for use as an option value inside a
// filtergraph string.
func EscapeFilterValue(s string) string {
	return graphEscaper.Replace(optionEscaper.Replace(s))
}

func formatOpacity(v float64) string {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
