package ffmpeg

import (
	"strings"
	"testing"
)

func TestEscapeFilterValue(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Hello World", "Hello World"},
		{"it's 1:2", `it\\\'s 1\\:2`},
		{"a,b;c", `a\,b\;c`},
		{"[x]", `\[x\]`},
		{`back\slash`, `back\\\\slash`},
	}
	for _, tt := range tests {
		if got := EscapeFilterValue(tt.in); got != tt.want {
			t.Errorf("EscapeFilterValue(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDrawTextFilter(t *testing.T) {
	f := DrawTextFilter(DrawTextOptions{
		Text:         "Line one.\nLine two.",
		FontSize:     40,
		ShadowOffset: 2,
		BoxOpacity:   0.5,
		BottomMargin: 50,
		LineSpacing:  8,
	})
	for _, want := range []string{
		"drawtext=text=Line one.\nLine two.",
		"expansion=none",
		"fontsize=40",
		"fontcolor=white",
		"shadowcolor=black",
		"shadowx=2",
		"shadowy=2",
		"box=1",
		"boxcolor=black@0.5",
		"x=(w-text_w)/2",
		"y=h-text_h-50",
	} {
		if !strings.Contains(f, want) {
			t.Errorf("filter %q missing %q", f, want)
		}
	}
	if strings.Contains(f, "fontfile=") {
		t.Error("fontfile should be omitted when empty")
	}
}

func TestDrawTextFilterFontFile(t *testing.T) {
	f := DrawTextFilter(DrawTextOptions{Text: "x", FontFile: "C:/fonts/a.ttf", FontSize: 10})
	if !strings.Contains(f, `fontfile=C\\:/fonts/a.ttf`) {
		t.Fatalf("font path not escaped: %q", f)
	}
}
