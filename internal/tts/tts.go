// Package tts turns narration text into an mp3 artifact through one of
// several text-to-speech backends.
package tts

import (
	"context"
	"strings"
	"time"

	"github.com/ZacxDev/video-narrator/internal/artifact"
	"github.com/ZacxDev/video-narrator/pkg/types"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"
)

// DefaultLanguage is used when no language code is given.
const DefaultLanguage = "en"

// Provider synthesizes text into mp3 audio.
type Provider interface {
	Name() string
	Synthesize(ctx context.Context, text, lang string) ([]byte, error)
}

// Synthesizer validates input and writes provider output as the narration
// artifact.
type Synthesizer struct {
	provider Provider
	timeout  time.Duration
	logger   zerolog.Logger
}

// NewSynthesizer wraps provider. A non-positive timeout disables the
// per-call deadline.
func NewSynthesizer(provider Provider, timeout time.Duration, logger zerolog.Logger) *Synthesizer {
	return &Synthesizer{provider: provider, timeout: timeout, logger: logger}
}

// Synthesize writes {base}_tts.mp3. Empty text and malformed language tags
// are rejected before the backend is contacted.
func (s *Synthesizer) Synthesize(ctx context.Context, text, base, lang string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", &types.EmptyTextError{}
	}
	tag, err := NormalizeLanguage(lang)
	if err != nil {
		return "", err
	}
	out, err := artifact.Derive(base, artifact.Narration, "")
	if err != nil {
		return "", err
	}

	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	audio, err := s.provider.Synthesize(callCtx, text, tag)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		var svcErr *types.TTSServiceError
		if errors.As(err, &svcErr) {
			return "", err
		}
		return "", &types.TTSServiceError{Provider: s.provider.Name(), Err: err}
	}
	if len(audio) == 0 {
		return "", &types.TTSServiceError{Provider: s.provider.Name(), Err: errors.New("backend returned no audio")}
	}
	if err := artifact.WriteFile(out, audio); err != nil {
		return "", err
	}

	s.logger.Info().
		Str("provider", s.provider.Name()).
		Str("language", tag).
		Int("bytes", len(audio)).
		Str("output", out).
		Dur("elapsed", time.Since(start)).
		Msg("narration synthesized")
	return out, nil
}

// NormalizeLanguage returns the canonical BCP 47 form of lang, defaulting to
// DefaultLanguage.
func NormalizeLanguage(lang string) (string, error) {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return DefaultLanguage, nil
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return "", errors.Wrapf(err, "invalid language code %q", lang)
	}
	return tag.String(), nil
}
