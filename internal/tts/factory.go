package tts

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/ZacxDev/video-narrator/internal/config"
)

type EngineType string

const (
	EngineGTranslate EngineType = "gtranslate"
	EngineGoogle     EngineType = "google"
	EngineOpenAI     EngineType = "openai"
	EngineElevenLabs EngineType = "elevenlabs"
)

// NewProvider returns the Provider selected by opts. A nil client uses
// http.DefaultClient.
func NewProvider(opts config.SpeechOptions, client *http.Client) (Provider, error) {
	if client == nil {
		client = http.DefaultClient
	}
	switch EngineType(strings.ToLower(strings.TrimSpace(opts.Provider))) {
	case EngineGTranslate, "":
		return NewGTranslateProvider(opts.BaseURL, client), nil
	case EngineGoogle:
		if opts.APIKey == "" {
			return nil, fmt.Errorf("google text-to-speech requires an API key")
		}
		return NewGoogleProvider(opts.BaseURL, opts.APIKey, opts.Voice, client), nil
	case EngineOpenAI:
		if opts.APIKey == "" {
			return nil, fmt.Errorf("openai speech requires an API key")
		}
		return NewOpenAIProvider(opts.BaseURL, opts.APIKey, opts.Voice, client), nil
	case EngineElevenLabs:
		if opts.APIKey == "" || opts.Voice == "" {
			return nil, fmt.Errorf("elevenlabs requires an API key and a voice id")
		}
		return NewElevenLabsProvider(opts.BaseURL, opts.APIKey, opts.Voice, client), nil
	default:
		return nil, fmt.Errorf("unsupported TTS engine: %s", opts.Provider)
	}
}
