package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
)

const elevenLabsURL = "https://api.elevenlabs.io"

type elevenLabsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	LanguageCode  string        `json:"language_code,omitempty"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// ElevenLabsProvider calls the ElevenLabs text-to-speech API for one voice.
type ElevenLabsProvider struct {
	baseURL string
	apiKey  string
	voiceID string
	client  *http.Client
}

func NewElevenLabsProvider(baseURL, apiKey, voiceID string, client *http.Client) *ElevenLabsProvider {
	return &ElevenLabsProvider{baseURL: baseURLOr(baseURL, elevenLabsURL), apiKey: apiKey, voiceID: voiceID, client: client}
}

func (p *ElevenLabsProvider) Name() string { return string(EngineElevenLabs) }

func (p *ElevenLabsProvider) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	reqBody := elevenLabsRequest{
		Text:         text,
		ModelID:      "eleven_multilingual_v2",
		LanguageCode: lang,
		VoiceSettings: voiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
		},
	}
	jsonPayload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	endpoint := p.baseURL + "/v1/text-to-speech/" + url.PathEscape(p.voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonPayload))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	reqHeaders := map[string]string{
		"Accept":       "audio/mpeg",
		"xi-api-key":   p.apiKey,
		"Content-Type": "application/json",
	}
	for key, value := range reqHeaders {
		req.Header.Set(key, value)
	}

	return fetch(p.client, p.Name(), req)
}
