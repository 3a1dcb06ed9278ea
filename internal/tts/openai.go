package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
)

const openAIURL = "https://api.openai.com/v1"

// OpenAIProvider calls the /audio/speech endpoint.
type OpenAIProvider struct {
	baseURL string
	apiKey  string
	voice   string
	client  *http.Client
}

func NewOpenAIProvider(baseURL, apiKey, voice string, client *http.Client) *OpenAIProvider {
	if voice == "" {
		voice = "alloy"
	}
	return &OpenAIProvider{baseURL: baseURLOr(baseURL, openAIURL), apiKey: apiKey, voice: voice, client: client}
}

func (p *OpenAIProvider) Name() string { return string(EngineOpenAI) }

// Synthesize ignores lang; the model detects the language from the text.
func (p *OpenAIProvider) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	reqBody := map[string]interface{}{
		"model":           "tts-1",
		"input":           text,
		"voice":           p.voice,
		"response_format": "mp3",
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/audio/speech", bytes.NewReader(jsonData))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	return fetch(p.client, p.Name(), req)
}
