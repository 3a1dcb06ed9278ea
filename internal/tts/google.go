package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/ZacxDev/video-narrator/pkg/types"
	"github.com/pkg/errors"
)

const googleURL = "https://texttospeech.googleapis.com"

// GoogleProvider calls the Cloud Text-to-Speech REST API with an API key.
type GoogleProvider struct {
	baseURL string
	apiKey  string
	voice   string
	client  *http.Client
}

func NewGoogleProvider(baseURL, apiKey, voice string, client *http.Client) *GoogleProvider {
	return &GoogleProvider{baseURL: baseURLOr(baseURL, googleURL), apiKey: apiKey, voice: voice, client: client}
}

func (p *GoogleProvider) Name() string { return string(EngineGoogle) }

func (p *GoogleProvider) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	voice := map[string]interface{}{
		"languageCode": lang,
	}
	if p.voice != "" {
		voice["name"] = p.voice
	}
	reqBody := map[string]interface{}{
		"input": map[string]interface{}{
			"text": text,
		},
		"voice": voice,
		"audioConfig": map[string]interface{}{
			"audioEncoding": "MP3",
		},
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	endpoint := p.baseURL + "/v1/text:synthesize?key=" + url.QueryEscape(p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := fetch(p.client, p.Name(), req)
	if err != nil {
		return nil, err
	}

	// Google returns JSON with "audioContent": base64 string
	var result struct {
		AudioContent string `json:"audioContent"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &types.TTSServiceError{Provider: p.Name(), Err: errors.Wrap(err, "invalid response")}
	}
	decoded, err := base64.StdEncoding.DecodeString(result.AudioContent)
	if err != nil {
		return nil, &types.TTSServiceError{Provider: p.Name(), Err: errors.Wrap(err, "invalid audio content")}
	}
	return decoded, nil
}
