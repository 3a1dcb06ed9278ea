package tts

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ZacxDev/video-narrator/pkg/types"
	"github.com/pkg/errors"
)

const maxErrorBody = 512

// fetch performs req and returns the body of a 200 response. Any other
// status is a TTSServiceError carrying the status code and the start of the
// response body.
func fetch(client *http.Client, provider string, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, &types.TTSServiceError{Provider: provider, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &types.TTSServiceError{
			Provider:   provider,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", strings.TrimSpace(string(body))),
		}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &types.TTSServiceError{Provider: provider, Err: errors.Wrap(err, "failed to read response")}
	}
	return data, nil
}

func baseURLOr(baseURL, fallback string) string {
	if strings.TrimSpace(baseURL) == "" {
		return fallback
	}
	return strings.TrimRight(baseURL, "/")
}
